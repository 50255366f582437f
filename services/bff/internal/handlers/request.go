package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/mediawatch/internal/platform/api"
	"github.com/example/mediawatch/internal/platform/auth"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// decodeJSON reads up to maxRequestBodyBytes from r.Body and decodes JSON into dst.
// On failure it writes a 400 response and returns false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, rid string, dst *T) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(dst); err != nil {
		api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
		return false
	}
	return true
}

// viewer returns the authenticated user id, writing a 401 when absent.
func viewer(w http.ResponseWriter, r *http.Request, rid string) (string, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(uid) == "" {
		api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
		return "", false
	}
	return uid, true
}

// moduleID parses the {module_id} route parameter, writing a 400 when invalid.
func moduleID(w http.ResponseWriter, r *http.Request, rid string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "module_id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		api.BadRequest(w, "INVALID_MODULE_ID", "module_id must be a positive integer", rid, nil)
		return 0, false
	}
	return id, true
}
