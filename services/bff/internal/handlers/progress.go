package handlers

import (
	"net/http"

	"github.com/example/mediawatch/internal/platform/api"
	"github.com/example/mediawatch/internal/platform/events"
	"github.com/example/mediawatch/internal/platform/httpserver"
	progressv1 "github.com/example/mediawatch/internal/rpc/progressv1"
)

type submitProgressRequest struct {
	Progress *int `json:"progress"`
}

// SubmitProgress accepts a viewer's coverage percentage for a module. With
// async writes enabled the report is queued on JetStream and 202 is
// returned; otherwise it is merged synchronously over gRPC.
func SubmitProgress(client progressv1.ProgressServiceClient, publisher *EventPublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := viewer(w, r, rid)
		if !ok {
			return
		}
		mid, ok := moduleID(w, r, rid)
		if !ok {
			return
		}

		var req submitProgressRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if req.Progress == nil {
			api.BadRequest(w, "MISSING_PROGRESS", "progress is required", rid, map[string]any{"progress": "required"})
			return
		}
		pct := *req.Progress
		if pct < 0 || pct > 100 {
			api.BadRequest(w, "OUT_OF_RANGE", "progress must be between 0 and 100", rid, map[string]any{"progress": "must be between 0 and 100"})
			return
		}

		if publisher.Enabled() {
			eventID, err := publisher.PublishJSON(events.SubjectProgressSubmitted, map[string]any{
				"module_id":  mid,
				"user_id":    uid,
				"percentage": pct,
			})
			if err != nil {
				api.Unavailable(w, "EVENT_PUBLISH_FAILED", "failed to publish event", rid)
				return
			}
			w.Header().Set("X-Event-ID", eventID)
			api.WriteJSON(w, http.StatusAccepted, map[string]any{"status": true})
			return
		}

		resp, err := client.SubmitProgress(r.Context(), &progressv1.SubmitProgressRequest{
			ModuleId:   mid,
			UserId:     uid,
			Percentage: int32(pct),
		})
		if err != nil {
			writeGRPCError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{
			"status":     true,
			"percentage": resp.GetProgress().GetPercentage(),
			"completed":  resp.Completion.GetCompleted(),
		})
	}
}

// GetProgress returns the caller's stored percentage and completion state.
func GetProgress(client progressv1.ProgressServiceClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := viewer(w, r, rid)
		if !ok {
			return
		}
		mid, ok := moduleID(w, r, rid)
		if !ok {
			return
		}

		resp, err := client.GetProgress(r.Context(), &progressv1.GetProgressRequest{ModuleId: mid, UserId: uid})
		if err != nil {
			writeGRPCError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{
			"module_id":     mid,
			"percentage":    resp.GetProgress().GetPercentage(),
			"required":      resp.GetCompletion().GetRequired(),
			"completed":     resp.GetCompletion().GetCompleted(),
			"updated_at_ms": resp.GetProgress().GetUpdatedAtMs(),
		})
	}
}
