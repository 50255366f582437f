package handlers

import (
	"net/http"
	"strconv"

	"github.com/example/mediawatch/internal/coverage"
	"github.com/example/mediawatch/internal/platform/api"
	"github.com/example/mediawatch/internal/platform/events"
	"github.com/example/mediawatch/internal/platform/httpserver"
	progressv1 "github.com/example/mediawatch/internal/rpc/progressv1"
	"github.com/example/mediawatch/services/bff/internal/media"
)

type trackingConfig struct {
	ReportURL      string  `json:"report_url"`
	BackfillWindow float64 `json:"backfill_window"`
	MergeTolerance float64 `json:"merge_tolerance"`
}

type playbackResponse struct {
	ModuleID          int64          `json:"module_id"`
	Name              string         `json:"name"`
	SourceURL         string         `json:"source_url"`
	MimeType          string         `json:"mime_type"`
	SourceOrigin      media.Origin   `json:"source_origin"`
	Progress          int32          `json:"progress"`
	CompletionMinView int32          `json:"completion_min_view"`
	Completed         bool           `json:"completed"`
	Tracking          trackingConfig `json:"tracking"`
}

// Playback returns everything a player needs to render a module: the
// resolved media source, the viewer's stored progress for the overlay and
// the tracking parameters.
func Playback(client progressv1.ProgressServiceClient, resolver media.Resolver, ep *events.Publisher) http.HandlerFunc {
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

		act, err := client.GetActivity(r.Context(), &progressv1.GetActivityRequest{ModuleId: mid})
		if err != nil {
			writeGRPCError(w, rid, err)
			return
		}
		a := act.GetActivity()
		if a == nil {
			api.NotFound(w, "ACTIVITY_NOT_FOUND", "activity not found", rid)
			return
		}

		src, err := resolver.Resolve(r.Context(), a.MediaUrl)
		if err != nil {
			src = media.Direct(a.MediaUrl)
		}

		prog, err := client.GetProgress(r.Context(), &progressv1.GetProgressRequest{ModuleId: mid, UserId: uid})
		if err != nil {
			writeGRPCError(w, rid, err)
			return
		}

		ep.Publish(events.SubjectPlaybackStarted, "playback_started", uid, map[string]any{
			"module_id":     mid,
			"source_origin": string(src.Origin),
		})

		api.WriteJSON(w, http.StatusOK, playbackResponse{
			ModuleID:          mid,
			Name:              a.Name,
			SourceURL:         src.URL,
			MimeType:          src.MimeType,
			SourceOrigin:      src.Origin,
			Progress:          prog.GetProgress().GetPercentage(),
			CompletionMinView: a.CompletionMinView,
			Completed:         prog.GetCompletion().GetCompleted(),
			Tracking: trackingConfig{
				ReportURL:      "/v1/modules/" + strconv.FormatInt(mid, 10) + "/progress",
				BackfillWindow: coverage.BackfillWindow,
				MergeTolerance: coverage.MergeTolerance,
			},
		})
	}
}
