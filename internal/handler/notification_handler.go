package handler

import (
	"net/http"

	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/req"
	"studyhive/internal/pkg/resp"
)

// HandleGetNotifications lists the caller's notifications, or only the unread
// count with ?count=true.
func HandleGetNotifications(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := CurrentUser(r).ID

		if r.URL.Query().Get("count") == "true" {
			count, cErr := deps.Notifications.UnreadCount(r.Context(), userID)
			if cErr != nil {
				resp.RespondError(w, r, cErr)
				return
			}
			resp.RespondSuccess(w, r, map[string]any{"count": count})
			return
		}

		notes, cErr := deps.Notifications.List(r.Context(), userID)
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, notes)
	}
}

type MarkNotificationsInput struct {
	NotificationID string `json:"notificationId"`
	MarkAll        bool   `json:"markAll"`
}

func HandleMarkNotifications(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input MarkNotificationsInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		userID := CurrentUser(r).ID
		switch {
		case input.MarkAll:
			n, cErr := deps.Notifications.MarkAllRead(r.Context(), userID)
			if cErr != nil {
				resp.RespondError(w, r, cErr)
				return
			}
			resp.RespondSuccess(w, r, map[string]any{"updated": n})
		case input.NotificationID != "":
			if cErr := deps.Notifications.MarkRead(r.Context(), userID, input.NotificationID); cErr != nil {
				resp.RespondError(w, r, cErr)
				return
			}
			resp.RespondSuccess(w, r, map[string]any{"updated": 1})
		default:
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingFields))
		}
	}
}
