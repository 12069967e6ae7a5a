package handler

import (
	"context"
	"net/http"

	"studyhive/internal/app/user"
	"studyhive/internal/pkg/auth/session"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/logx"
	"studyhive/internal/pkg/resp"
)

type contextKey string

const currentUserKey contextKey = "current_user"

// RequireUser loads the signed-in user into the request context. Requests
// without a valid session, or whose user no longer exists, get 401.
func RequireUser(deps *AppDeps) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload := session.GetPayloadFromContext(r)
			if payload == nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			u, cErr := deps.Users.Get(r.Context(), payload.ID)
			if cErr != nil {
				if cErr.Code == errs.ErrUserNotFound {
					logx.Warn("Session refers to a missing user", "user_id", payload.ID)
					cErr = errs.NewError(errs.ErrUnauthorized)
				}
				resp.RespondError(w, r, cErr)
				return
			}

			ctx := context.WithValue(r.Context(), currentUserKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the user loaded by RequireUser.
func CurrentUser(r *http.Request) *user.User {
	u, _ := r.Context().Value(currentUserKey).(*user.User)
	return u
}

// RequireCompleteProfile rejects users who have not finished their profile.
// It must run after RequireUser.
func RequireCompleteProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := CurrentUser(r)
		if u == nil || !u.ProfileComplete {
			resp.RespondError(w, r, errs.NewError(errs.ErrProfileIncomplete))
			return
		}
		next.ServeHTTP(w, r)
	})
}
