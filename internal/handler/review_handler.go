package handler

import (
	"net/http"

	"studyhive/internal/app/review"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/req"
	"studyhive/internal/pkg/resp"
)

// HandleListReviews returns the reviews written about ?userId= with their average.
func HandleListReviews(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingFields))
			return
		}

		reviews, cErr := deps.Reviews.ListFor(r.Context(), userID)
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"reviews": reviews,
			"summary": review.Summarize(reviews),
		})
	}
}

func HandleCreateReview(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input review.CreateInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		rv, cErr := deps.Reviews.Create(r.Context(), CurrentUser(r).ID, input)
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondCreated(w, r, rv)
	}
}
