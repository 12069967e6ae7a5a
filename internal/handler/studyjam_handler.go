package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"studyhive/internal/app/studyjam"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/req"
	"studyhive/internal/pkg/resp"
)

// HandleListStudyJams lists jams filtered by campus, subject and status.
func HandleListStudyJams(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		jams, cErr := deps.StudyJams.List(r.Context(), studyjam.Filter{
			Campus:  q.Get("campus"),
			Subject: q.Get("subject"),
			Status:  q.Get("status"),
		})
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, jams)
	}
}

type CreateStudyJamInput struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Subject         string `json:"subject"`
	Campus          string `json:"campus"`
	Location        string `json:"location"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	MaxParticipants int    `json:"maxParticipants"`
}

func HandleCreateStudyJam(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CreateStudyJamInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		jam, cErr := deps.StudyJams.Create(r.Context(), CurrentUser(r).ID, studyjam.CreateInput{
			Title:           input.Title,
			Description:     input.Description,
			Subject:         input.Subject,
			Campus:          input.Campus,
			Location:        input.Location,
			Date:            input.Date,
			Time:            input.Time,
			MaxParticipants: input.MaxParticipants,
		})
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondCreated(w, r, jam)
	}
}

func HandleGetStudyJam(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jam, cErr := deps.StudyJams.Get(r.Context(), chi.URLParam(r, "id"))
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, jam)
	}
}

func HandleUpdateStudyJam(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input studyjam.EditInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		jam, cErr := deps.StudyJams.Update(r.Context(), CurrentUser(r).ID, chi.URLParam(r, "id"), input)
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, jam)
	}
}

func HandleDeleteStudyJam(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cErr := deps.StudyJams.Delete(r.Context(), CurrentUser(r).ID, chi.URLParam(r, "id")); cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

func HandleJoinStudyJam(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jam, cErr := deps.StudyJams.Join(r.Context(), CurrentUser(r).ID, chi.URLParam(r, "id"))
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, jam)
	}
}

func HandleLeaveStudyJam(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jam, cErr := deps.StudyJams.Leave(r.Context(), CurrentUser(r).ID, chi.URLParam(r, "id"))
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, jam)
	}
}

// HandleRequestStudyJam asks the creator for a seat.
func HandleRequestStudyJam(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jam, cErr := deps.StudyJams.Request(r.Context(), CurrentUser(r).ID, chi.URLParam(r, "id"))
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, jam)
	}
}

// HandleApproveRequest lets the creator accept a pending join request.
func HandleApproveRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jam, cErr := deps.StudyJams.Approve(r.Context(), CurrentUser(r).ID, chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, jam)
	}
}

func HandleRejectRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jam, cErr := deps.StudyJams.Reject(r.Context(), CurrentUser(r).ID, chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, jam)
	}
}

// HandleSeed loads sample data. Development only.
func HandleSeed(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Config.IsDevelopment() {
			resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
			return
		}

		res, cErr := deps.Seeder.Run(r.Context())
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondCreated(w, r, res)
	}
}
