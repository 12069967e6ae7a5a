/*
Package handler provides the HTTP handlers and routing setup for the StudyHive server.
*/
package handler

import (
	"net/http"
	"strings"

	"studyhive/internal/app/user"
	"studyhive/internal/pkg/auth/session"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/logx"
	"studyhive/internal/pkg/pow"
	"studyhive/internal/pkg/req"
	"studyhive/internal/pkg/resp"
)

type CreateProfileInput struct {
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	BatchYear      int      `json:"batchYear"`
	RollNumber     string   `json:"rollNumber"`
	Branch         string   `json:"branch"`
	BranchAcronym  string   `json:"branchAcronym"`
	StrongSubjects []string `json:"strongSubjects"`
	WeakSubjects   []string `json:"weakSubjects"`
}

// HandleCreateProfile signs a user up and starts their session.
func HandleCreateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CreateProfileInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		u, cErr := deps.Users.CreateProfile(r.Context(), user.CreateProfileInput{
			Email:          input.Email,
			Password:       input.Password,
			BatchYear:      input.BatchYear,
			RollNumber:     input.RollNumber,
			Branch:         input.Branch,
			BranchAcronym:  input.BranchAcronym,
			StrongSubjects: input.StrongSubjects,
			WeakSubjects:   input.WeakSubjects,
		})
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		if !startSession(w, r, deps, u) {
			return
		}

		resp.RespondCreated(w, r, map[string]any{
			"user": u.Profile(),
		})
	}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and starts a session.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		u, cErr := deps.Users.Login(r.Context(), input.Email, input.Password)
		if cErr != nil {
			logx.Warn("login: rejected", "code", cErr.Code, "remote_ip", logx.AnonymizeIP(r.RemoteAddr))
			resp.RespondError(w, r, cErr)
			return
		}

		if !startSession(w, r, deps, u) {
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": u.Profile(),
		})
	}
}

// startSession sets the httpOnly session cookie. The token is never echoed in
// the response body.
func startSession(w http.ResponseWriter, r *http.Request, deps *AppDeps, u *user.User) bool {
	token, err := session.GenerateToken(u.ID, deps.Config.SessionSecret, session.Expiration)
	if err != nil {
		logx.Error(err, "failed to generate session token", "user_id", u.ID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return false
	}

	session.SetCookie(w, token, !deps.Config.IsDevelopment())
	return true
}

// HandleLogout clears the session cookie.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session.ClearCookie(w, !deps.Config.IsDevelopment())
		resp.RespondSuccess(w, r, nil)
	}
}

// HandleMe returns the signed-in user.
func HandleMe(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"user": CurrentUser(r).Profile(),
		})
	}
}

// HandleParseEmail previews the academic fields encoded in a college email.
func HandleParseEmail(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingFields))
			return
		}

		parsed := user.ParseCollegeEmail(user.NormalizeEmail(email))
		if !parsed.IsValid {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCollegeEmail))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"email":         email,
			"batchYear":     parsed.BatchYear,
			"rollNumber":    parsed.RollNumber,
			"branch":        parsed.Branch,
			"branchAcronym": parsed.BranchAcronym,
		})
	}
}

type UpdatePreferencesInput struct {
	StrongSubjects []string `json:"strongSubjects"`
	WeakSubjects   []string `json:"weakSubjects"`
}

// HandleUpdatePreferences replaces the signed-in user's subject lists.
func HandleUpdatePreferences(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input UpdatePreferencesInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		u, cErr := deps.Users.UpdatePreferences(r.Context(), CurrentUser(r).ID, input.StrongSubjects, input.WeakSubjects)
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": u.Profile()})
	}
}

// HandleGetChallenge issues a proof-of-work nonce for sign-up.
func HandleGetChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Pow.Enabled() {
			resp.RespondSuccess(w, r, map[string]any{"enabled": false})
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"enabled":    true,
			"nonce":      deps.Pow.GenerateNonce(),
			"difficulty": deps.Pow.Difficulty(),
		})
	}
}

type SolveChallengeInput struct {
	Nonce   string `json:"nonce"`
	Counter string `json:"counter"`
}

// HandleSolveChallenge exchanges a solved nonce for a single-use proof token.
func HandleSolveChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SolveChallengeInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Nonce == "" || input.Counter == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingFields))
			return
		}

		token, err := deps.Pow.ValidateProof(input.Nonce, input.Counter)
		if err != nil {
			logx.Warn("pow: proof rejected", "error", err.Error())
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInvalid))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token":     token,
			"header":    pow.TokenHeaderKey,
			"expiresIn": int(pow.ProofTokenDuration.Seconds()),
		})
	}
}
