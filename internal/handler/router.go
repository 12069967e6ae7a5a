package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"studyhive/internal/pkg/auth/session"
	"studyhive/internal/pkg/limiter"
	"studyhive/internal/pkg/logx"
	"studyhive/internal/pkg/pow"
	"studyhive/internal/pkg/resp"
)

const (
	SignupRate     = 0.05
	SignupBurst    = 3
	LoginRate      = 0.2
	LoginBurst     = 5
	CreateJamRate  = 0.05
	CreateJamBurst = 3
	ConnectRate    = 0.2
	ConnectBurst   = 5
)

// Router sets up the HTTP routing table. The returned function stops the
// rate limiters' cleanup loops.
func Router(deps *AppDeps) (http.Handler, func()) {
	signupLimiter := limiter.NewIPRateLimiter("signup", rate.Limit(SignupRate), SignupBurst)
	loginLimiter := limiter.NewIPRateLimiter("login", rate.Limit(LoginRate), LoginBurst)
	createJamLimiter := limiter.NewIPRateLimiter("create_jam", rate.Limit(CreateJamRate), CreateJamBurst)
	connectLimiter := limiter.NewIPRateLimiter("ws_connect", rate.Limit(ConnectRate), ConnectBurst)

	closeLimiters := func() {
		signupLimiter.Close()
		loginLimiter.Close()
		createJamLimiter.Close()
		connectLimiter.Close()
	}

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", pow.TokenHeaderKey},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "StudyHive Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	requireUser := RequireUser(deps)

	r.Route("/api", func(api chi.Router) {
		api.Use(session.Middleware(deps.Config.SessionSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.Get("/challenge", HandleGetChallenge(deps))
			auth.Post("/challenge", HandleSolveChallenge(deps))
			auth.Get("/parse-email", HandleParseEmail(deps))
			auth.Post("/logout", HandleLogout(deps))

			auth.With(signupLimiter.Middleware, deps.Pow.Require).Post("/create-profile", HandleCreateProfile(deps))
			auth.With(loginLimiter.Middleware).Post("/login", HandleLogin(deps))

			auth.With(requireUser).Get("/me", HandleMe(deps))
			auth.With(requireUser).Post("/update-preferences", HandleUpdatePreferences(deps))
		})

		api.Get("/study-jams", HandleListStudyJams(deps))
		api.Get("/study-jams/{id}", HandleGetStudyJam(deps))
		api.Get("/users/{id}", HandleGetUser(deps))
		api.Get("/users/{id}/activity", HandleGetActivity(deps))

		api.Group(func(authed chi.Router) {
			authed.Use(requireUser)

			authed.Put("/profile", HandleUpdateProfile(deps))
			authed.Post("/profile/avatar/presign", HandlePresignAvatar(deps))

			authed.With(RequireCompleteProfile, createJamLimiter.Middleware).Post("/study-jams", HandleCreateStudyJam(deps))
			authed.Post("/study-jams/seed", HandleSeed(deps))
			authed.Put("/study-jams/{id}", HandleUpdateStudyJam(deps))
			authed.Delete("/study-jams/{id}", HandleDeleteStudyJam(deps))
			authed.With(RequireCompleteProfile).Post("/study-jams/{id}/join", HandleJoinStudyJam(deps))
			authed.Post("/study-jams/{id}/leave", HandleLeaveStudyJam(deps))
			authed.With(RequireCompleteProfile).Post("/study-jams/{id}/request", HandleRequestStudyJam(deps))
			authed.Post("/study-jams/{id}/requests/{userId}/approve", HandleApproveRequest(deps))
			authed.Post("/study-jams/{id}/requests/{userId}/reject", HandleRejectRequest(deps))

			authed.Get("/chats", HandleGetChats(deps))
			authed.Post("/chats", HandleOpenChat(deps))
			authed.Get("/messages", HandleGetMessages(deps))
			authed.Post("/messages", HandleSendMessage(deps))

			authed.Get("/notifications", HandleGetNotifications(deps))
			authed.Put("/notifications", HandleMarkNotifications(deps))

			authed.Get("/reviews", HandleListReviews(deps))
			authed.Post("/reviews", HandleCreateReview(deps))

			authed.Get("/goals", HandleListGoals(deps))
			authed.Post("/goals", HandleCreateGoal(deps))
			authed.Put("/goals", HandleUpdateGoal(deps))

			authed.Post("/files/presign-upload", HandlePresignUploadURL(deps))
			authed.Get("/files/download", HandlePresignDownloadURL(deps))

			authed.With(connectLimiter.Middleware).Get("/ws", HandleWebSocket(deps, wsUpgrader))
		})
	})

	return r, closeLimiters
}
