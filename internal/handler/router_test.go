package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhive/internal/app/chat"
	"studyhive/internal/app/db"
	"studyhive/internal/app/live"
	"studyhive/internal/app/notification"
	"studyhive/internal/app/review"
	"studyhive/internal/app/seed"
	"studyhive/internal/app/storage"
	"studyhive/internal/app/studyjam"
	"studyhive/internal/app/user"
	"studyhive/internal/configs"
	"studyhive/internal/pkg/auth/session"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/pow"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, cfg *configs.AppConfig) http.Handler {
	t.Helper()
	h, _ := newTestRouterWithUsers(t, cfg)
	return h
}

func newTestRouterWithUsers(t *testing.T, cfg *configs.AppConfig) (http.Handler, db.Collection[user.User]) {
	t.Helper()

	backend, err := db.NewFileBackend(t.TempDir())
	require.NoError(t, err)

	users := db.NewCollection(backend, db.UsersCollection, user.EmailKey)
	jams := db.NewCollection[studyjam.StudyJam](backend, db.StudyJamsCollection, nil)

	hub := live.NewHub()
	t.Cleanup(hub.Shutdown)

	store, err := storage.NewStorageService(storage.ServiceConfig{})
	require.NoError(t, err)

	userService := user.NewService(users)
	notes := notification.NewService(db.NewCollection[notification.Notification](backend, db.NotificationsCollection, nil), hub)
	chats := chat.NewService(
		db.NewCollection[chat.Chat](backend, db.ChatsCollection, nil),
		db.NewCollection[chat.Message](backend, db.MessagesCollection, nil),
		jams, userService, notes, hub,
	)
	powManager := pow.NewManager(cfg.PowDifficulty)
	t.Cleanup(powManager.Close)

	deps := &AppDeps{
		Config:         cfg,
		Users:          userService,
		StudyJams:      studyjam.NewService(jams, userService, notes, chats, time.UTC),
		Notifications:  notes,
		Chats:          chats,
		Reviews:        review.NewService(db.NewCollection[review.Review](backend, db.ReviewsCollection, nil), userService, notes),
		StorageService: store,
		Hub:            hub,
		Pow:            powManager,
		Seeder:         seed.New(users, jams, time.UTC),
	}

	h, closeLimiters := Router(deps)
	t.Cleanup(closeLimiters)
	return h, users
}

func devConfig() *configs.AppConfig {
	return &configs.AppConfig{Environment: configs.EnvDevelopment, SessionSecret: "test-secret"}
}

func call(t *testing.T, h http.Handler, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var env envelope
	if w.Code != http.StatusFound {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func signUp(t *testing.T, h http.Handler, email string) (token, id string) {
	t.Helper()

	w, env := call(t, h, http.MethodPost, "/api/auth/create-profile", map[string]any{
		"email":          email,
		"password":       "secret123",
		"batchYear":      2023,
		"rollNumber":     email[5:8],
		"branch":         "CSE",
		"branchAcronym":  email[2:5],
		"strongSubjects": []string{"DSA"},
		"weakSubjects":   []string{"Physics"},
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		User user.Profile `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return sessionCookie(t, w), data.User.ID
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c.Value
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return ""
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, devConfig())

	w, env := call(t, h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
}

func TestSignUpAndSession(t *testing.T) {
	h := newTestRouter(t, devConfig())

	w, env := call(t, h, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errs.ErrUnauthorized, env.Code)

	token, id := signUp(t, h, "23bcs001@iiitdwd.ac.in")
	require.NotEmpty(t, token)

	w, env = call(t, h, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		User user.Profile `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, id, me.User.ID)
	assert.Equal(t, user.Campus, me.User.Campus)
	assert.True(t, me.User.ProfileComplete)
	assert.NotContains(t, string(env.Data), "secret123")

	w, env = call(t, h, http.MethodPost, "/api/auth/create-profile", map[string]any{
		"email": "23bcs001@iiitdwd.ac.in", "password": "another1", "batchYear": 2023,
		"rollNumber": "001", "branch": "CSE", "branchAcronym": "bcs",
		"strongSubjects": []string{"DSA"}, "weakSubjects": []string{"Physics"},
	}, "")
	assert.Equal(t, errs.ErrUserAlreadyExists, env.Code, w.Body.String())

	w, _ = call(t, h, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "23BCS001@iiitdwd.ac.in", "password": "secret123",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, session.CookieName, cookies[0].Name)

	w, env = call(t, h, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "23bcs001@iiitdwd.ac.in", "password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errs.ErrInvalidCredentials, env.Code)
}

func TestSessionCookieAuthenticates(t *testing.T) {
	h := newTestRouter(t, devConfig())
	token, _ := signUp(t, h, "24bds002@iiitdwd.ac.in")

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseEmail(t *testing.T) {
	h := newTestRouter(t, devConfig())

	w, env := call(t, h, http.MethodGet, "/api/auth/parse-email?email=22bec057@iiitdwd.ac.in", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var parsed struct {
		BatchYear     int    `json:"batchYear"`
		RollNumber    string `json:"rollNumber"`
		Branch        string `json:"branch"`
		BranchAcronym string `json:"branchAcronym"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &parsed))
	assert.Equal(t, 2022, parsed.BatchYear)
	assert.Equal(t, "057", parsed.RollNumber)
	assert.Equal(t, "ECE", parsed.Branch)
	assert.Equal(t, "bec", parsed.BranchAcronym)

	_, env = call(t, h, http.MethodGet, "/api/auth/parse-email?email=john@iiitdwd.ac.in", nil, "")
	assert.Equal(t, errs.ErrInvalidCollegeEmail, env.Code)

	_, env = call(t, h, http.MethodGet, "/api/auth/parse-email", nil, "")
	assert.Equal(t, errs.ErrMissingFields, env.Code)
}

func TestStudyJamChatFlow(t *testing.T) {
	h := newTestRouter(t, devConfig())
	alice, _ := signUp(t, h, "23bcs001@iiitdwd.ac.in")
	bob, _ := signUp(t, h, "23bcs002@iiitdwd.ac.in")

	w, env := call(t, h, http.MethodPost, "/api/study-jams", map[string]any{
		"title":           "Graphs revision",
		"description":     "BFS, DFS and shortest paths",
		"subject":         "DSA",
		"campus":          "IIIT Dharwad",
		"location":        "Library L2",
		"date":            time.Now().AddDate(0, 0, 3).Format(time.DateOnly),
		"time":            "18:00",
		"maxParticipants": 2,
	}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var jam studyjam.StudyJam
	require.NoError(t, json.Unmarshal(env.Data, &jam))
	assert.Equal(t, 1, jam.CurrentParticipants)

	w, env = call(t, h, http.MethodGet, "/api/study-jams?subject=dsa", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []studyjam.StudyJam
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)

	_, env = call(t, h, http.MethodGet, "/api/chats?studyJamId="+jam.ID, nil, bob)
	assert.Equal(t, errs.ErrChatNotFound, env.Code)

	w, env = call(t, h, http.MethodPost, "/api/study-jams/"+jam.ID+"/join", nil, bob)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &jam))
	assert.Equal(t, 2, jam.CurrentParticipants)
	assert.Equal(t, studyjam.StatusFull, jam.Status)

	w, env = call(t, h, http.MethodGet, "/api/chats?studyJamId="+jam.ID, nil, bob)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var group chat.Chat
	require.NoError(t, json.Unmarshal(env.Data, &group))
	assert.Equal(t, chat.GroupChatID(jam.ID), group.ID)
	assert.ElementsMatch(t, jam.Participants, group.Participants)

	w, _ = call(t, h, http.MethodPost, "/api/messages", map[string]any{
		"chatId":  group.ID,
		"content": "See you at the library",
	}, bob)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	_, env = call(t, h, http.MethodPost, "/api/messages", map[string]any{
		"chatId":  group.ID,
		"type":    "image",
		"fileKey": chat.ChatKeyPrefix(group.ID) + "photo.png",
	}, bob)
	assert.Equal(t, errs.ErrFileStorageDisabled, env.Code)

	_, env = call(t, h, http.MethodGet, "/api/notifications?count=true", nil, alice)
	var count struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &count))
	assert.Equal(t, 1, count.Count)

	_, env = call(t, h, http.MethodGet, "/api/notifications", nil, alice)
	var notes []notification.Notification
	require.NoError(t, json.Unmarshal(env.Data, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, notification.TypeMessage, notes[0].Type)
	assert.Equal(t, "/chat/"+group.ID, notes[0].Link)

	w, env = call(t, h, http.MethodGet, "/api/messages?chatId="+group.ID, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []chat.Message
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].ReadBy, notes[0].UserID)

	w, _ = call(t, h, http.MethodPut, "/api/notifications", map[string]any{"markAll": true}, alice)
	require.Equal(t, http.StatusOK, w.Code)
	_, env = call(t, h, http.MethodGet, "/api/notifications?count=true", nil, alice)
	require.NoError(t, json.Unmarshal(env.Data, &count))
	assert.Equal(t, 0, count.Count)

	w, env = call(t, h, http.MethodPost, "/api/study-jams/"+jam.ID+"/leave", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &jam))
	assert.Equal(t, studyjam.StatusOpen, jam.Status)

	_, env = call(t, h, http.MethodDelete, "/api/study-jams/"+jam.ID, nil, bob)
	assert.Equal(t, errs.ErrForbidden, env.Code)
}

func TestReviewsAndGoals(t *testing.T) {
	h := newTestRouter(t, devConfig())
	alice, aliceID := signUp(t, h, "23bcs001@iiitdwd.ac.in")
	bob, bobID := signUp(t, h, "23bcs002@iiitdwd.ac.in")

	w, _ := call(t, h, http.MethodPost, "/api/reviews", map[string]any{
		"revieweeId": bobID, "rating": 5, "comment": "Explains recursion well",
	}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	_, env := call(t, h, http.MethodPost, "/api/reviews", map[string]any{
		"revieweeId": aliceID, "rating": 4, "comment": "self",
	}, alice)
	assert.Equal(t, errs.ErrCannotReviewSelf, env.Code)

	_, env = call(t, h, http.MethodGet, "/api/reviews?userId="+bobID, nil, bob)
	var listed struct {
		Reviews []review.Review `json:"reviews"`
		Summary review.Summary  `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed.Reviews, 1)
	assert.Equal(t, review.Summary{Count: 1, Average: 5}, listed.Summary)

	w, env = call(t, h, http.MethodPost, "/api/goals", map[string]any{"title": "Finish CLRS ch. 22", "targetHours": 10}, bob)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var goal user.StudyGoal
	require.NoError(t, json.Unmarshal(env.Data, &goal))

	w, _ = call(t, h, http.MethodPut, "/api/goals", map[string]any{
		"goalId":  goal.ID,
		"updates": map[string]any{"status": "completed"},
	}, bob)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, env = call(t, h, http.MethodGet, "/api/goals", nil, bob)
	var goals []user.StudyGoal
	require.NoError(t, json.Unmarshal(env.Data, &goals))
	require.Len(t, goals, 1)
	assert.Equal(t, user.GoalCompleted, goals[0].Status)
}

func TestSeedIsDevelopmentOnly(t *testing.T) {
	cfg := devConfig()
	cfg.Environment = "production"
	h := newTestRouter(t, cfg)
	token, _ := signUp(t, h, "23bcs001@iiitdwd.ac.in")

	w, env := call(t, h, http.MethodPost, "/api/study-jams/seed", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, errs.ErrForbidden, env.Code)

	dev := newTestRouter(t, devConfig())
	token, _ = signUp(t, dev, "23bcs001@iiitdwd.ac.in")
	w, _ = call(t, dev, http.MethodPost, "/api/study-jams/seed", nil, token)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateProfileRequiresProofWhenEnabled(t *testing.T) {
	cfg := devConfig()
	cfg.PowDifficulty = 1
	h := newTestRouter(t, cfg)

	w, env := call(t, h, http.MethodPost, "/api/auth/create-profile", map[string]any{"email": "23bcs001@iiitdwd.ac.in"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, errs.ErrPowChallengeRequired, env.Code)

	_, env = call(t, h, http.MethodGet, "/api/auth/challenge", nil, "")
	var challenge struct {
		Enabled    bool   `json:"enabled"`
		Nonce      string `json:"nonce"`
		Difficulty int    `json:"difficulty"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &challenge))
	assert.True(t, challenge.Enabled)
	assert.NotEmpty(t, challenge.Nonce)
	assert.Equal(t, 1, challenge.Difficulty)
}

func TestSessionTokenOnlyInCookie(t *testing.T) {
	h := newTestRouter(t, devConfig())

	w, env := call(t, h, http.MethodPost, "/api/auth/create-profile", map[string]any{
		"email": "23bcs001@iiitdwd.ac.in", "password": "secret123", "batchYear": 2023,
		"rollNumber": "001", "branch": "CSE", "branchAcronym": "bcs",
		"strongSubjects": []string{"DSA"}, "weakSubjects": []string{"Physics"},
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := sessionCookie(t, w)
	assert.NotContains(t, string(env.Data), "token")
	assert.NotContains(t, w.Body.String(), token)

	w, env = call(t, h, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "23bcs001@iiitdwd.ac.in", "password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token = sessionCookie(t, w)
	assert.NotContains(t, string(env.Data), "token")
	assert.NotContains(t, w.Body.String(), token)
}

func TestRejectedLoginDoesNotLogEmail(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	h := newTestRouter(t, devConfig())
	signUp(t, h, "23bcs001@iiitdwd.ac.in")
	buf.Reset()

	_, env := call(t, h, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "23bcs001@iiitdwd.ac.in", "password": "wrong-password",
	}, "")
	require.Equal(t, errs.ErrInvalidCredentials, env.Code)

	out := buf.String()
	assert.Contains(t, out, "login: rejected")
	assert.Contains(t, out, "remote_ip")
	assert.NotContains(t, out, "23bcs001")
}

func TestIncompleteProfileCannotCreateOrRequest(t *testing.T) {
	h, users := newTestRouterWithUsers(t, devConfig())
	alice, _ := signUp(t, h, "23bcs001@iiitdwd.ac.in")

	placeholder := user.User{
		ID:        "placeholder-1",
		Name:      "23bcs009",
		Email:     "23bcs009@iiitdwd.ac.in",
		CreatedAt: time.Now(),
	}
	require.NoError(t, users.Insert(context.Background(), placeholder))
	pending, err := session.GenerateToken(placeholder.ID, "test-secret", time.Hour)
	require.NoError(t, err)

	body := map[string]any{
		"title":           "Linear algebra",
		"description":     "Eigenvalues",
		"subject":         "Maths",
		"campus":          "IIIT Dharwad",
		"location":        "Room 101",
		"date":            time.Now().AddDate(0, 0, 3).Format(time.DateOnly),
		"time":            "10:00",
		"maxParticipants": 2,
	}

	w, env := call(t, h, http.MethodPost, "/api/study-jams", body, pending)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errs.ErrProfileIncomplete, env.Code)

	w, env = call(t, h, http.MethodPost, "/api/study-jams", body, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var jam studyjam.StudyJam
	require.NoError(t, json.Unmarshal(env.Data, &jam))

	_, env = call(t, h, http.MethodPost, "/api/study-jams/"+jam.ID+"/request", nil, pending)
	assert.Equal(t, errs.ErrProfileIncomplete, env.Code)
	_, env = call(t, h, http.MethodPost, "/api/study-jams/"+jam.ID+"/join", nil, pending)
	assert.Equal(t, errs.ErrProfileIncomplete, env.Code)

	_, env = call(t, h, http.MethodGet, "/api/study-jams/"+jam.ID, nil, "")
	require.NoError(t, json.Unmarshal(env.Data, &jam))
	assert.Empty(t, jam.Requests)
	assert.Equal(t, 1, jam.CurrentParticipants)
}
