package user

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhive/internal/app/db"
	"studyhive/internal/pkg/errs"
)

func newTestService(t *testing.T) (*Service, db.Collection[User]) {
	t.Helper()
	users := db.NewFileCollection[User](filepath.Join(t.TempDir(), "users.json"), EmailKey)
	return NewService(users), users
}

func validInput() CreateProfileInput {
	return CreateProfileInput{
		Email:          "23bcs057@iiitdwd.ac.in",
		Password:       "secret1",
		BatchYear:      2023,
		RollNumber:     "057",
		Branch:         "CSE",
		BranchAcronym:  "bcs",
		StrongSubjects: []string{"DSA"},
		WeakSubjects:   []string{"Physics"},
	}
}

func TestCreateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, cErr := svc.CreateProfile(ctx, validInput())
	require.Nil(t, cErr)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "23bcs057", u.Name)
	assert.Equal(t, Campus, u.Campus)
	assert.True(t, u.ProfileComplete)
	assert.True(t, VerifyPassword("secret1", u.PasswordHash))

	_, cErr = svc.CreateProfile(ctx, validInput())
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrUserAlreadyExists, cErr.Code)
}

func TestCreateProfileValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name   string
		mutate func(in *CreateProfileInput)
		code   int
	}{
		{name: "missing email", mutate: func(in *CreateProfileInput) { in.Email = "" }, code: errs.ErrMissingFields},
		{name: "missing roll", mutate: func(in *CreateProfileInput) { in.RollNumber = " " }, code: errs.ErrMissingFields},
		{name: "short password", mutate: func(in *CreateProfileInput) { in.Password = "12345" }, code: errs.ErrInvalidPassword},
		{name: "bad email", mutate: func(in *CreateProfileInput) { in.Email = "someone@iiitdwd.ac.in" }, code: errs.ErrInvalidCollegeEmail},
		{name: "no strong subjects", mutate: func(in *CreateProfileInput) { in.StrongSubjects = nil }, code: errs.ErrMissingSubjects},
		{name: "blank weak subjects", mutate: func(in *CreateProfileInput) { in.WeakSubjects = []string{" "} }, code: errs.ErrMissingSubjects},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, cErr := svc.CreateProfile(context.Background(), in)
			require.NotNil(t, cErr)
			assert.Equal(t, tt.code, cErr.Code)
		})
	}
}

func TestCreateProfileUpgradesPlaceholder(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	require.NoError(t, users.Insert(ctx, User{ID: "legacy-1", Name: "Asha", Email: "23bcs057@iiitdwd.ac.in"}))

	u, cErr := svc.CreateProfile(ctx, validInput())
	require.Nil(t, cErr)
	assert.Equal(t, "legacy-1", u.ID)
	assert.Equal(t, "Asha", u.Name)
	assert.True(t, u.ProfileComplete)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "no second record")
}

func TestLogin(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	_, cErr := svc.CreateProfile(ctx, validInput())
	require.Nil(t, cErr)

	require.NoError(t, users.Insert(ctx, User{ID: "p", Email: "23bds001@iiitdwd.ac.in"}))
	require.NoError(t, users.Insert(ctx, User{ID: "l", Email: "23bec002@iiitdwd.ac.in", ProfileComplete: true}))

	u, cErr := svc.Login(ctx, " 23BCS057@iiitdwd.ac.in ", "secret1")
	require.Nil(t, cErr)
	assert.Equal(t, "23bcs057@iiitdwd.ac.in", u.Email)

	tests := []struct {
		name     string
		email    string
		password string
		code     int
	}{
		{name: "wrong password", email: "23bcs057@iiitdwd.ac.in", password: "nope", code: errs.ErrInvalidCredentials},
		{name: "unknown email", email: "23bcs999@iiitdwd.ac.in", password: "secret1", code: errs.ErrInvalidCredentials},
		{name: "incomplete profile", email: "23bds001@iiitdwd.ac.in", password: "secret1", code: errs.ErrInvalidCredentials},
		{name: "legacy without password", email: "23bec002@iiitdwd.ac.in", password: "secret1", code: errs.ErrPasswordNotSet},
		{name: "not a college email", email: "x@y.z", password: "secret1", code: errs.ErrInvalidCollegeEmail},
		{name: "missing password", email: "23bcs057@iiitdwd.ac.in", code: errs.ErrMissingFields},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cErr := svc.Login(ctx, tt.email, tt.password)
			require.NotNil(t, cErr)
			assert.Equal(t, tt.code, cErr.Code)
		})
	}
}

func TestUpdatePreferencesAndProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, cErr := svc.CreateProfile(ctx, validInput())
	require.Nil(t, cErr)

	updated, cErr := svc.UpdatePreferences(ctx, u.ID, []string{"OS", "os", " DBMS "}, []string{"Maths"})
	require.Nil(t, cErr)
	assert.Equal(t, []string{"OS", "DBMS"}, updated.StrongSubjects)
	assert.Equal(t, []string{"Maths"}, updated.WeakSubjects)

	_, cErr = svc.UpdatePreferences(ctx, u.ID, nil, []string{"Maths"})
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrInvalidParams, cErr.Code)

	_, cErr = svc.UpdatePreferences(ctx, u.ID, []string{}, []string{"Maths"})
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrMissingSubjects, cErr.Code)

	_, cErr = svc.UpdatePreferences(ctx, u.ID, []string{"OS"}, []string{"  ", ""})
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrMissingSubjects, cErr.Code)

	kept, cErr := svc.Get(ctx, u.ID)
	require.Nil(t, cErr)
	assert.Equal(t, []string{"OS", "DBMS"}, kept.StrongSubjects)
	assert.Equal(t, []string{"Maths"}, kept.WeakSubjects)

	bio := "Loves graphs."
	updated, cErr = svc.UpdateProfile(ctx, u.ID, ProfileUpdate{Bio: &bio})
	require.Nil(t, cErr)
	assert.Equal(t, bio, updated.Bio)

	long := strings.Repeat("b", MaxBioLength+1)
	_, cErr = svc.UpdateProfile(ctx, u.ID, ProfileUpdate{Bio: &long})
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrInvalidProfile, cErr.Code)

	_, cErr = svc.UpdateProfile(ctx, "missing", ProfileUpdate{Bio: &bio})
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrUserNotFound, cErr.Code)
}

func TestProfileHidesPassword(t *testing.T) {
	u := User{ID: "1", PasswordHash: "salt:hash"}
	p := u.Profile()
	assert.Equal(t, "1", p.ID)
	assert.NotNil(t, p.StrongSubjects)
}

func TestGoals(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, cErr := svc.CreateProfile(ctx, validInput())
	require.Nil(t, cErr)

	goals, cErr := svc.Goals(ctx, u.ID)
	require.Nil(t, cErr)
	assert.Empty(t, goals)

	target := 20.0
	g, cErr := svc.AddGoal(ctx, u.ID, GoalInput{Title: "Finish DSA sheet", TargetHours: &target})
	require.Nil(t, cErr)
	assert.Equal(t, GoalActive, g.Status)
	assert.Zero(t, g.CurrentHours)

	hours := 4.5
	done := GoalCompleted
	updated, cErr := svc.UpdateGoal(ctx, u.ID, g.ID, GoalUpdate{CurrentHours: &hours, Status: &done})
	require.Nil(t, cErr)
	assert.Equal(t, 4.5, updated.CurrentHours)
	assert.Equal(t, GoalCompleted, updated.Status)
	assert.Equal(t, "Finish DSA sheet", updated.Title)

	goals, cErr = svc.Goals(ctx, u.ID)
	require.Nil(t, cErr)
	require.Len(t, goals, 1)
	assert.Equal(t, GoalCompleted, goals[0].Status)

	_, cErr = svc.UpdateGoal(ctx, u.ID, "nope", GoalUpdate{CurrentHours: &hours})
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrGoalNotFound, cErr.Code)

	negative := -1.0
	_, cErr = svc.UpdateGoal(ctx, u.ID, g.ID, GoalUpdate{CurrentHours: &negative})
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrInvalidGoal, cErr.Code)

	bad := GoalStatus("abandoned")
	_, cErr = svc.UpdateGoal(ctx, u.ID, g.ID, GoalUpdate{Status: &bad})
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrInvalidGoal, cErr.Code)

	_, cErr = svc.AddGoal(ctx, u.ID, GoalInput{Title: " "})
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrMissingFields, cErr.Code)
}
