package user

import (
	"context"
	"strings"
	"time"

	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/randx"
)

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
)

func (s GoalStatus) valid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalPaused:
		return true
	}
	return false
}

// StudyGoal is a personal target kept on the user record.
type StudyGoal struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	TargetHours  *float64   `json:"targetHours,omitempty"`
	CurrentHours float64    `json:"currentHours"`
	TargetDate   string     `json:"targetDate,omitempty"`
	Status       GoalStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type GoalInput struct {
	Title       string
	Description string
	TargetHours *float64
	TargetDate  string
}

// GoalUpdate carries optional goal edits; nil fields are left unchanged.
type GoalUpdate struct {
	Title        *string     `json:"title"`
	Description  *string     `json:"description"`
	TargetHours  *float64    `json:"targetHours"`
	CurrentHours *float64    `json:"currentHours"`
	TargetDate   *string     `json:"targetDate"`
	Status       *GoalStatus `json:"status"`
}

func (s *Service) Goals(ctx context.Context, userID string) ([]StudyGoal, *errs.CustomError) {
	u, cErr := s.Get(ctx, userID)
	if cErr != nil {
		return nil, cErr
	}
	if u.StudyGoals == nil {
		return []StudyGoal{}, nil
	}
	return u.StudyGoals, nil
}

func (s *Service) AddGoal(ctx context.Context, userID string, in GoalInput) (*StudyGoal, *errs.CustomError) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errs.NewError(errs.ErrMissingFields)
	}
	if in.TargetHours != nil && *in.TargetHours < 0 {
		return nil, errs.NewError(errs.ErrInvalidGoal)
	}
	if in.TargetDate != "" && !validDate(in.TargetDate) {
		return nil, errs.NewError(errs.ErrInvalidGoal)
	}

	goal := StudyGoal{
		ID:          randx.ID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		TargetHours: in.TargetHours,
		TargetDate:  in.TargetDate,
		Status:      GoalActive,
		CreatedAt:   s.Now().UTC(),
	}

	if _, cErr := s.update(ctx, userID, func(u *User) error {
		u.StudyGoals = append(u.StudyGoals, goal)
		return nil
	}); cErr != nil {
		return nil, cErr
	}
	return &goal, nil
}

func (s *Service) UpdateGoal(ctx context.Context, userID, goalID string, in GoalUpdate) (*StudyGoal, *errs.CustomError) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, errs.NewError(errs.ErrInvalidGoal)
	}
	if in.CurrentHours != nil && *in.CurrentHours < 0 {
		return nil, errs.NewError(errs.ErrInvalidGoal)
	}
	if in.TargetHours != nil && *in.TargetHours < 0 {
		return nil, errs.NewError(errs.ErrInvalidGoal)
	}
	if in.Status != nil && !in.Status.valid() {
		return nil, errs.NewError(errs.ErrInvalidGoal)
	}
	if in.TargetDate != nil && *in.TargetDate != "" && !validDate(*in.TargetDate) {
		return nil, errs.NewError(errs.ErrInvalidGoal)
	}

	var result StudyGoal
	_, cErr := s.update(ctx, userID, func(u *User) error {
		for i := range u.StudyGoals {
			g := &u.StudyGoals[i]
			if g.ID != goalID {
				continue
			}
			if in.Title != nil {
				g.Title = strings.TrimSpace(*in.Title)
			}
			if in.Description != nil {
				g.Description = strings.TrimSpace(*in.Description)
			}
			if in.TargetHours != nil {
				g.TargetHours = in.TargetHours
			}
			if in.CurrentHours != nil {
				g.CurrentHours = *in.CurrentHours
			}
			if in.TargetDate != nil {
				g.TargetDate = *in.TargetDate
			}
			if in.Status != nil {
				g.Status = *in.Status
			}
			result = *g
			return nil
		}
		return errs.NewError(errs.ErrGoalNotFound)
	})
	if cErr != nil {
		return nil, cErr
	}
	return &result, nil
}

func validDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}
