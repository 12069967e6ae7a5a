// Package review stores peer ratings between study partners.
package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"studyhive/internal/app/db"
	"studyhive/internal/app/notification"
	"studyhive/internal/app/user"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/logx"
	"studyhive/internal/pkg/randx"
)

const (
	MinRating = 1
	MaxRating = 5

	MaxCommentLength = 1000
)

type Review struct {
	ID           string    `json:"id"`
	ReviewerID   string    `json:"reviewerId"`
	RevieweeID   string    `json:"revieweeId"`
	StudyJamID   string    `json:"studyJamId,omitempty"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	HelpfulCount int       `json:"helpfulCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r Review) GetID() string { return r.ID }

type Notifier interface {
	Notify(ctx context.Context, in notification.Input) (*notification.Notification, *errs.CustomError)
}

type UserLookup interface {
	Get(ctx context.Context, id string) (*user.User, *errs.CustomError)
}

type Service struct {
	reviews  db.Collection[Review]
	users    UserLookup
	notifier Notifier

	Now func() time.Time
}

// NewService wires the review service. notifier may be nil.
func NewService(reviews db.Collection[Review], users UserLookup, notifier Notifier) *Service {
	return &Service{reviews: reviews, users: users, notifier: notifier, Now: time.Now}
}

// ListFor returns the reviews written about userID, newest first.
func (s *Service) ListFor(ctx context.Context, userID string) ([]Review, *errs.CustomError) {
	out, err := s.reviews.Filter(ctx, func(r Review) bool { return r.RevieweeID == userID })
	if err != nil {
		return nil, errs.Internal(err)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

type CreateInput struct {
	RevieweeID string `json:"revieweeId"`
	StudyJamID string `json:"studyJamId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// Create stores a review by reviewerID and notifies the reviewee.
func (s *Service) Create(ctx context.Context, reviewerID string, in CreateInput) (*Review, *errs.CustomError) {
	in.RevieweeID = strings.TrimSpace(in.RevieweeID)
	in.Comment = strings.TrimSpace(in.Comment)
	if in.RevieweeID == "" || in.Rating == 0 || in.Comment == "" {
		return nil, errs.NewError(errs.ErrMissingFields)
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return nil, errs.NewError(errs.ErrInvalidRating)
	}
	if utf8.RuneCountInString(in.Comment) > MaxCommentLength {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	if in.RevieweeID == reviewerID {
		return nil, errs.NewError(errs.ErrCannotReviewSelf)
	}
	if _, cErr := s.users.Get(ctx, in.RevieweeID); cErr != nil {
		return nil, cErr
	}

	r := Review{
		ID:         randx.ID(),
		ReviewerID: reviewerID,
		RevieweeID: in.RevieweeID,
		StudyJamID: strings.TrimSpace(in.StudyJamID),
		Rating:     in.Rating,
		Comment:    in.Comment,
		CreatedAt:  s.Now().UTC(),
	}
	if err := s.reviews.Insert(ctx, r); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, errs.NewError(errs.ErrInvalidParams)
		}
		return nil, errs.Internal(err)
	}

	if s.notifier != nil {
		reviewer := "Someone"
		if u, cErr := s.users.Get(ctx, reviewerID); cErr == nil && u.Name != "" {
			reviewer = u.Name
		}
		if _, cErr := s.notifier.Notify(ctx, notification.Input{
			UserID:  r.RevieweeID,
			Type:    notification.TypeReview,
			Title:   "New review",
			Message: fmt.Sprintf("%s rated you %d/%d.", reviewer, r.Rating, MaxRating),
			Link:    "/profile/" + r.RevieweeID,
		}); cErr != nil {
			logx.Error(cErr, "Failed to store review notification", "review_id", r.ID)
		}
	}

	return &r, nil
}

// Summary is the average rating of a user.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

func Summarize(reviews []Review) Summary {
	if len(reviews) == 0 {
		return Summary{}
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return Summary{Count: len(reviews), Average: float64(total) / float64(len(reviews))}
}
