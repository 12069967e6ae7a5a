package notification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"studyhive/internal/app/db"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/logx"
	"studyhive/internal/pkg/randx"
)

// Pusher delivers an event to a user's live connections. Delivery is best effort.
type Pusher interface {
	Push(userID, event string, payload any)
}

type Service struct {
	notes  db.Collection[Notification]
	pusher Pusher

	Now func() time.Time
}

// NewService returns a Service; pusher may be nil.
func NewService(notes db.Collection[Notification], pusher Pusher) *Service {
	return &Service{notes: notes, pusher: pusher, Now: time.Now}
}

// Notify stores a notification for in.UserID and pushes it to live connections.
func (s *Service) Notify(ctx context.Context, in Input) (*Notification, *errs.CustomError) {
	n := Notification{
		ID:        randx.ID(),
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Link:      in.Link,
		CreatedAt: s.Now().UTC(),
	}
	if err := s.notes.Insert(ctx, n); err != nil {
		return nil, errs.Internal(err)
	}

	if s.pusher != nil {
		s.pusher.Push(n.UserID, EventNotification, n)
	}
	return &n, nil
}

// ScheduleReminder stores a reminder that becomes visible ReminderLead before
// start. Nothing is stored when that moment has already passed, or when userID
// already has a pending reminder for jamID; the returned notification is then nil.
func (s *Service) ScheduleReminder(ctx context.Context, userID, jamID, jamTitle string, start time.Time) (*Notification, *errs.CustomError) {
	now := s.Now().UTC()
	deliverAt := start.Add(-ReminderLead).UTC()
	if !deliverAt.After(now) {
		return nil, nil
	}

	pending, err := s.notes.Filter(ctx, pendingReminder(userID, jamID, now))
	if err != nil {
		return nil, errs.Internal(err)
	}
	if len(pending) > 0 {
		return nil, nil
	}

	n := Notification{
		ID:         randx.ID(),
		UserID:     userID,
		Type:       TypeReminder,
		Title:      "Study jam tomorrow",
		Message:    fmt.Sprintf("%s starts %s.", jamTitle, start.Format("Mon, 02 Jan at 15:04")),
		Link:       "/study-jams/" + jamID,
		StudyJamID: jamID,
		CreatedAt:  now,
		DeliverAt:  &deliverAt,
	}
	if err := s.notes.Insert(ctx, n); err != nil {
		return nil, errs.Internal(err)
	}

	logx.Debug("Scheduled reminder", "user_id", userID, "study_jam_id", jamID, "deliver_at", deliverAt)
	return &n, nil
}

// CancelReminders deletes the reminders of userID for jamID that have not
// surfaced yet and returns how many were removed.
func (s *Service) CancelReminders(ctx context.Context, userID, jamID string) (int, *errs.CustomError) {
	n, err := s.notes.DeleteWhere(ctx, db.FieldEquals("userId", userID, pendingReminder(userID, jamID, s.Now())))
	if err != nil {
		return 0, errs.Internal(err)
	}
	if n > 0 {
		logx.Debug("Cancelled reminders", "user_id", userID, "study_jam_id", jamID, "count", n)
	}
	return n, nil
}

func pendingReminder(userID, jamID string, now time.Time) func(Notification) bool {
	return func(n Notification) bool {
		return n.UserID == userID && n.Type == TypeReminder && n.StudyJamID == jamID && !n.Due(now)
	}
}

// List returns the due notifications of userID, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Notification, *errs.CustomError) {
	now := s.Now()
	notes, err := s.notes.Filter(ctx, func(n Notification) bool {
		return n.UserID == userID && n.Due(now)
	})
	if err != nil {
		return nil, errs.Internal(err)
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return sortTime(notes[i]).After(sortTime(notes[j]))
	})
	return notes, nil
}

// sortTime orders reminders by when they surfaced rather than when they were stored.
func sortTime(n Notification) time.Time {
	if n.DeliverAt != nil {
		return *n.DeliverAt
	}
	return n.CreatedAt
}

// UnreadCount counts due, unread notifications of userID.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, *errs.CustomError) {
	now := s.Now()
	notes, err := s.notes.Filter(ctx, func(n Notification) bool {
		return n.UserID == userID && !n.Read && n.Due(now)
	})
	if err != nil {
		return 0, errs.Internal(err)
	}
	return len(notes), nil
}

// MarkRead marks one notification of userID as read. Notifications of other
// users are reported as not found.
func (s *Service) MarkRead(ctx context.Context, userID, id string) *errs.CustomError {
	_, err := s.notes.Update(ctx, id, func(n *Notification) error {
		if n.UserID != userID {
			return db.ErrNotFound
		}
		n.Read = true
		return nil
	})
	if errors.Is(err, db.ErrNotFound) {
		return errs.NewError(errs.ErrNotificationNotFound)
	}
	if err != nil {
		return errs.Internal(err)
	}
	return nil
}

// MarkAllRead marks every due notification of userID as read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, *errs.CustomError) {
	now := s.Now()
	n, err := s.notes.UpdateWhere(ctx, db.FieldEquals("userId", userID, func(n Notification) bool {
		return !n.Read && n.Due(now)
	}), func(n *Notification) error {
		n.Read = true
		return nil
	})
	if err != nil {
		return 0, errs.Internal(err)
	}
	return n, nil
}
