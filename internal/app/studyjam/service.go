package studyjam

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"studyhive/internal/app/db"
	"studyhive/internal/app/notification"
	"studyhive/internal/app/user"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/logx"
	"studyhive/internal/pkg/randx"
)

// Notifier records notifications triggered by roster changes.
type Notifier interface {
	Notify(ctx context.Context, in notification.Input) (*notification.Notification, *errs.CustomError)
	ScheduleReminder(ctx context.Context, userID, jamID, jamTitle string, start time.Time) (*notification.Notification, *errs.CustomError)
	CancelReminders(ctx context.Context, userID, jamID string) (int, *errs.CustomError)
}

// RosterSyncer keeps the group chat of a jam in line with its participants.
type RosterSyncer interface {
	SyncGroupRoster(ctx context.Context, jamID string, participants []string) *errs.CustomError
}

// UserLookup resolves user records for notification texts.
type UserLookup interface {
	Get(ctx context.Context, id string) (*user.User, *errs.CustomError)
}

type Service struct {
	jams     db.Collection[StudyJam]
	users    UserLookup
	notifier Notifier
	roster   RosterSyncer
	loc      *time.Location

	// createMu serializes the quota check with the insert.
	createMu sync.Mutex

	Now func() time.Time
}

// NewService wires the lifecycle service. roster may be nil.
func NewService(jams db.Collection[StudyJam], users UserLookup, notifier Notifier, roster RosterSyncer, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		jams:     jams,
		users:    users,
		notifier: notifier,
		roster:   roster,
		loc:      loc,
		Now:      time.Now,
	}
}

type CreateInput struct {
	Title           string
	Description     string
	Subject         string
	Campus          string
	Location        string
	Date            string
	Time            string
	MaxParticipants int
}

func (in *CreateInput) trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Campus = strings.TrimSpace(in.Campus)
	in.Location = strings.TrimSpace(in.Location)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
}

// Create schedules a new jam with the creator as its only participant.
func (s *Service) Create(ctx context.Context, creatorID string, in CreateInput) (*StudyJam, *errs.CustomError) {
	in.trim()
	if in.Title == "" || in.Description == "" || in.Subject == "" || in.Campus == "" ||
		in.Location == "" || in.Date == "" || in.Time == "" || in.MaxParticipants == 0 {
		return nil, errs.NewError(errs.ErrMissingFields)
	}
	if cErr := validateSchedule(in.Date, in.Time); cErr != nil {
		return nil, cErr
	}
	if in.MaxParticipants < MinParticipants || in.MaxParticipants > MaxParticipants {
		return nil, errs.NewError(errs.ErrInvalidCapacity, MinParticipants, MaxParticipants)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	now := s.Now().UTC()
	windowStart := now.Add(-QuotaWindow)
	recent, err := s.jams.Filter(ctx, func(j StudyJam) bool {
		return j.CreatedBy == creatorID && !j.CreatedAt.Before(windowStart)
	})
	if err != nil {
		return nil, errs.Internal(err)
	}
	if len(recent) >= WeeklyQuota {
		return nil, errs.NewError(errs.ErrWeeklyQuotaExceeded, WeeklyQuota)
	}

	jam := StudyJam{
		ID:                  randx.ID(),
		Title:               in.Title,
		Description:         in.Description,
		Subject:             in.Subject,
		Campus:              in.Campus,
		Location:            in.Location,
		Date:                in.Date,
		Time:                in.Time,
		MaxParticipants:     in.MaxParticipants,
		CurrentParticipants: 1,
		CreatedBy:           creatorID,
		CreatedAt:           now,
		Participants:        []string{creatorID},
		Requests:            []string{},
		Status:              StatusOpen,
	}
	if err := s.jams.Insert(ctx, jam); err != nil {
		return nil, errs.Internal(err)
	}

	logx.Info("Study jam created", "study_jam_id", jam.ID, "created_by", creatorID)
	return &jam, nil
}

type Filter struct {
	Campus  string
	Subject string
	Status  string
}

// List returns jams matching f, newest first. Campus and subject match
// case-insensitive substrings; status must match exactly.
func (s *Service) List(ctx context.Context, f Filter) ([]StudyJam, *errs.CustomError) {
	campus := strings.ToLower(strings.TrimSpace(f.Campus))
	subject := strings.ToLower(strings.TrimSpace(f.Subject))
	status := strings.TrimSpace(f.Status)

	jams, err := s.jams.Filter(ctx, func(j StudyJam) bool {
		if campus != "" && !strings.Contains(strings.ToLower(j.Campus), campus) {
			return false
		}
		if subject != "" && !strings.Contains(strings.ToLower(j.Subject), subject) {
			return false
		}
		return status == "" || string(j.Status) == status
	})
	if err != nil {
		return nil, errs.Internal(err)
	}

	sort.SliceStable(jams, func(a, b int) bool {
		return jams[a].CreatedAt.After(jams[b].CreatedAt)
	})
	return jams, nil
}

func (s *Service) Get(ctx context.Context, id string) (*StudyJam, *errs.CustomError) {
	jam, err := s.jams.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return &jam, nil
}

// EditInput carries optional edits; nil fields are left unchanged.
type EditInput struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Subject         *string `json:"subject"`
	Campus          *string `json:"campus"`
	Location        *string `json:"location"`
	Date            *string `json:"date"`
	Time            *string `json:"time"`
	MaxParticipants *int    `json:"maxParticipants"`
	Status          *Status `json:"status"`
}

// Update applies creator edits. Capacity cannot drop below the current roster
// and status can only be set to open or completed; the stored status is then
// re-derived from occupancy.
func (s *Service) Update(ctx context.Context, userID, id string, in EditInput) (*StudyJam, *errs.CustomError) {
	if in.Status != nil && *in.Status != StatusOpen && *in.Status != StatusCompleted {
		return nil, errs.NewError(errs.ErrInvalidStatus)
	}

	rescheduled := false
	jam, err := s.jams.Update(ctx, id, func(j *StudyJam) error {
		if j.CreatedBy != userID {
			return errs.NewError(errs.ErrForbidden)
		}
		date, clock := j.Date, j.Time

		for _, f := range []struct {
			src *string
			dst *string
		}{
			{in.Title, &j.Title},
			{in.Description, &j.Description},
			{in.Subject, &j.Subject},
			{in.Campus, &j.Campus},
			{in.Location, &j.Location},
			{in.Date, &j.Date},
			{in.Time, &j.Time},
		} {
			if f.src == nil {
				continue
			}
			v := strings.TrimSpace(*f.src)
			if v == "" {
				return errs.NewError(errs.ErrMissingFields)
			}
			*f.dst = v
		}
		if cErr := validateSchedule(j.Date, j.Time); cErr != nil {
			return cErr
		}
		rescheduled = j.Date != date || j.Time != clock

		if in.MaxParticipants != nil {
			capacity := *in.MaxParticipants
			if capacity < MinParticipants || capacity > MaxParticipants || capacity < len(j.Participants) {
				return errs.NewError(errs.ErrInvalidCapacity, MinParticipants, MaxParticipants)
			}
			j.MaxParticipants = capacity
		}
		if in.Status != nil {
			j.Status = *in.Status
		}
		j.refresh()
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}

	if rescheduled {
		for _, p := range jam.Participants {
			if p == jam.CreatedBy {
				continue
			}
			s.cancelReminders(ctx, p, jam.ID)
			s.scheduleReminder(ctx, &jam, p)
		}
	}
	return &jam, nil
}

// Delete removes a jam. Only its creator may delete it.
func (s *Service) Delete(ctx context.Context, userID, id string) *errs.CustomError {
	jam, err := s.jams.Get(ctx, id)
	if err != nil {
		return mapErr(err)
	}
	if jam.CreatedBy != userID {
		return errs.NewError(errs.ErrForbidden)
	}
	if err := s.jams.Delete(ctx, id); err != nil {
		return mapErr(err)
	}
	for _, p := range jam.Participants {
		s.cancelReminders(ctx, p, id)
	}
	logx.Info("Study jam deleted", "study_jam_id", id, "deleted_by", userID)
	return nil
}

// Join adds userID to the roster when there is room.
func (s *Service) Join(ctx context.Context, userID, id string) (*StudyJam, *errs.CustomError) {
	jam, err := s.jams.Update(ctx, id, func(j *StudyJam) error {
		if j.Status == StatusCompleted {
			return errs.NewError(errs.ErrStudyJamClosed)
		}
		if j.IsParticipant(userID) {
			return errs.NewError(errs.ErrAlreadyJoined)
		}
		if len(j.Participants) >= j.MaxParticipants {
			return errs.NewError(errs.ErrStudyJamFull)
		}
		j.addParticipant(userID)
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}

	s.afterJoin(ctx, &jam, userID)
	return &jam, nil
}

// Leave removes userID from the roster. The creator cannot leave.
func (s *Service) Leave(ctx context.Context, userID, id string) (*StudyJam, *errs.CustomError) {
	jam, err := s.jams.Update(ctx, id, func(j *StudyJam) error {
		if !j.IsParticipant(userID) {
			return errs.NewError(errs.ErrNotParticipant)
		}
		if j.CreatedBy == userID {
			return errs.NewError(errs.ErrCreatorCannotLeave)
		}
		j.removeParticipant(userID)
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}

	s.cancelReminders(ctx, userID, jam.ID)
	s.syncRoster(ctx, &jam)
	return &jam, nil
}

// Request queues userID for a seat and notifies the creator.
func (s *Service) Request(ctx context.Context, userID, id string) (*StudyJam, *errs.CustomError) {
	jam, err := s.jams.Update(ctx, id, func(j *StudyJam) error {
		if j.Status == StatusCompleted {
			return errs.NewError(errs.ErrStudyJamClosed)
		}
		if j.IsParticipant(userID) {
			return errs.NewError(errs.ErrAlreadyJoined)
		}
		if j.HasRequested(userID) {
			return errs.NewError(errs.ErrRequestAlreadySent)
		}
		j.Requests = append(j.Requests, userID)
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}

	s.notify(ctx, notification.Input{
		UserID:  jam.CreatedBy,
		Type:    notification.TypeJoinRequest,
		Title:   "New join request",
		Message: fmt.Sprintf("%s wants to join %s.", s.displayName(ctx, userID), jam.Title),
		Link:    "/study-jams/" + jam.ID,
	})
	return &jam, nil
}

// Approve moves a pending requester onto the roster. Only the creator may approve,
// and the capacity rule of Join still applies.
func (s *Service) Approve(ctx context.Context, creatorID, id, requesterID string) (*StudyJam, *errs.CustomError) {
	jam, err := s.jams.Update(ctx, id, func(j *StudyJam) error {
		if j.CreatedBy != creatorID {
			return errs.NewError(errs.ErrForbidden)
		}
		if !j.HasRequested(requesterID) {
			return errs.NewError(errs.ErrRequestNotFound)
		}
		if j.Status == StatusCompleted {
			return errs.NewError(errs.ErrStudyJamClosed)
		}
		if j.IsParticipant(requesterID) {
			j.Requests = remove(j.Requests, requesterID)
			return nil
		}
		if len(j.Participants) >= j.MaxParticipants {
			return errs.NewError(errs.ErrStudyJamFull)
		}
		j.addParticipant(requesterID)
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}

	s.notify(ctx, notification.Input{
		UserID:  requesterID,
		Type:    notification.TypeJoinApproved,
		Title:   "Request approved",
		Message: fmt.Sprintf("You have been added to %s.", jam.Title),
		Link:    "/study-jams/" + jam.ID,
	})
	s.afterJoin(ctx, &jam, requesterID)
	return &jam, nil
}

// Reject drops a pending request. Only the creator may reject.
func (s *Service) Reject(ctx context.Context, creatorID, id, requesterID string) (*StudyJam, *errs.CustomError) {
	jam, err := s.jams.Update(ctx, id, func(j *StudyJam) error {
		if j.CreatedBy != creatorID {
			return errs.NewError(errs.ErrForbidden)
		}
		if !j.HasRequested(requesterID) {
			return errs.NewError(errs.ErrRequestNotFound)
		}
		j.Requests = remove(j.Requests, requesterID)
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &jam, nil
}

func (s *Service) afterJoin(ctx context.Context, jam *StudyJam, userID string) {
	s.scheduleReminder(ctx, jam, userID)
	s.syncRoster(ctx, jam)
}

func (s *Service) scheduleReminder(ctx context.Context, jam *StudyJam, userID string) {
	if s.notifier == nil {
		return
	}
	start, err := jam.Start(s.loc)
	if err != nil {
		logx.Warn("Study jam has unreadable schedule, skipping reminder", "study_jam_id", jam.ID, "error", err.Error())
		return
	}
	if _, cErr := s.notifier.ScheduleReminder(ctx, userID, jam.ID, jam.Title, start); cErr != nil {
		logx.Error(cErr, "Failed to schedule reminder", "study_jam_id", jam.ID, "user_id", userID)
	}
}

func (s *Service) cancelReminders(ctx context.Context, userID, jamID string) {
	if s.notifier == nil {
		return
	}
	if _, cErr := s.notifier.CancelReminders(ctx, userID, jamID); cErr != nil {
		logx.Error(cErr, "Failed to cancel reminders", "study_jam_id", jamID, "user_id", userID)
	}
}

func (s *Service) syncRoster(ctx context.Context, jam *StudyJam) {
	if s.roster == nil {
		return
	}
	if cErr := s.roster.SyncGroupRoster(ctx, jam.ID, jam.Participants); cErr != nil {
		logx.Error(cErr, "Failed to sync group chat roster", "study_jam_id", jam.ID)
	}
}

func (s *Service) notify(ctx context.Context, in notification.Input) {
	if s.notifier == nil {
		return
	}
	if _, cErr := s.notifier.Notify(ctx, in); cErr != nil {
		logx.Error(cErr, "Failed to store notification", "user_id", in.UserID, "type", string(in.Type))
	}
}

func (s *Service) displayName(ctx context.Context, userID string) string {
	if s.users == nil {
		return "Someone"
	}
	u, cErr := s.users.Get(ctx, userID)
	if cErr != nil || u.Name == "" {
		return "Someone"
	}
	return u.Name
}

func validateSchedule(date, clock string) *errs.CustomError {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return errs.NewError(errs.ErrInvalidSchedule)
	}
	if _, err := time.Parse(timeLayout, clock); err != nil {
		return errs.NewError(errs.ErrInvalidSchedule)
	}
	return nil
}

func mapErr(err error) *errs.CustomError {
	if errors.Is(err, db.ErrNotFound) {
		return errs.NewError(errs.ErrStudyJamNotFound)
	}
	return errs.From(err)
}
