package notification

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhive/internal/app/db"
	"studyhive/internal/pkg/errs"
)

type pushed struct {
	userID string
	event  string
}

type recordingPusher struct {
	mu     sync.Mutex
	events []pushed
}

func (p *recordingPusher) Push(userID, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pushed{userID: userID, event: event})
}

func newTestService(t *testing.T, now time.Time) (*Service, *recordingPusher) {
	t.Helper()
	p := &recordingPusher{}
	svc := NewService(db.NewFileCollection[Notification](filepath.Join(t.TempDir(), "notifications.json"), nil), p)
	svc.Now = func() time.Time { return now }
	return svc, p
}

func TestNotifyListAndCount(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, pusher := newTestService(t, now)
	ctx := context.Background()

	_, cErr := svc.Notify(ctx, Input{UserID: "u1", Type: TypeMessage, Title: "first"})
	require.Nil(t, cErr)
	svc.Now = func() time.Time { return now.Add(time.Minute) }
	_, cErr = svc.Notify(ctx, Input{UserID: "u1", Type: TypeReview, Title: "second"})
	require.Nil(t, cErr)
	_, cErr = svc.Notify(ctx, Input{UserID: "u2", Type: TypeMessage, Title: "other"})
	require.Nil(t, cErr)

	list, cErr := svc.List(ctx, "u1")
	require.Nil(t, cErr)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title, "newest first")

	count, cErr := svc.UnreadCount(ctx, "u1")
	require.Nil(t, cErr)
	assert.Equal(t, 2, count)

	assert.Len(t, pusher.events, 3)
	assert.Equal(t, EventNotification, pusher.events[0].event)
}

func TestMarkRead(t *testing.T) {
	svc, _ := newTestService(t, time.Now())
	ctx := context.Background()

	n, cErr := svc.Notify(ctx, Input{UserID: "u1", Type: TypeMessage})
	require.Nil(t, cErr)
	_, cErr = svc.Notify(ctx, Input{UserID: "u1", Type: TypeMessage})
	require.Nil(t, cErr)

	cErr = svc.MarkRead(ctx, "u2", n.ID)
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrNotificationNotFound, cErr.Code, "cannot touch another user's notification")

	require.Nil(t, svc.MarkRead(ctx, "u1", n.ID))
	count, _ := svc.UnreadCount(ctx, "u1")
	assert.Equal(t, 1, count)

	marked, cErr := svc.MarkAllRead(ctx, "u1")
	require.Nil(t, cErr)
	assert.Equal(t, 1, marked)
	count, _ = svc.UnreadCount(ctx, "u1")
	assert.Zero(t, count)

	cErr = svc.MarkRead(ctx, "u1", "missing")
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrNotificationNotFound, cErr.Code)
}

func TestScheduleReminder(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, pusher := newTestService(t, now)
	ctx := context.Background()

	t.Run("within 24h is skipped", func(t *testing.T) {
		n, cErr := svc.ScheduleReminder(ctx, "u1", "jam", "Graphs", now.Add(23*time.Hour))
		require.Nil(t, cErr)
		assert.Nil(t, n)
	})

	n, cErr := svc.ScheduleReminder(ctx, "u1", "jam", "Graphs", now.Add(72*time.Hour))
	require.Nil(t, cErr)
	require.NotNil(t, n)
	assert.Equal(t, TypeReminder, n.Type)
	assert.Equal(t, now.Add(48*time.Hour), *n.DeliverAt)
	assert.Empty(t, pusher.events, "future reminders are not pushed")

	list, _ := svc.List(ctx, "u1")
	assert.Empty(t, list, "hidden until due")
	count, _ := svc.UnreadCount(ctx, "u1")
	assert.Zero(t, count)

	svc.Now = func() time.Time { return now.Add(49 * time.Hour) }
	list, _ = svc.List(ctx, "u1")
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
}

func TestScheduleReminderOncePerJam(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)
	ctx := context.Background()
	start := now.Add(72 * time.Hour)

	first, cErr := svc.ScheduleReminder(ctx, "u1", "jam", "Graphs", start)
	require.Nil(t, cErr)
	require.NotNil(t, first)
	assert.Equal(t, "jam", first.StudyJamID)

	again, cErr := svc.ScheduleReminder(ctx, "u1", "jam", "Graphs", start)
	require.Nil(t, cErr)
	assert.Nil(t, again, "a pending reminder is not duplicated")

	other, cErr := svc.ScheduleReminder(ctx, "u1", "jam-2", "Trees", start)
	require.Nil(t, cErr)
	assert.NotNil(t, other)

	svc.Now = func() time.Time { return start }
	list, _ := svc.List(ctx, "u1")
	assert.Len(t, list, 2)
}

func TestCancelReminders(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)
	ctx := context.Background()
	start := now.Add(72 * time.Hour)

	_, cErr := svc.ScheduleReminder(ctx, "u1", "jam", "Graphs", start)
	require.Nil(t, cErr)
	_, cErr = svc.ScheduleReminder(ctx, "u2", "jam", "Graphs", start)
	require.Nil(t, cErr)
	_, cErr = svc.ScheduleReminder(ctx, "u1", "jam-2", "Trees", start)
	require.Nil(t, cErr)
	_, cErr = svc.Notify(ctx, Input{UserID: "u1", Type: TypeMessage, Title: "hi", Link: "/study-jams/jam"})
	require.Nil(t, cErr)

	n, cErr := svc.CancelReminders(ctx, "u1", "jam")
	require.Nil(t, cErr)
	assert.Equal(t, 1, n)

	n, cErr = svc.CancelReminders(ctx, "u1", "jam")
	require.Nil(t, cErr)
	assert.Zero(t, n)

	svc.Now = func() time.Time { return start }
	list, _ := svc.List(ctx, "u1")
	require.Len(t, list, 2)
	for _, note := range list {
		assert.NotEqual(t, "jam", note.StudyJamID)
	}
	list, _ = svc.List(ctx, "u2")
	assert.Len(t, list, 1, "other users keep their reminder")

	n, cErr = svc.CancelReminders(ctx, "u2", "jam")
	require.Nil(t, cErr)
	assert.Zero(t, n, "surfaced reminders stay in the feed")

	_, cErr = svc.ScheduleReminder(ctx, "u1", "jam", "Graphs", start.Add(72*time.Hour))
	require.Nil(t, cErr)
	svc.Now = func() time.Time { return start.Add(49 * time.Hour) }
	list, _ = svc.List(ctx, "u1")
	assert.Len(t, list, 3, "rejoining schedules a fresh reminder")
}
