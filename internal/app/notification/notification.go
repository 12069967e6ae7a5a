/*
Package notification stores per-user notification records and fans them out to
live connections.

Records are written synchronously by the operation that triggers them. Reminders carry
a DeliverAt time and stay hidden from listings until it passes; a pending reminder is
removed again when its user leaves the jam or the jam is deleted or rescheduled.
*/
package notification

import "time"

type Type string

const (
	TypeMessage      Type = "message"
	TypeJoinRequest  Type = "join_request"
	TypeJoinApproved Type = "join_approved"
	TypeReview       Type = "review"
	TypeMention      Type = "mention"
	TypeReminder     Type = "reminder"
)

// ReminderLead is how long before a session start its reminder becomes visible.
const ReminderLead = 24 * time.Hour

// EventNotification is the live push event type for a new notification.
const EventNotification = "notification"

type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Type      Type       `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Link      string     `json:"link,omitempty"`
	Read      bool       `json:"read"`

	// StudyJamID is set on reminders.
	StudyJamID string `json:"studyJamId,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	DeliverAt *time.Time `json:"deliverAt,omitempty"`
}

func (n Notification) GetID() string { return n.ID }

// Due reports whether n is visible at now.
func (n Notification) Due(now time.Time) bool {
	return n.DeliverAt == nil || !n.DeliverAt.After(now)
}

// Input describes a notification to create.
type Input struct {
	UserID  string
	Type    Type
	Title   string
	Message string
	Link    string
}
