/*
Package studyjam implements the study session lifecycle.

A study jam is a scheduled session with a capacity-bounded roster. Users join while there
is room, request a seat when it is full, and the creator approves or rejects requests.
Every roster change is a single atomic update of the jam record, and the status is always
re-derived from occupancy afterwards.
*/
package studyjam

import (
	"slices"
	"time"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusFull      Status = "full"
	StatusCompleted Status = "completed"
)

const (
	// MinParticipants and MaxParticipants bound a jam's capacity.
	MinParticipants = 2
	MaxParticipants = 100

	// WeeklyQuota is how many jams one user may create within QuotaWindow.
	WeeklyQuota = 5
	QuotaWindow = 7 * 24 * time.Hour
)

const (
	dateLayout     = time.DateOnly
	timeLayout     = "15:04"
	dateTimeLayout = dateLayout + " " + timeLayout
)

type StudyJam struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Subject             string    `json:"subject"`
	Campus              string    `json:"campus"`
	Location            string    `json:"location"`
	Date                string    `json:"date"`
	Time                string    `json:"time"`
	MaxParticipants     int       `json:"maxParticipants"`
	CurrentParticipants int       `json:"currentParticipants"`
	CreatedBy           string    `json:"createdBy"`
	CreatedAt           time.Time `json:"createdAt"`
	Participants        []string  `json:"participants"`
	Requests            []string  `json:"requests"`
	Status              Status    `json:"status"`
}

func (j StudyJam) GetID() string { return j.ID }

func (j *StudyJam) IsParticipant(userID string) bool {
	return slices.Contains(j.Participants, userID)
}

func (j *StudyJam) HasRequested(userID string) bool {
	return slices.Contains(j.Requests, userID)
}

// Start returns the session start in loc.
func (j *StudyJam) Start(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateTimeLayout, j.Date+" "+j.Time, loc)
}

// DeriveStatus computes the status implied by occupancy. Completed is terminal.
func DeriveStatus(current, capacity int, status Status) Status {
	if status == StatusCompleted {
		return StatusCompleted
	}
	if current >= capacity {
		return StatusFull
	}
	return StatusOpen
}

func (j *StudyJam) refresh() {
	j.CurrentParticipants = len(j.Participants)
	j.Status = DeriveStatus(j.CurrentParticipants, j.MaxParticipants, j.Status)
}

func (j *StudyJam) addParticipant(userID string) {
	j.Participants = append(j.Participants, userID)
	j.Requests = remove(j.Requests, userID)
	j.refresh()
}

func (j *StudyJam) removeParticipant(userID string) {
	j.Participants = remove(j.Participants, userID)
	j.refresh()
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
