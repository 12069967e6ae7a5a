package studyjam

import (
	"context"
	"time"

	"studyhive/internal/pkg/errs"
)

const (
	DefaultActivityDays = 365
	MaxActivityDays     = 366
)

// ActivityDay is one cell of the activity heatmap.
type ActivityDay struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	Intensity int    `json:"intensity"`
}

// Activity summarizes the jams a user created or joined, by jam date.
type Activity struct {
	Start      string        `json:"start"`
	End        string        `json:"end"`
	Total      int           `json:"total"`
	ActiveDays int           `json:"activeDays"`
	Days       []ActivityDay `json:"days"`
}

// Intensity buckets a daily count: 0 none, 1, 2, 3 for 3-4, 4 for 5 or more.
func Intensity(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 2:
		return count
	case count <= 4:
		return 3
	default:
		return 4
	}
}

// Activity builds a heatmap of the last days days, ending today in the
// service time zone.
func (s *Service) Activity(ctx context.Context, userID string, days int) (*Activity, *errs.CustomError) {
	if days < 1 || days > MaxActivityDays {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	now := s.Now().In(s.loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	start := end.AddDate(0, 0, -(days - 1))
	startKey, endKey := start.Format(dateLayout), end.Format(dateLayout)

	jams, err := s.jams.Filter(ctx, func(j StudyJam) bool {
		return (j.CreatedBy == userID || j.IsParticipant(userID)) &&
			j.Date >= startKey && j.Date <= endKey
	})
	if err != nil {
		return nil, errs.Internal(err)
	}

	counts := make(map[string]int, len(jams))
	for _, j := range jams {
		counts[j.Date]++
	}

	out := &Activity{
		Start: startKey,
		End:   endKey,
		Days:  make([]ActivityDay, 0, days),
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		c := counts[key]
		out.Days = append(out.Days, ActivityDay{Date: key, Count: c, Intensity: Intensity(c)})
		out.Total += c
		if c > 0 {
			out.ActiveDays++
		}
	}
	return out, nil
}
