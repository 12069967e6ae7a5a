// Package seed loads sample users and study jams into an empty development store.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"studyhive/internal/app/db"
	"studyhive/internal/app/studyjam"
	"studyhive/internal/app/user"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/logx"
	"studyhive/internal/pkg/randx"
)

type Result struct {
	Users int `json:"users"`
	Jams  int `json:"jams"`
}

type Seeder struct {
	users db.Collection[user.User]
	jams  db.Collection[studyjam.StudyJam]
	loc   *time.Location

	Now func() time.Time
}

func New(users db.Collection[user.User], jams db.Collection[studyjam.StudyJam], loc *time.Location) *Seeder {
	if loc == nil {
		loc = time.UTC
	}
	return &Seeder{users: users, jams: jams, loc: loc, Now: time.Now}
}

type sampleUser struct {
	email  string
	strong []string
	weak   []string
}

// Sample accounts carry no password: logging in answers ErrPasswordNotSet and
// signing up with one of these emails upgrades the record in place.
var sampleUsers = []sampleUser{
	{email: "23bcs001@iiitdwd.ac.in", strong: []string{"Algorithms", "Data Structures"}, weak: []string{"Calculus"}},
	{email: "24bds002@iiitdwd.ac.in", strong: []string{"Linear Algebra", "Statistics"}, weak: []string{"Physics"}},
	{email: "22bec003@iiitdwd.ac.in", strong: []string{"Signals", "Electromagnetism"}, weak: []string{"Mathematics"}},
}

type sampleJam struct {
	title       string
	description string
	subject     string
	location    string
	clock       string
	inDays      int
	capacity    int
	creator     int
	members     []int
}

var sampleJams = []sampleJam{
	{
		title:       "Calculus II Study Session",
		description: "Reviewing integrals and differential equations for the upcoming exam. Bring your notes and questions!",
		subject:     "Mathematics",
		location:    "Library Room 201",
		clock:       "14:00",
		inDays:      1,
		capacity:    6,
		creator:     0,
		members:     []int{0, 1},
	},
	{
		title:       "Data Structures & Algorithms",
		description: "Working through problem sets together. Focus on trees and graphs this week.",
		subject:     "Computer Science",
		location:    "Computer Lab 305",
		clock:       "16:00",
		inDays:      2,
		capacity:    5,
		creator:     0,
		members:     []int{0, 1, 2},
	},
	{
		title:       "Signals Lab Review",
		description: "Going over lab reports and preparing for the practical exam. All ECE students welcome!",
		subject:     "Electronics",
		location:    "Academic Block Room 102",
		clock:       "10:00",
		inDays:      7,
		capacity:    8,
		creator:     2,
		members:     []int{2},
	},
	{
		title:       "Linear Algebra Group Study",
		description: "Solving practice problems from chapters 5-7. Bring your textbook!",
		subject:     "Mathematics",
		location:    "Seminar Hall 2",
		clock:       "18:00",
		inDays:      1,
		capacity:    2,
		creator:     1,
		members:     []int{1, 0},
	},
}

// Run inserts the sample data. It refuses when any study jam already exists.
func (s *Seeder) Run(ctx context.Context) (*Result, *errs.CustomError) {
	existing, err := s.jams.List(ctx)
	if err != nil {
		return nil, errs.Internal(err)
	}
	if len(existing) > 0 {
		return nil, errs.NewError(errs.ErrSeedDataExists)
	}

	now := s.Now()
	res := &Result{}

	ids := make([]string, len(sampleUsers))
	for i, su := range sampleUsers {
		id, created, err := s.ensureUser(ctx, su, now)
		if err != nil {
			return nil, errs.Internal(err)
		}
		ids[i] = id
		if created {
			res.Users++
		}
	}

	today := now.In(s.loc)
	for _, sj := range sampleJams {
		participants := make([]string, 0, len(sj.members))
		for _, m := range sj.members {
			participants = append(participants, ids[m])
		}
		jam := studyjam.StudyJam{
			ID:                  randx.ID(),
			Title:               sj.title,
			Description:         sj.description,
			Subject:             sj.subject,
			Campus:              user.Campus,
			Location:            sj.location,
			Date:                today.AddDate(0, 0, sj.inDays).Format(time.DateOnly),
			Time:                sj.clock,
			MaxParticipants:     sj.capacity,
			CurrentParticipants: len(participants),
			CreatedBy:           ids[sj.creator],
			CreatedAt:           now.UTC(),
			Participants:        participants,
			Requests:            []string{},
			Status:              studyjam.DeriveStatus(len(participants), sj.capacity, studyjam.StatusOpen),
		}
		if err := s.jams.Insert(ctx, jam); err != nil {
			return nil, errs.Internal(err)
		}
		res.Jams++
	}

	logx.Info("Sample data created", "users", res.Users, "jams", res.Jams)
	return res, nil
}

func (s *Seeder) ensureUser(ctx context.Context, su sampleUser, now time.Time) (string, bool, error) {
	email := user.NormalizeEmail(su.email)
	found, err := s.users.Find(ctx, func(u user.User) bool { return u.Email == email })
	if err == nil {
		return found.ID, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return "", false, err
	}

	parsed := user.ParseCollegeEmail(email)
	name, _, _ := strings.Cut(email, "@")
	u := user.User{
		ID:              randx.ID(),
		Name:            name,
		Email:           email,
		Campus:          user.Campus,
		BatchYear:       parsed.BatchYear,
		RollNumber:      parsed.RollNumber,
		Branch:          parsed.Branch,
		BranchAcronym:   parsed.BranchAcronym,
		StrongSubjects:  su.strong,
		WeakSubjects:    su.weak,
		ProfileComplete: true,
		CreatedAt:       now.UTC(),
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return "", false, err
	}
	return u.ID, true, nil
}
