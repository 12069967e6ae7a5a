/*
Package user contains account provisioning for StudyHive.

It parses college email addresses, hashes and verifies passwords, creates and updates
user records and manages the study goals kept on each user.
*/
package user

import "time"

// Campus is assigned to every profile at creation.
const Campus = "IIIT Dharwad"

// User is the stored user record.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`

	// PasswordHash is "salt:hash" (PBKDF2-SHA512). Empty for legacy accounts.
	PasswordHash string `json:"password,omitempty"`

	Campus        string `json:"campus"`
	BatchYear     int    `json:"batchYear"`
	RollNumber    string `json:"rollNumber"`
	Branch        string `json:"branch"`
	BranchAcronym string `json:"branchAcronym"`

	StrongSubjects []string `json:"strongSubjects"`
	WeakSubjects   []string `json:"weakSubjects"`

	ProfileComplete bool      `json:"profileComplete"`
	CreatedAt       time.Time `json:"createdAt"`

	Bio            string      `json:"bio,omitempty"`
	ProfilePicture string      `json:"profilePicture,omitempty"`
	StudyGoals     []StudyGoal `json:"studyGoals,omitempty"`
}

func (u User) GetID() string { return u.ID }

// Profile is the client-facing view of a user. It never carries the password hash.
type Profile struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Campus          string      `json:"campus"`
	BatchYear       int         `json:"batchYear"`
	RollNumber      string      `json:"rollNumber"`
	Branch          string      `json:"branch"`
	BranchAcronym   string      `json:"branchAcronym"`
	StrongSubjects  []string    `json:"strongSubjects"`
	WeakSubjects    []string    `json:"weakSubjects"`
	ProfileComplete bool        `json:"profileComplete"`
	CreatedAt       time.Time   `json:"createdAt"`
	Bio             string      `json:"bio,omitempty"`
	ProfilePicture  string      `json:"profilePicture,omitempty"`
	StudyGoals      []StudyGoal `json:"studyGoals,omitempty"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	return Profile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Campus:          u.Campus,
		BatchYear:       u.BatchYear,
		RollNumber:      u.RollNumber,
		Branch:          u.Branch,
		BranchAcronym:   u.BranchAcronym,
		StrongSubjects:  nonNil(u.StrongSubjects),
		WeakSubjects:    nonNil(u.WeakSubjects),
		ProfileComplete: u.ProfileComplete,
		CreatedAt:       u.CreatedAt,
		Bio:             u.Bio,
		ProfilePicture:  u.ProfilePicture,
		StudyGoals:      u.StudyGoals,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
