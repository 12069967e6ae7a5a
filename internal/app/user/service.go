package user

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"studyhive/internal/app/db"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/logx"
	"studyhive/internal/pkg/randx"
)

// MaxBioLength is the longest accepted profile bio, in characters.
const MaxBioLength = 500

// Service provisions accounts and edits user records.
type Service struct {
	users db.Collection[User]

	// Now is the clock used for timestamps.
	Now func() time.Time
}

// NewService returns a Service storing users in users.
func NewService(users db.Collection[User]) *Service {
	return &Service{users: users, Now: time.Now}
}

// EmailKey is the unique key of the users collection.
func EmailKey(u User) string {
	return u.Email
}

// CreateProfileInput is the sign-up form.
type CreateProfileInput struct {
	Email          string
	Password       string
	BatchYear      int
	RollNumber     string
	Branch         string
	BranchAcronym  string
	StrongSubjects []string
	WeakSubjects   []string
}

// CreateProfile completes sign-up. A placeholder or legacy record for the same
// email is upgraded in place, keeping its id and name; a complete account that
// already has a password is rejected.
func (s *Service) CreateProfile(ctx context.Context, in CreateProfileInput) (*User, *errs.CustomError) {
	email := NormalizeEmail(in.Email)
	if email == "" || in.BatchYear == 0 || strings.TrimSpace(in.RollNumber) == "" ||
		strings.TrimSpace(in.Branch) == "" || strings.TrimSpace(in.BranchAcronym) == "" {
		return nil, errs.NewError(errs.ErrMissingFields)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, errs.NewError(errs.ErrInvalidPassword)
	}
	if !ParseCollegeEmail(email).IsValid {
		return nil, errs.NewError(errs.ErrInvalidCollegeEmail)
	}

	strong := CleanSubjects(in.StrongSubjects)
	if len(strong) == 0 {
		return nil, errs.NewError(errs.ErrMissingSubjects, "strong")
	}
	weak := CleanSubjects(in.WeakSubjects)
	if len(weak) == 0 {
		return nil, errs.NewError(errs.ErrMissingSubjects, "weak")
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, errs.Internal(err)
	}

	apply := func(u *User) {
		u.Email = email
		u.PasswordHash = hashed
		u.Campus = Campus
		u.BatchYear = in.BatchYear
		u.RollNumber = strings.TrimSpace(in.RollNumber)
		u.Branch = strings.TrimSpace(in.Branch)
		u.BranchAcronym = strings.TrimSpace(in.BranchAcronym)
		u.StrongSubjects = strong
		u.WeakSubjects = weak
		u.ProfileComplete = true
		if u.Name == "" {
			u.Name = localPart(email)
		}
	}

	existing, err := s.users.Find(ctx, func(u User) bool { return u.Email == email })
	switch {
	case err == nil:
		updated, err := s.users.Update(ctx, existing.ID, func(u *User) error {
			if u.ProfileComplete && u.PasswordHash != "" {
				return errs.NewError(errs.ErrUserAlreadyExists)
			}
			apply(u)
			return nil
		})
		if err != nil {
			return nil, errs.From(err)
		}
		logx.Info("Upgraded existing account", "user_id", updated.ID)
		return &updated, nil

	case errors.Is(err, db.ErrNotFound):
		u := User{ID: randx.ID(), CreatedAt: s.Now().UTC()}
		apply(&u)
		if err := s.users.Insert(ctx, u); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				return nil, errs.NewError(errs.ErrUserAlreadyExists)
			}
			return nil, errs.Internal(err)
		}
		logx.Info("Created account", "user_id", u.ID)
		return &u, nil

	default:
		return nil, errs.Internal(err)
	}
}

// Login checks credentials. Unknown emails, incomplete profiles and wrong
// passwords all fail with the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *errs.CustomError) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, errs.NewError(errs.ErrMissingFields)
	}
	if !ParseCollegeEmail(email).IsValid {
		return nil, errs.NewError(errs.ErrInvalidCollegeEmail)
	}

	u, err := s.users.Find(ctx, func(u User) bool { return u.Email == email })
	if errors.Is(err, db.ErrNotFound) {
		return nil, errs.NewError(errs.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, errs.Internal(err)
	}

	if !u.ProfileComplete {
		return nil, errs.NewError(errs.ErrInvalidCredentials)
	}
	if u.PasswordHash == "" {
		return nil, errs.NewError(errs.ErrPasswordNotSet)
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return nil, errs.NewError(errs.ErrInvalidCredentials)
	}

	return &u, nil
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, *errs.CustomError) {
	u, err := s.users.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}
	if err != nil {
		return nil, errs.Internal(err)
	}
	return &u, nil
}

// UpdatePreferences replaces the subject lists of a complete profile.
// Nil lists are rejected; entries are trimmed and de-duplicated, and neither
// list may end up empty.
func (s *Service) UpdatePreferences(ctx context.Context, id string, strong, weak []string) (*User, *errs.CustomError) {
	if strong == nil || weak == nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	strong = CleanSubjects(strong)
	if len(strong) == 0 {
		return nil, errs.NewError(errs.ErrMissingSubjects, "strong")
	}
	weak = CleanSubjects(weak)
	if len(weak) == 0 {
		return nil, errs.NewError(errs.ErrMissingSubjects, "weak")
	}
	return s.update(ctx, id, func(u *User) error {
		if !u.ProfileComplete {
			return errs.NewError(errs.ErrProfileIncomplete)
		}
		u.StrongSubjects = strong
		u.WeakSubjects = weak
		return nil
	})
}

// ProfileUpdate carries optional profile edits; nil fields are left unchanged.
type ProfileUpdate struct {
	Bio            *string
	ProfilePicture *string
}

// UpdateProfile edits bio and profile picture.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*User, *errs.CustomError) {
	if in.Bio != nil && utf8.RuneCountInString(*in.Bio) > MaxBioLength {
		return nil, errs.NewError(errs.ErrInvalidProfile)
	}
	return s.update(ctx, id, func(u *User) error {
		if in.Bio != nil {
			u.Bio = strings.TrimSpace(*in.Bio)
		}
		if in.ProfilePicture != nil {
			u.ProfilePicture = strings.TrimSpace(*in.ProfilePicture)
		}
		return nil
	})
}

func (s *Service) update(ctx context.Context, id string, mutate func(*User) error) (*User, *errs.CustomError) {
	u, err := s.users.Update(ctx, id, mutate)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}
	if err != nil {
		return nil, errs.From(err)
	}
	return &u, nil
}

// CleanSubjects trims entries, drops blanks and removes case-insensitive duplicates,
// keeping the first spelling.
func CleanSubjects(subjects []string) []string {
	seen := make(map[string]bool, len(subjects))
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func localPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
