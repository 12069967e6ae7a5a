package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"studyhive/internal/app/chat"
	"studyhive/internal/app/storage"
	"studyhive/internal/app/studyjam"
	"studyhive/internal/app/user"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/logx"
	"studyhive/internal/pkg/req"
	"studyhive/internal/pkg/resp"
)

type UpdateProfileInput struct {
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profilePicture"`
}

// HandleUpdateProfile edits the bio and profile picture of the signed-in user.
// A profile picture is either an http(s) URL or an object key from the avatar
// presign endpoint; a replaced avatar object is deleted.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := CurrentUser(r)

		var input UpdateProfileInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.ProfilePicture != nil {
			picture := strings.TrimSpace(*input.ProfilePicture)
			if cErr := checkAvatar(r.Context(), deps, current.ID, picture); cErr != nil {
				resp.RespondError(w, r, cErr)
				return
			}
		}

		updated, cErr := deps.Users.UpdateProfile(r.Context(), current.ID, user.ProfileUpdate{
			Bio:            input.Bio,
			ProfilePicture: input.ProfilePicture,
		})
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		oldKey := current.ProfilePicture
		if oldKey != updated.ProfilePicture && strings.HasPrefix(oldKey, chat.AvatarKeyPrefix(current.ID)) {
			go func(k string) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := deps.StorageService.Delete(ctx, k); err != nil && !errors.Is(err, storage.ErrDisabled) {
					logx.Warn("update_profile: failed to delete old avatar", "key", k, "error", err.Error())
				}
			}(oldKey)
		}

		resp.RespondSuccess(w, r, map[string]any{"user": updated.Profile()})
	}
}

func checkAvatar(ctx context.Context, deps *AppDeps, userID, picture string) *errs.CustomError {
	if picture == "" || strings.HasPrefix(picture, "https://") || strings.HasPrefix(picture, "http://") {
		return nil
	}
	if !strings.HasPrefix(picture, chat.AvatarKeyPrefix(userID)) || strings.Contains(picture, "..") {
		return errs.NewError(errs.ErrInvalidProfile)
	}

	info, err := deps.StorageService.Stat(ctx, picture)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		return errs.NewError(errs.ErrFileStorageDisabled)
	case errors.Is(err, storage.ErrObjectNotFound):
		return errs.NewError(errs.ErrInvalidProfile)
	case err != nil:
		return errs.NewError(errs.ErrFileStorageFailed)
	}
	if !chat.IsImage(info.ContentType) {
		return errs.NewError(errs.ErrFileTypeNotAllowed)
	}
	return nil
}

type PresignAvatarInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignAvatar issues an upload URL for a new profile picture.
func HandlePresignAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := CurrentUser(r)

		var input PresignAvatarInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := chat.ValidateFileSize(input.FileSize); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := chat.ValidateFileType(input.FileName, input.MimeType); err != nil {
			resp.RespondError(w, r, err)
			return
		}
		if !chat.IsImage(input.MimeType) {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileTypeNotAllowed))
			return
		}

		fileKey := chat.NewAvatarKey(current.ID, input.FileName)
		url, err := deps.StorageService.PresignUpload(r.Context(), fileKey, input.MimeType, input.FileSize, chat.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, storageError(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
		})
	}
}

// HandleGetUser returns the public profile of a user.
func HandleGetUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, cErr := deps.Users.Get(r.Context(), chi.URLParam(r, "id"))
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, u.Profile())
	}
}

// HandleGetActivity returns the study jam heatmap of a user.
func HandleGetActivity(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, cErr := req.QueryInt(r, "days", studyjam.DefaultActivityDays)
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		id := chi.URLParam(r, "id")
		if _, cErr := deps.Users.Get(r.Context(), id); cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		activity, cErr := deps.StudyJams.Activity(r.Context(), id, days)
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, activity)
	}
}

// HandleListGoals returns the signed-in user's study goals.
func HandleListGoals(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		goals, cErr := deps.Users.Goals(r.Context(), CurrentUser(r).ID)
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, goals)
	}
}

type CreateGoalInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TargetHours *float64 `json:"targetHours"`
	TargetDate  string   `json:"targetDate"`
}

func HandleCreateGoal(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CreateGoalInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		goal, cErr := deps.Users.AddGoal(r.Context(), CurrentUser(r).ID, user.GoalInput{
			Title:       input.Title,
			Description: input.Description,
			TargetHours: input.TargetHours,
			TargetDate:  input.TargetDate,
		})
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondCreated(w, r, goal)
	}
}

type UpdateGoalInput struct {
	GoalID  string          `json:"goalId"`
	Updates user.GoalUpdate `json:"updates"`
}

func HandleUpdateGoal(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input UpdateGoalInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.GoalID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingFields))
			return
		}

		goal, cErr := deps.Users.UpdateGoal(r.Context(), CurrentUser(r).ID, input.GoalID, input.Updates)
		if cErr != nil {
			resp.RespondError(w, r, cErr)
			return
		}

		resp.RespondSuccess(w, r, goal)
	}
}

func storageError(err error) *errs.CustomError {
	if errors.Is(err, storage.ErrDisabled) {
		return errs.NewError(errs.ErrFileStorageDisabled)
	}
	return errs.NewError(errs.ErrFileStorageFailed)
}
