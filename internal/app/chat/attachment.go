package chat

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/randx"
)

const (
	// MaxAttachmentSizeMB is the maximum allowed file size in megabytes.
	MaxAttachmentSizeMB = 5

	// MaxAttachmentSize is the maximum allowed file size in bytes.
	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// PresignedURLDuration is how long upload and download URLs stay valid.
	PresignedURLDuration = 5 * time.Minute

	chatKeyPrefix   = "chats/"
	avatarKeyPrefix = "avatars/"
)

// AllowedMIMETypes defines the set of permitted MIME types for uploads.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"image/gif":       {},
	"application/pdf": {},
}

// ExtToMIME maps file extensions to their corresponding MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return nil
}

// ValidateFileType checks that the MIME type is allowed and agrees with the
// file extension.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrFileTypeNotAllowed)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) < 2 {
		return errs.NewError(errs.ErrFileTypeNotAllowed)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok || expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrFileTypeNotAllowed)
	}

	return nil
}

// IsImage reports whether mimeType is an image type.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

// ChatKeyPrefix is the storage prefix of a chat's attachments.
func ChatKeyPrefix(chatID string) string {
	return chatKeyPrefix + chatID + "/"
}

// NewChatAttachmentKey returns a fresh object key for an upload to chatID.
func NewChatAttachmentKey(chatID, fileName string) string {
	return fmt.Sprintf("%s%s%s", ChatKeyPrefix(chatID), randx.ID(), strings.ToLower(filepath.Ext(fileName)))
}

// AvatarKeyPrefix is the storage prefix of a user's profile pictures.
func AvatarKeyPrefix(userID string) string {
	return avatarKeyPrefix + userID + "/"
}

// NewAvatarKey returns a fresh object key for a profile picture of userID.
func NewAvatarKey(userID, fileName string) string {
	return fmt.Sprintf("%s%s%s", AvatarKeyPrefix(userID), randx.ID(), strings.ToLower(filepath.Ext(fileName)))
}

// chatIDFromKey extracts the chat id of a chats/{chatId}/... key.
func chatIDFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, chatKeyPrefix)
	if !ok {
		return "", false
	}
	chatID, file, ok := strings.Cut(rest, "/")
	if !ok || chatID == "" || file == "" || strings.Contains(key, "..") {
		return "", false
	}
	return chatID, true
}
