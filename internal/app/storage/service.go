/*
Package storage issues presigned URLs for chat attachments and profile pictures.

Files never pass through the server: clients upload to and download from an S3-compatible
bucket with short-lived presigned URLs.
*/
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDisabled is returned by every operation when no bucket is configured.
	ErrDisabled = errors.New("storage: not configured")

	// ErrObjectNotFound is returned when the requested key does not exist.
	ErrObjectNotFound = errors.New("storage: object not found")
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

func (c ServiceConfig) enabled() bool {
	return c.S3BucketName != "" && c.S3Endpoint != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ContentType string
	Size        int64
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// Enabled reports whether a bucket is configured.
	Enabled() bool

	// PresignUpload generates a pre-signed URL for uploading a file.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the file specified by the given key.
	Delete(ctx context.Context, key string) error

	// Stat returns the object's content type and size.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
}

// NewStorageService returns an S3 client, or a disabled service whose every
// call fails with ErrDisabled when cfg is empty.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	if !cfg.enabled() {
		return disabled{}, nil
	}
	return newS3Client(cfg)
}

type disabled struct{}

func (disabled) Enabled() bool { return false }

func (disabled) PresignUpload(context.Context, string, string, int64, time.Duration) (string, error) {
	return "", ErrDisabled
}

func (disabled) PresignDownload(context.Context, string, time.Duration) (string, error) {
	return "", ErrDisabled
}

func (disabled) Delete(context.Context, string) error { return ErrDisabled }

func (disabled) Stat(context.Context, string) (*ObjectInfo, error) { return nil, ErrDisabled }
