package ledger

import (
	"context"
	"time"
)

// ObjectStorageService abstracts the object store holding receipt
// documents. Implementations live in the infrastructure layer (S3 or a
// local stub); uploads happen client-side against presigned URLs.
type ObjectStorageService interface {
	// GenerateUploadURL returns a presigned URL for uploading an object
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	// GenerateDownloadURL returns a presigned URL for downloading an object
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	// DeleteObject removes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error
	// ObjectExists checks whether an object has actually been uploaded
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}
