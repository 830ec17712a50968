package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	ledgerapp "github.com/opencommerce/backend/internal/application/ledger"
)

// StubObjectStorage is an in-memory implementation of ObjectStorageService
// for development and tests. URLs are fabricated and keys passed to
// MarkUploaded are reported as existing, so the confirmation flow can be
// exercised without a real backend.
type StubObjectStorage struct {
	// BaseURL is the base URL for generated upload/download URLs
	BaseURL string

	mu       sync.Mutex
	uploaded map[string]bool
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL:  "https://storage.example.com",
		uploaded: make(map[string]bool),
	}
}

// Ensure StubObjectStorage implements ObjectStorageService
var _ ledgerapp.ObjectStorageService = (*StubObjectStorage)(nil)

// GenerateUploadURL fabricates an upload URL and marks the key as uploaded
func (s *StubObjectStorage) GenerateUploadURL(
	ctx context.Context,
	storageKey, contentType string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	// Nothing will actually PUT against the fabricated URL, so treat the
	// key as uploaded immediately to keep the confirmation flow usable
	s.MarkUploaded(storageKey)

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/upload/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)
	return url, expiresAt, nil
}

// GenerateDownloadURL fabricates a download URL
func (s *StubObjectStorage) GenerateDownloadURL(
	ctx context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)
	return url, expiresAt, nil
}

// DeleteObject removes the key from the uploaded set
func (s *StubObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	delete(s.uploaded, storageKey)
	s.mu.Unlock()
	return nil
}

// ObjectExists reports whether the key was handed out or marked uploaded
func (s *StubObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploaded[storageKey], nil
}

// MarkUploaded records a key as present in storage
func (s *StubObjectStorage) MarkUploaded(storageKey string) {
	s.mu.Lock()
	s.uploaded[storageKey] = true
	s.mu.Unlock()
}
