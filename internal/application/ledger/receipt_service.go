package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/opencommerce/backend/internal/domain/shared"
)

// allowed receipt content types
var receiptContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// ReceiptService manages receipt documents attached to expenses.
// Files never pass through the API server: the client uploads against a
// presigned URL and then confirms, at which point the storage key is
// recorded on the expense.
type ReceiptService struct {
	expenseRepo ledger.ExpenseRepository
	storage     ObjectStorageService
	keyPrefix   string
	urlTTL      time.Duration
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(expenseRepo ledger.ExpenseRepository, storage ObjectStorageService, keyPrefix string) *ReceiptService {
	return &ReceiptService{
		expenseRepo: expenseRepo,
		storage:     storage,
		keyPrefix:   strings.Trim(keyPrefix, "/"),
		urlTTL:      15 * time.Minute,
	}
}

// ReceiptUploadResponse carries the presigned upload URL and the storage
// key the client must confirm with.
type ReceiptUploadResponse struct {
	UploadURL  string    `json:"upload_url"`
	StorageKey string    `json:"storage_key"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ReceiptDownloadResponse carries a presigned download URL
type ReceiptDownloadResponse struct {
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// RequestReceiptUpload issues a presigned upload URL for an expense
// receipt. Only pending expenses can have their receipt changed.
func (s *ReceiptService) RequestReceiptUpload(ctx context.Context, tenantID, expenseID uuid.UUID, contentType string) (*ReceiptUploadResponse, error) {
	if !receiptContentTypes[contentType] {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE",
			fmt.Sprintf("Content type %q is not allowed for receipts", contentType))
	}

	expense, err := s.expenseRepo.FindByIDForTenant(ctx, expenseID, tenantID)
	if err != nil {
		return nil, err
	}
	if !expense.Status.CanUpdate() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot attach a receipt to an expense in %s status", expense.Status))
	}

	storageKey := s.receiptKey(tenantID, expenseID, uuid.New())
	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, storageKey, contentType, s.urlTTL)
	if err != nil {
		return nil, err
	}

	return &ReceiptUploadResponse{
		UploadURL:  uploadURL,
		StorageKey: storageKey,
		ExpiresAt:  expiresAt,
	}, nil
}

// ConfirmReceiptUpload records an uploaded receipt on the expense after
// verifying the object actually exists in storage.
func (s *ReceiptService) ConfirmReceiptUpload(ctx context.Context, tenantID, expenseID uuid.UUID, storageKey string) error {
	expectedPrefix := s.receiptKeyPrefix(tenantID, expenseID)
	if !strings.HasPrefix(storageKey, expectedPrefix) {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key does not belong to this expense")
	}

	expense, err := s.expenseRepo.FindByIDForTenant(ctx, expenseID, tenantID)
	if err != nil {
		return err
	}
	if !expense.Status.CanUpdate() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot attach a receipt to an expense in %s status", expense.Status))
	}

	exists, err := s.storage.ObjectExists(ctx, storageKey)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NewDomainError("RECEIPT_NOT_UPLOADED", "Receipt object was not found in storage")
	}

	expense.SetReceiptURL(storageKey)
	return s.expenseRepo.Update(ctx, expense)
}

// GetReceiptDownloadURL issues a presigned download URL for the receipt
// attached to an expense.
func (s *ReceiptService) GetReceiptDownloadURL(ctx context.Context, tenantID, expenseID uuid.UUID) (*ReceiptDownloadResponse, error) {
	expense, err := s.expenseRepo.FindByIDForTenant(ctx, expenseID, tenantID)
	if err != nil {
		return nil, err
	}
	if expense.ReceiptURL == "" {
		return nil, shared.NewDomainError("RECEIPT_NOT_FOUND", "Expense has no receipt attached")
	}

	downloadURL, expiresAt, err := s.storage.GenerateDownloadURL(ctx, expense.ReceiptURL, s.urlTTL)
	if err != nil {
		return nil, err
	}
	return &ReceiptDownloadResponse{
		DownloadURL: downloadURL,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *ReceiptService) receiptKey(tenantID, expenseID, fileID uuid.UUID) string {
	return s.receiptKeyPrefix(tenantID, expenseID) + fileID.String()
}

func (s *ReceiptService) receiptKeyPrefix(tenantID, expenseID uuid.UUID) string {
	if s.keyPrefix == "" {
		return fmt.Sprintf("receipts/%s/%s/", tenantID, expenseID)
	}
	return fmt.Sprintf("%s/receipts/%s/%s/", s.keyPrefix, tenantID, expenseID)
}
