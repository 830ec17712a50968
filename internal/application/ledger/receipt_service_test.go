package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/opencommerce/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockObjectStorage is a mock implementation of ObjectStorageService
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	args := m.Called(ctx, storageKey)
	return args.Error(0)
}

func (m *MockObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

var _ ObjectStorageService = (*MockObjectStorage)(nil)

func newReceiptExpense(t *testing.T, tenantID uuid.UUID) *ledger.Expense {
	t.Helper()
	e, err := ledger.NewExpense(tenantID, uuid.New(), decimal.NewFromInt(40),
		valueobject.USD, time.Now(), "team lunch")
	require.NoError(t, err)
	return e
}

func TestReceiptService_RequestReceiptUpload(t *testing.T) {
	expenseRepo := new(MockExpenseRepository)
	storage := new(MockObjectStorage)
	svc := NewReceiptService(expenseRepo, storage, "ledger")
	ctx := context.Background()

	tenantID := uuid.New()
	expense := newReceiptExpense(t, tenantID)
	expiresAt := time.Now().Add(15 * time.Minute)

	expenseRepo.On("FindByIDForTenant", ctx, expense.ID, tenantID).Return(expense, nil)
	storage.On("GenerateUploadURL", ctx, mock.AnythingOfType("string"), "application/pdf", 15*time.Minute).
		Return("https://storage.example.com/upload", expiresAt, nil)

	resp, err := svc.RequestReceiptUpload(ctx, tenantID, expense.ID, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example.com/upload", resp.UploadURL)
	assert.Contains(t, resp.StorageKey, "ledger/receipts/"+tenantID.String())
	assert.Equal(t, expiresAt, resp.ExpiresAt)
}

func TestReceiptService_RequestReceiptUpload_Rejections(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("disallowed content type", func(t *testing.T) {
		svc := NewReceiptService(new(MockExpenseRepository), new(MockObjectStorage), "")
		_, err := svc.RequestReceiptUpload(ctx, tenantID, uuid.New(), "application/zip")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_CONTENT_TYPE", domainErr.Code)
	})

	t.Run("approved expense cannot change receipt", func(t *testing.T) {
		expenseRepo := new(MockExpenseRepository)
		svc := NewReceiptService(expenseRepo, new(MockObjectStorage), "")

		expense := newReceiptExpense(t, tenantID)
		require.NoError(t, expense.Approve(uuid.New()))
		expenseRepo.On("FindByIDForTenant", ctx, expense.ID, tenantID).Return(expense, nil)

		_, err := svc.RequestReceiptUpload(ctx, tenantID, expense.ID, "image/png")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestReceiptService_ConfirmReceiptUpload(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("records the storage key on the expense", func(t *testing.T) {
		expenseRepo := new(MockExpenseRepository)
		storage := new(MockObjectStorage)
		svc := NewReceiptService(expenseRepo, storage, "")

		expense := newReceiptExpense(t, tenantID)
		key := "receipts/" + tenantID.String() + "/" + expense.ID.String() + "/" + uuid.NewString()

		expenseRepo.On("FindByIDForTenant", ctx, expense.ID, tenantID).Return(expense, nil)
		storage.On("ObjectExists", ctx, key).Return(true, nil)
		expenseRepo.On("Update", ctx, mock.MatchedBy(func(e *ledger.Expense) bool {
			return e.ReceiptURL == key
		})).Return(nil)

		require.NoError(t, svc.ConfirmReceiptUpload(ctx, tenantID, expense.ID, key))
		expenseRepo.AssertExpectations(t)
	})

	t.Run("rejects a key from another expense", func(t *testing.T) {
		svc := NewReceiptService(new(MockExpenseRepository), new(MockObjectStorage), "")
		err := svc.ConfirmReceiptUpload(ctx, tenantID, uuid.New(), "receipts/other/key")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STORAGE_KEY", domainErr.Code)
	})

	t.Run("rejects when nothing was uploaded", func(t *testing.T) {
		expenseRepo := new(MockExpenseRepository)
		storage := new(MockObjectStorage)
		svc := NewReceiptService(expenseRepo, storage, "")

		expense := newReceiptExpense(t, tenantID)
		key := "receipts/" + tenantID.String() + "/" + expense.ID.String() + "/" + uuid.NewString()

		expenseRepo.On("FindByIDForTenant", ctx, expense.ID, tenantID).Return(expense, nil)
		storage.On("ObjectExists", ctx, key).Return(false, nil)

		err := svc.ConfirmReceiptUpload(ctx, tenantID, expense.ID, key)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "RECEIPT_NOT_UPLOADED", domainErr.Code)
		expenseRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestReceiptService_GetReceiptDownloadURL(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("returns a presigned URL", func(t *testing.T) {
		expenseRepo := new(MockExpenseRepository)
		storage := new(MockObjectStorage)
		svc := NewReceiptService(expenseRepo, storage, "")

		expense := newReceiptExpense(t, tenantID)
		expense.SetReceiptURL("receipts/some/key")
		expiresAt := time.Now().Add(15 * time.Minute)

		expenseRepo.On("FindByIDForTenant", ctx, expense.ID, tenantID).Return(expense, nil)
		storage.On("GenerateDownloadURL", ctx, "receipts/some/key", 15*time.Minute).
			Return("https://storage.example.com/download", expiresAt, nil)

		resp, err := svc.GetReceiptDownloadURL(ctx, tenantID, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://storage.example.com/download", resp.DownloadURL)
	})

	t.Run("errors when no receipt is attached", func(t *testing.T) {
		expenseRepo := new(MockExpenseRepository)
		svc := NewReceiptService(expenseRepo, new(MockObjectStorage), "")

		expense := newReceiptExpense(t, tenantID)
		expenseRepo.On("FindByIDForTenant", ctx, expense.ID, tenantID).Return(expense, nil)

		_, err := svc.GetReceiptDownloadURL(ctx, tenantID, expense.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "RECEIPT_NOT_FOUND", domainErr.Code)
	})
}
