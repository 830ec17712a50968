package ledger

import (
	"context"
	"time"

	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceRepository is a mock implementation of ledger.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *ledger.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, invoice *ledger.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*ledger.Invoice, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForTenantLocked(ctx context.Context, id, tenantID uuid.UUID) (*ledger.Invoice, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) ([]*ledger.Invoice, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) ExistsByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) MarkSent(ctx context.Context, id, tenantID uuid.UUID, sentAt time.Time) (bool, error) {
	args := m.Called(ctx, id, tenantID, sentAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) MarkPaid(ctx context.Context, id, tenantID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, tenantID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) FindOutstandingByParty(ctx context.Context, tenantID, partyID uuid.UUID) ([]ledger.OutstandingInvoice, error) {
	args := m.Called(ctx, tenantID, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.OutstandingInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) SumInvoicedByParty(ctx context.Context, tenantID, partyID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, partyID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockPaymentRepository is a mock implementation of ledger.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *ledger.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*ledger.Payment, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) ([]*ledger.Payment, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Payment), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentRepository) SumAllocatedByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) FindAllocationsByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]ledger.PaymentAllocation, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.PaymentAllocation), args.Error(1)
}

func (m *MockPaymentRepository) SumAllocatedByParty(ctx context.Context, tenantID, partyID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, partyID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) GeneratePaymentNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockExpenseRepository is a mock implementation of ledger.ExpenseRepository
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) Create(ctx context.Context, expense *ledger.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) Update(ctx context.Context, expense *ledger.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*ledger.Expense, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.ExpenseFilter) ([]*ledger.Expense, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Expense), args.Get(1).(int64), args.Error(2)
}

func (m *MockExpenseRepository) Transition(ctx context.Context, id, tenantID uuid.UUID, from, to ledger.ExpenseStatus, decidedBy *uuid.UUID, decidedAt *time.Time) (bool, error) {
	args := m.Called(ctx, id, tenantID, from, to, decidedBy, decidedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockExpenseRepository) SumByCategory(ctx context.Context, tenantID uuid.UUID, dateFrom, dateTo *time.Time) ([]ledger.ExpenseCategoryTotal, error) {
	args := m.Called(ctx, tenantID, dateFrom, dateTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.ExpenseCategoryTotal), args.Error(1)
}

// MockExpenseCategoryRepository is a mock implementation of ledger.ExpenseCategoryRepository
type MockExpenseCategoryRepository struct {
	mock.Mock
}

func (m *MockExpenseCategoryRepository) Create(ctx context.Context, category *ledger.ExpenseCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockExpenseCategoryRepository) Update(ctx context.Context, category *ledger.ExpenseCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockExpenseCategoryRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*ledger.ExpenseCategory, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ExpenseCategory), args.Error(1)
}

func (m *MockExpenseCategoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*ledger.ExpenseCategory, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.ExpenseCategory), args.Get(1).(int64), args.Error(2)
}

func (m *MockExpenseCategoryRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, tenantID, name)
	return args.Bool(0), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Interface guards
var _ ledger.InvoiceRepository = (*MockInvoiceRepository)(nil)
var _ ledger.PaymentRepository = (*MockPaymentRepository)(nil)
var _ ledger.ExpenseRepository = (*MockExpenseRepository)(nil)
var _ ledger.ExpenseCategoryRepository = (*MockExpenseCategoryRepository)(nil)
var _ shared.IdempotencyStore = (*MockIdempotencyStore)(nil)
