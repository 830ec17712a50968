package ledger

import (
	"context"

	"github.com/opencommerce/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to ledger repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and are committed or
// rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
//
// The payment engine needs this scope: recording a payment reads invoices
// under row locks, inserts the payment with its allocations, and
// conditionally marks invoices paid, all atomically.
type TransactionalRepositories interface {
	// Invoices returns the invoice repository scoped to the current transaction
	Invoices() ledger.InvoiceRepository
	// Payments returns the payment repository scoped to the current transaction
	Payments() ledger.PaymentRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing with mocked repositories.
type NoOpTransactionScope struct {
	invoiceRepo ledger.InvoiceRepository
	paymentRepo ledger.PaymentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	invoiceRepo ledger.InvoiceRepository,
	paymentRepo ledger.PaymentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Invoices returns the invoice repository.
func (s *NoOpTransactionScope) Invoices() ledger.InvoiceRepository {
	return s.invoiceRepo
}

// Payments returns the payment repository.
func (s *NoOpTransactionScope) Payments() ledger.PaymentRepository {
	return s.paymentRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
