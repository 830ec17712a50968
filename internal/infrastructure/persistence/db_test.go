package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/opencommerce/backend/internal/domain/shared/valueobject"
	"github.com/opencommerce/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupLedgerTestDB opens an in-memory SQLite database with the ledger schema
func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	migrateLedgerSchema(t, db)
	return db
}

// migrateLedgerSchema applies the model schema plus the composite unique
// indexes the SQL migrations declare, so number collisions fail here the
// same way they do in production.
func migrateLedgerSchema(t *testing.T, db *gorm.DB) {
	t.Helper()

	err := db.AutoMigrate(
		&models.InvoiceModel{},
		&models.InvoiceLineModel{},
		&models.PaymentModel{},
		&models.PaymentAllocationModel{},
		&models.ExpenseModel{},
		&models.ExpenseCategoryModel{},
	)
	require.NoError(t, err)

	for _, stmt := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_invoice_tenant_number ON invoices (tenant_id, invoice_number)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_tenant_number ON payments (tenant_id, payment_number)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_expense_category_tenant_name ON expense_categories (tenant_id, name)",
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
}

// newTestInvoice creates a draft invoice with a single line:
// quantity 1 at the given price with 10% tax.
func newTestInvoice(t *testing.T, tenantID, partyID uuid.UUID, invoiceType ledger.InvoiceType, number string, price int64) *ledger.Invoice {
	t.Helper()

	line, err := ledger.NewInvoiceLine(uuid.New(), "services",
		decimal.NewFromInt(1), decimal.NewFromInt(price), decimal.NewFromInt(10))
	require.NoError(t, err)

	inv, err := ledger.NewInvoice(tenantID, invoiceType, partyID, number,
		time.Now(), nil, valueobject.USD, []ledger.InvoiceLine{*line})
	require.NoError(t, err)
	return inv
}

// newTestPayment creates a payment of the given amount with no allocations
func newTestPayment(t *testing.T, tenantID, partyID uuid.UUID, paymentType ledger.PaymentType, number string, amount int64) *ledger.Payment {
	t.Helper()

	p, err := ledger.NewPayment(tenantID, number, paymentType, partyID,
		decimal.NewFromInt(amount), valueobject.USD, time.Now(), ledger.PaymentMethodBankTransfer)
	require.NoError(t, err)
	return p
}

// newTestExpense creates a pending expense against the given category
func newTestExpense(t *testing.T, tenantID, categoryID uuid.UUID, amount int64, expenseDate time.Time) *ledger.Expense {
	t.Helper()

	e, err := ledger.NewExpense(tenantID, categoryID, decimal.NewFromInt(amount),
		valueobject.USD, expenseDate, "test expense")
	require.NoError(t, err)
	return e
}

// newTestCategory creates an active expense category
func newTestCategory(t *testing.T, tenantID uuid.UUID, name string) *ledger.ExpenseCategory {
	t.Helper()

	c, err := ledger.NewExpenseCategory(tenantID, name, nil)
	require.NoError(t, err)
	return c
}
