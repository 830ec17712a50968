package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetPartyBalance(t *testing.T) {
	tenantID := uuid.New()
	partyID := uuid.New()
	inv := sentInvoice(t, tenantID, partyID, ledger.InvoiceTypeReceivable, "INV-1", 100) // total 110

	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	expenseRepo := new(MockExpenseRepository)

	invoiceRepo.On("SumInvoicedByParty", mock.Anything, tenantID, partyID).Return(decimal.NewFromInt(110), nil)
	paymentRepo.On("SumAllocatedByParty", mock.Anything, tenantID, partyID).Return(decimal.NewFromInt(10), nil)
	invoiceRepo.On("FindOutstandingByParty", mock.Anything, tenantID, partyID).Return([]ledger.OutstandingInvoice{
		{Invoice: inv, Allocated: decimal.NewFromInt(10), Outstanding: decimal.NewFromInt(100)},
	}, nil)

	svc := NewReportingService(invoiceRepo, paymentRepo, expenseRepo)
	balance, err := svc.GetPartyBalance(context.Background(), tenantID, partyID)

	require.NoError(t, err)
	assert.True(t, balance.Invoiced.Equal(decimal.NewFromInt(110)))
	assert.True(t, balance.Allocated.Equal(decimal.NewFromInt(10)))
	assert.True(t, balance.Outstanding.Equal(decimal.NewFromInt(100)))
	require.Len(t, balance.OpenItems, 1)
	assert.Equal(t, "INV-1", balance.OpenItems[0].InvoiceNumber)
	assert.True(t, balance.OpenItems[0].Outstanding.Equal(decimal.NewFromInt(100)))
}

func TestGetPartyBalance_NoActivity(t *testing.T) {
	tenantID := uuid.New()
	partyID := uuid.New()

	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)

	invoiceRepo.On("SumInvoicedByParty", mock.Anything, tenantID, partyID).Return(decimal.Zero, nil)
	paymentRepo.On("SumAllocatedByParty", mock.Anything, tenantID, partyID).Return(decimal.Zero, nil)
	invoiceRepo.On("FindOutstandingByParty", mock.Anything, tenantID, partyID).Return([]ledger.OutstandingInvoice{}, nil)

	svc := NewReportingService(invoiceRepo, paymentRepo, new(MockExpenseRepository))
	balance, err := svc.GetPartyBalance(context.Background(), tenantID, partyID)

	require.NoError(t, err)
	assert.True(t, balance.Outstanding.IsZero())
	assert.Empty(t, balance.OpenItems)
}

func TestListOutstandingInvoices_OverdueFlag(t *testing.T) {
	tenantID := uuid.New()
	partyID := uuid.New()

	past := time.Now().Add(-24 * time.Hour)
	line, err := ledger.NewInvoiceLine(uuid.New(), "item",
		decimal.NewFromInt(1), decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	inv, err := ledger.NewInvoice(tenantID, ledger.InvoiceTypeReceivable, partyID,
		"INV-LATE", past.Add(-24*time.Hour), &past, "USD", []ledger.InvoiceLine{*line})
	require.NoError(t, err)
	require.NoError(t, inv.Issue())

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindOutstandingByParty", mock.Anything, tenantID, partyID).Return([]ledger.OutstandingInvoice{
		{Invoice: inv, Allocated: decimal.Zero, Outstanding: decimal.NewFromInt(100)},
	}, nil)

	svc := NewReportingService(invoiceRepo, new(MockPaymentRepository), new(MockExpenseRepository))
	items, err := svc.ListOutstandingInvoices(context.Background(), tenantID, partyID)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Overdue)
}

func TestGetExpenseSummary(t *testing.T) {
	tenantID := uuid.New()
	categoryID := uuid.New()

	expenseRepo := new(MockExpenseRepository)
	expenseRepo.On("SumByCategory", mock.Anything, tenantID, (*time.Time)(nil), (*time.Time)(nil)).
		Return([]ledger.ExpenseCategoryTotal{
			{CategoryID: categoryID, CategoryName: "Travel", Status: ledger.ExpenseStatusApproved, Count: 3, Total: decimal.NewFromInt(750)},
		}, nil)

	svc := NewReportingService(new(MockInvoiceRepository), new(MockPaymentRepository), expenseRepo)
	rows, err := svc.GetExpenseSummary(context.Background(), tenantID, nil, nil)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Travel", rows[0].CategoryName)
	assert.Equal(t, "APPROVED", rows[0].Status)
	assert.True(t, rows[0].Total.Equal(decimal.NewFromInt(750)))
}
