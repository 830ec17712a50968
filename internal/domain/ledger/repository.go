package ledger

import (
	"context"
	"time"

	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	shared.Filter
	Status      *InvoiceStatus
	InvoiceType *InvoiceType
	PartyID     *uuid.UUID
	DateFrom    *time.Time
	DateTo      *time.Time
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	shared.Filter
	PaymentType *PaymentType
	PartyID     *uuid.UUID
	DateFrom    *time.Time
	DateTo      *time.Time
}

// ExpenseFilter narrows expense listings
type ExpenseFilter struct {
	shared.Filter
	Status     *ExpenseStatus
	CategoryID *uuid.UUID
	EmployeeID *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
}

// OutstandingInvoice is a read model pairing a sent invoice with its
// cumulative allocated amount.
type OutstandingInvoice struct {
	Invoice     *Invoice
	Allocated   decimal.Decimal
	Outstanding decimal.Decimal
}

// PartyBalance is a read model summarizing one counterparty's position:
// invoiced total over SENT and PAID invoices, allocated payments against
// them, and the outstanding remainder.
type PartyBalance struct {
	PartyID     uuid.UUID
	PartyType   PartyType
	Invoiced    decimal.Decimal
	Allocated   decimal.Decimal
	Outstanding decimal.Decimal
}

// ExpenseCategoryTotal is a read model for expense reporting grouped by
// category.
type ExpenseCategoryTotal struct {
	CategoryID   uuid.UUID
	CategoryName string
	Status       ExpenseStatus
	Count        int64
	Total        decimal.Decimal
}

// InvoiceRepository persists invoices and their lines.
//
// MarkSent and MarkPaid are conditional single-statement transitions: they
// update the row only when it is still in the expected source status and
// report whether a row was actually changed, so concurrent transitions
// cannot both succeed.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error
	Update(ctx context.Context, invoice *Invoice) error
	FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*Invoice, error)
	// FindByIDForTenantLocked loads the invoice under a row lock. Must be
	// called inside a transaction.
	FindByIDForTenantLocked(ctx context.Context, id, tenantID uuid.UUID) (*Invoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]*Invoice, int64, error)
	ExistsByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error)
	// MarkSent transitions DRAFT -> SENT. Returns false when no row was in
	// DRAFT status (already transitioned or missing).
	MarkSent(ctx context.Context, id, tenantID uuid.UUID, sentAt time.Time) (bool, error)
	// MarkPaid transitions SENT -> PAID. Returns false when no row was in
	// SENT status.
	MarkPaid(ctx context.Context, id, tenantID uuid.UUID) (bool, error)
	// FindOutstandingByParty lists SENT invoices of the party with their
	// allocated and outstanding amounts.
	FindOutstandingByParty(ctx context.Context, tenantID, partyID uuid.UUID) ([]OutstandingInvoice, error)
	// SumInvoicedByParty sums TotalAmount over the party's SENT and PAID
	// invoices.
	SumInvoicedByParty(ctx context.Context, tenantID, partyID uuid.UUID) (decimal.Decimal, error)
}

// PaymentRepository persists payments and their allocations
type PaymentRepository interface {
	// Create persists the payment together with all of its allocations
	Create(ctx context.Context, payment *Payment) error
	FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*Payment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]*Payment, int64, error)
	// SumAllocatedByInvoice sums existing allocations against one invoice
	SumAllocatedByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error)
	FindAllocationsByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentAllocation, error)
	// SumAllocatedByParty sums allocations across all payments of a party
	SumAllocatedByParty(ctx context.Context, tenantID, partyID uuid.UUID) (decimal.Decimal, error)
	// GeneratePaymentNumber returns the next per-tenant payment number for
	// the current day, e.g. PAY-20260831-00001.
	GeneratePaymentNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// ExpenseRepository persists expenses.
//
// Transition is a conditional single-statement status change guarded by
// the expected source status, mirroring the invoice transitions.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) error
	Update(ctx context.Context, expense *Expense) error
	FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*Expense, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ExpenseFilter) ([]*Expense, int64, error)
	// Transition moves the expense from the expected status to the target
	// status, recording the deciding actor when provided. Returns false
	// when no row was in the expected status.
	Transition(ctx context.Context, id, tenantID uuid.UUID, from, to ExpenseStatus, decidedBy *uuid.UUID, decidedAt *time.Time) (bool, error)
	// SumByCategory totals expenses per category and status over a date
	// range. Either bound may be nil.
	SumByCategory(ctx context.Context, tenantID uuid.UUID, dateFrom, dateTo *time.Time) ([]ExpenseCategoryTotal, error)
}

// ExpenseCategoryRepository persists expense categories
type ExpenseCategoryRepository interface {
	Create(ctx context.Context, category *ExpenseCategory) error
	Update(ctx context.Context, category *ExpenseCategory) error
	FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*ExpenseCategory, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*ExpenseCategory, int64, error)
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error)
}
