package ledger

import (
	"fmt"
	"time"

	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/opencommerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes receivable documents (a customer owes the
// tenant) from payable documents (the tenant owes a supplier).
type InvoiceType string

const (
	InvoiceTypeReceivable InvoiceType = "RECEIVABLE"
	InvoiceTypePayable    InvoiceType = "PAYABLE"
)

// IsValid checks if the invoice type is valid
func (t InvoiceType) IsValid() bool {
	return t == InvoiceTypeReceivable || t == InvoiceTypePayable
}

// String returns the string representation of InvoiceType
func (t InvoiceType) String() string {
	return string(t)
}

// PartyType returns the counterparty type implied by the invoice type
func (t InvoiceType) PartyType() PartyType {
	if t == InvoiceTypeReceivable {
		return PartyTypeCustomer
	}
	return PartyTypeSupplier
}

// PartyType identifies the kind of counterparty on a document
type PartyType string

const (
	PartyTypeCustomer PartyType = "CUSTOMER"
	PartyTypeSupplier PartyType = "SUPPLIER"
)

// IsValid checks if the party type is valid
func (t PartyType) IsValid() bool {
	return t == PartyTypeCustomer || t == PartyTypeSupplier
}

// String returns the string representation of PartyType
func (t PartyType) String() string {
	return string(t)
}

// InvoiceStatus represents the lifecycle state of an invoice.
// DRAFT and SENT are explicit stored states; PAID is derived state written
// by the payment engine when cumulative allocations reach the total.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	InvoiceStatusSent  InvoiceStatus = "SENT"
	InvoiceStatusPaid  InvoiceStatus = "PAID"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanModify returns true if the invoice header and lines may still change
func (s InvoiceStatus) CanModify() bool {
	return s == InvoiceStatusDraft
}

// CanIssue returns true if the invoice can transition to SENT
func (s InvoiceStatus) CanIssue() bool {
	return s == InvoiceStatusDraft
}

// CanAllocate returns true if payments can be allocated against the invoice
func (s InvoiceStatus) CanAllocate() bool {
	return s == InvoiceStatusSent
}

var oneHundred = decimal.NewFromInt(100)

// InvoiceLine is one priced item on an invoice. Lines are owned child rows
// of their invoice and are always replaced as a whole set, never patched
// individually, so the header totals can never drift from the line set.
type InvoiceLine struct {
	ID          uuid.UUID       `json:"id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	AccountID   uuid.UUID       `json:"account_id"` // GL account, opaque reference
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"` // percentage, e.g. 10 for 10%
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewInvoiceLine creates a priced invoice line, deriving tax and total:
// tax = quantity * unitPrice * taxRate/100, total = quantity * unitPrice + tax.
func NewInvoiceLine(accountID uuid.UUID, description string, quantity, unitPrice, taxRate decimal.Decimal) (*InvoiceLine, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Line account ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", "Line unit price cannot be negative")
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Line tax rate cannot be negative")
	}

	lineTotal := quantity.Mul(unitPrice)
	tax := lineTotal.Mul(taxRate).Div(oneHundred)

	return &InvoiceLine{
		ID:          uuid.New(),
		AccountID:   accountID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TaxRate:     taxRate,
		TaxAmount:   tax,
		TotalAmount: lineTotal.Add(tax),
	}, nil
}

// Invoice is an aggregate root representing a receivable or payable
// document. Header totals are always derived from the current line set at
// create/update time and are never mutated independently.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string               `json:"invoice_number"` // caller-supplied, tenant-unique
	InvoiceType   InvoiceType          `json:"invoice_type"`
	PartyType     PartyType            `json:"party_type"`
	CustomerID    *uuid.UUID           `json:"customer_id"`
	SupplierID    *uuid.UUID           `json:"supplier_id"`
	InvoiceDate   time.Time            `json:"invoice_date"`
	DueDate       *time.Time           `json:"due_date"`
	Currency      valueobject.Currency `json:"currency"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	TaxAmount     decimal.Decimal      `json:"tax_amount"`
	NetAmount     decimal.Decimal      `json:"net_amount"` // totalAmount - taxAmount
	Status        InvoiceStatus        `json:"status"`
	SentAt        *time.Time           `json:"sent_at"`
	Lines         []InvoiceLine        `json:"lines"`
}

// NewInvoice creates a draft invoice from a header and a set of lines.
// An empty line set is allowed (zero-value invoice).
func NewInvoice(
	tenantID uuid.UUID,
	invoiceType InvoiceType,
	partyID uuid.UUID,
	invoiceNumber string,
	invoiceDate time.Time,
	dueDate *time.Time,
	currency valueobject.Currency,
	lines []InvoiceLine,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if !invoiceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", "Invoice type is not valid")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Counterparty ID cannot be empty")
	}
	if invoiceDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INVOICE_DATE", "Invoice date is required")
	}
	if dueDate != nil && dueDate.Before(invoiceDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before invoice date")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Currency %q is not a valid ISO 4217 code", currency))
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		InvoiceType:         invoiceType,
		PartyType:           invoiceType.PartyType(),
		InvoiceDate:         invoiceDate,
		DueDate:             dueDate,
		Currency:            currency,
		Status:              InvoiceStatusDraft,
	}
	if invoiceType == InvoiceTypeReceivable {
		inv.CustomerID = &partyID
	} else {
		inv.SupplierID = &partyID
	}
	inv.setLines(lines)

	return inv, nil
}

// PartyID returns the counterparty ID (customer or supplier)
func (inv *Invoice) PartyID() uuid.UUID {
	if inv.CustomerID != nil {
		return *inv.CustomerID
	}
	if inv.SupplierID != nil {
		return *inv.SupplierID
	}
	return uuid.Nil
}

// UpdateHeader updates the mutable header fields. Only draft invoices can
// be modified.
func (inv *Invoice) UpdateHeader(invoiceDate time.Time, dueDate *time.Time, currency valueobject.Currency) error {
	if !inv.Status.CanModify() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot update invoice in %s status", inv.Status))
	}
	if invoiceDate.IsZero() {
		return shared.NewDomainError("INVALID_INVOICE_DATE", "Invoice date is required")
	}
	if dueDate != nil && dueDate.Before(invoiceDate) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before invoice date")
	}
	if !currency.IsValid() {
		return shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Currency %q is not a valid ISO 4217 code", currency))
	}

	inv.InvoiceDate = invoiceDate
	inv.DueDate = dueDate
	inv.Currency = currency
	inv.UpdatedAt = time.Now()
	return nil
}

// ReplaceLines replaces the entire line set and recomputes the header
// totals. Only draft invoices can be modified.
func (inv *Invoice) ReplaceLines(lines []InvoiceLine) error {
	if !inv.Status.CanModify() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot replace lines of invoice in %s status", inv.Status))
	}
	inv.setLines(lines)
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// setLines attaches the lines to this invoice and recomputes totals
func (inv *Invoice) setLines(lines []InvoiceLine) {
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
		lines[i].InvoiceID = inv.ID
	}
	inv.Lines = lines

	total := decimal.Zero
	tax := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.TotalAmount)
		tax = tax.Add(line.TaxAmount)
	}
	inv.TotalAmount = total
	inv.TaxAmount = tax
	inv.NetAmount = total.Sub(tax)
}

// Issue transitions the invoice from DRAFT to SENT, stamping the sent time
func (inv *Invoice) Issue() error {
	if !inv.Status.CanIssue() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot issue invoice in %s status", inv.Status))
	}
	now := time.Now()
	inv.Status = InvoiceStatusSent
	inv.SentAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()
	return nil
}

// MarkPaid transitions the invoice from SENT to PAID. This is derived
// state written by the payment engine when allocations reach the total.
func (inv *Invoice) MarkPaid() error {
	if inv.Status != InvoiceStatusSent {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark invoice in %s status as paid", inv.Status))
	}
	inv.Status = InvoiceStatusPaid
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// GetTotalAmountMoney returns the total amount as Money
func (inv *Invoice) GetTotalAmountMoney() valueobject.Money {
	return valueobject.MustMoney(inv.TotalAmount, inv.Currency)
}

// IsDraft returns true if the invoice is in draft status
func (inv *Invoice) IsDraft() bool {
	return inv.Status == InvoiceStatusDraft
}

// IsSent returns true if the invoice has been issued
func (inv *Invoice) IsSent() bool {
	return inv.Status == InvoiceStatusSent
}

// IsPaid returns true if the invoice is fully paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}
