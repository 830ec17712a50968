package ledger

import (
	"fmt"
	"time"

	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/opencommerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType is the direction of the money movement: RECEIVED from a
// customer or SENT to a supplier.
type PaymentType string

const (
	PaymentTypeReceived PaymentType = "RECEIVED"
	PaymentTypeSent     PaymentType = "SENT"
)

// IsValid checks if the payment type is valid
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeReceived || t == PaymentTypeSent
}

// String returns the string representation of PaymentType
func (t PaymentType) String() string {
	return string(t)
}

// PartyType returns the counterparty type implied by the payment direction
func (t PaymentType) PartyType() PartyType {
	if t == PaymentTypeReceived {
		return PartyTypeCustomer
	}
	return PartyTypeSupplier
}

// InvoiceType returns the invoice type a payment of this direction can be
// allocated against. Received payments settle receivables, sent payments
// settle payables.
func (t PaymentType) InvoiceType() InvoiceType {
	if t == PaymentTypeReceived {
		return InvoiceTypeReceivable
	}
	return InvoiceTypePayable
}

// PaymentStatus is the settlement state of a payment. Payments record
// money that has already moved, so they are CLEARED from creation.
type PaymentStatus string

const (
	PaymentStatusCleared PaymentStatus = "CLEARED"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusCleared
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentMethod is the settlement channel of a payment
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodOnline       PaymentMethod = "ONLINE"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCheck, PaymentMethodCash, PaymentMethodCard, PaymentMethodOnline:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// PaymentAllocation ties part of a payment's amount to one invoice.
// Allocations are immutable once written.
type PaymentAllocation struct {
	ID              uuid.UUID       `json:"id"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Payment is an aggregate root recording an inbound or outbound money
// movement together with its allocations against invoices. The sum of
// allocated amounts can never exceed the payment amount; the remainder is
// an unallocated credit.
type Payment struct {
	shared.TenantAggregateRoot
	PaymentNumber   string               `json:"payment_number"` // system-generated, e.g. PAY-20260831-00001
	PaymentType     PaymentType          `json:"payment_type"`
	PartyType       PartyType            `json:"party_type"`
	PartyID         uuid.UUID            `json:"party_id"`
	PaymentDate     time.Time            `json:"payment_date"`
	Currency        valueobject.Currency `json:"currency"`
	Amount          decimal.Decimal      `json:"amount"`
	Method          PaymentMethod        `json:"method"`
	Status          PaymentStatus        `json:"status"`
	ReferenceNumber string               `json:"reference_number"`
	BankAccountID   *uuid.UUID           `json:"bank_account_id"`
	Allocations     []PaymentAllocation  `json:"allocations"`
}

// NewPayment creates a payment with no allocations yet
func NewPayment(
	tenantID uuid.UUID,
	paymentNumber string,
	paymentType PaymentType,
	partyID uuid.UUID,
	amount decimal.Decimal,
	currency valueobject.Currency,
	paymentDate time.Time,
	method PaymentMethod,
) (*Payment, error) {
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if !paymentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", "Payment type is not valid")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Counterparty ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Currency %q is not a valid ISO 4217 code", currency))
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Payment method %q is not valid", method))
	}

	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       paymentNumber,
		PaymentType:         paymentType,
		PartyType:           paymentType.PartyType(),
		PartyID:             partyID,
		PaymentDate:         paymentDate,
		Currency:            currency,
		Amount:              amount,
		Method:              method,
		Status:              PaymentStatusCleared,
	}, nil
}

// SetReference attaches an external reference and optional bank account
func (p *Payment) SetReference(referenceNumber string, bankAccountID *uuid.UUID) {
	p.ReferenceNumber = referenceNumber
	p.BankAccountID = bankAccountID
	p.UpdatedAt = time.Now()
}

// Allocate adds an allocation of part of this payment to an invoice.
// Rejects duplicate invoices within the payment and any allocation that
// would push the allocated total above the payment amount.
func (p *Payment) Allocate(invoiceID uuid.UUID, amount decimal.Decimal) error {
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Allocation invoice ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	for _, a := range p.Allocations {
		if a.InvoiceID == invoiceID {
			return shared.NewDomainError("DUPLICATE_ALLOCATION", "Payment already has an allocation for this invoice")
		}
	}
	if p.AllocatedTotal().Add(amount).GreaterThan(p.Amount) {
		return shared.NewDomainError("EXCEEDS_PAYMENT_AMOUNT", "Allocations cannot exceed the payment amount")
	}

	p.Allocations = append(p.Allocations, PaymentAllocation{
		ID:              uuid.New(),
		PaymentID:       p.ID,
		InvoiceID:       invoiceID,
		AllocatedAmount: amount,
		CreatedAt:       time.Now(),
	})
	return nil
}

// AllocatedTotal returns the sum of all allocation amounts
func (p *Payment) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.AllocatedAmount)
	}
	return total
}

// UnallocatedAmount returns the credit not yet applied to any invoice
func (p *Payment) UnallocatedAmount() decimal.Decimal {
	return p.Amount.Sub(p.AllocatedTotal())
}
