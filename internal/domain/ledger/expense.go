package ledger

import (
	"fmt"
	"time"

	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/opencommerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseStatus represents the approval lifecycle of an expense:
// PENDING -> APPROVED -> PAID, or PENDING -> REJECTED (terminal).
type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "PENDING"
	ExpenseStatusApproved ExpenseStatus = "APPROVED"
	ExpenseStatusRejected ExpenseStatus = "REJECTED"
	ExpenseStatusPaid     ExpenseStatus = "PAID"
)

// IsValid checks if the status is a valid ExpenseStatus
func (s ExpenseStatus) IsValid() bool {
	switch s {
	case ExpenseStatusPending, ExpenseStatusApproved, ExpenseStatusRejected, ExpenseStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of ExpenseStatus
func (s ExpenseStatus) String() string {
	return string(s)
}

// CanUpdate returns true if the expense fields may still be edited
func (s ExpenseStatus) CanUpdate() bool {
	return s == ExpenseStatusPending
}

// CanDecide returns true if the expense can be approved or rejected
func (s ExpenseStatus) CanDecide() bool {
	return s == ExpenseStatusPending
}

// CanPay returns true if the expense can be marked as paid
func (s ExpenseStatus) CanPay() bool {
	return s == ExpenseStatusApproved
}

// IsTerminal returns true if no further transitions are allowed
func (s ExpenseStatus) IsTerminal() bool {
	return s == ExpenseStatusRejected || s == ExpenseStatusPaid
}

// Expense is an aggregate root for an operational expense going through
// the approval workflow. Approval metadata records who decided and when,
// for both approvals and rejections.
type Expense struct {
	shared.TenantAggregateRoot
	CategoryID  uuid.UUID            `json:"category_id"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    valueobject.Currency `json:"currency"`
	ExpenseDate time.Time            `json:"expense_date"`
	Description string               `json:"description"`
	EmployeeID  *uuid.UUID           `json:"employee_id"`
	ReceiptURL  string               `json:"receipt_url"`
	Status      ExpenseStatus        `json:"status"`
	DecidedBy   *uuid.UUID           `json:"decided_by"`
	DecidedAt   *time.Time           `json:"decided_at"`
}

// NewExpense creates a pending expense
func NewExpense(
	tenantID uuid.UUID,
	categoryID uuid.UUID,
	amount decimal.Decimal,
	currency valueobject.Currency,
	expenseDate time.Time,
	description string,
) (*Expense, error) {
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Expense category ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Currency %q is not a valid ISO 4217 code", currency))
	}
	if expenseDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_EXPENSE_DATE", "Expense date is required")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Expense description cannot be empty")
	}

	return &Expense{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CategoryID:          categoryID,
		Amount:              amount,
		Currency:            currency,
		ExpenseDate:         expenseDate,
		Description:         description,
		Status:              ExpenseStatusPending,
	}, nil
}

// SetEmployee attaches the submitting employee
func (e *Expense) SetEmployee(employeeID *uuid.UUID) {
	e.EmployeeID = employeeID
}

// SetReceiptURL attaches a stored receipt document
func (e *Expense) SetReceiptURL(url string) {
	e.ReceiptURL = url
	e.UpdatedAt = time.Now()
}

// Update edits the expense fields. Only pending expenses can be updated.
func (e *Expense) Update(
	categoryID uuid.UUID,
	amount decimal.Decimal,
	currency valueobject.Currency,
	expenseDate time.Time,
	description string,
) error {
	if !e.Status.CanUpdate() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot update expense in %s status", e.Status))
	}
	if categoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Expense category ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if !currency.IsValid() {
		return shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Currency %q is not a valid ISO 4217 code", currency))
	}
	if expenseDate.IsZero() {
		return shared.NewDomainError("INVALID_EXPENSE_DATE", "Expense date is required")
	}
	if description == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Expense description cannot be empty")
	}

	e.CategoryID = categoryID
	e.Amount = amount
	e.Currency = currency
	e.ExpenseDate = expenseDate
	e.Description = description
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	return nil
}

// Approve transitions PENDING -> APPROVED, recording the approver
func (e *Expense) Approve(actorID uuid.UUID) error {
	return e.decide(ExpenseStatusApproved, actorID)
}

// Reject transitions PENDING -> REJECTED, recording the rejecter.
// Rejected is a terminal state.
func (e *Expense) Reject(actorID uuid.UUID) error {
	return e.decide(ExpenseStatusRejected, actorID)
}

func (e *Expense) decide(target ExpenseStatus, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return shared.NewDomainError("INVALID_ACTOR", "Deciding actor ID cannot be empty")
	}
	if !e.Status.CanDecide() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot decide expense in %s status", e.Status))
	}
	now := time.Now()
	e.Status = target
	e.DecidedBy = &actorID
	e.DecidedAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()
	return nil
}

// MarkPaid transitions APPROVED -> PAID
func (e *Expense) MarkPaid() error {
	if !e.Status.CanPay() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay expense in %s status", e.Status))
	}
	e.Status = ExpenseStatusPaid
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	return nil
}

// GetAmountMoney returns the expense amount as Money
func (e *Expense) GetAmountMoney() valueobject.Money {
	return valueobject.MustMoney(e.Amount, e.Currency)
}
