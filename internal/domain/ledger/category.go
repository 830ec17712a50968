package ledger

import (
	"time"

	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ExpenseCategory classifies expenses for reporting. The optional
// AccountID links the category to a GL account.
type ExpenseCategory struct {
	shared.TenantAggregateRoot
	Name      string     `json:"name"`
	AccountID *uuid.UUID `json:"account_id"`
	IsActive  bool       `json:"is_active"`
}

// NewExpenseCategory creates an active expense category
func NewExpenseCategory(tenantID uuid.UUID, name string, accountID *uuid.UUID) (*ExpenseCategory, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}

	return &ExpenseCategory{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		AccountID:           accountID,
		IsActive:            true,
	}, nil
}

// Rename changes the category name
func (c *ExpenseCategory) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	return nil
}

// Deactivate hides the category from new expenses without deleting it
func (c *ExpenseCategory) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now()
}
