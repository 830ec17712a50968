package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/opencommerce/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber string               `gorm:"type:varchar(50);not null;index"`
	InvoiceType   ledger.InvoiceType   `gorm:"type:varchar(20);not null;index"`
	PartyType     ledger.PartyType     `gorm:"type:varchar(20);not null"`
	CustomerID    *uuid.UUID           `gorm:"type:uuid;index"`
	SupplierID    *uuid.UUID           `gorm:"type:uuid;index"`
	InvoiceDate   time.Time            `gorm:"not null;index"`
	DueDate       *time.Time           `gorm:"index"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null"`
	TotalAmount   decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TaxAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	NetAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Status        ledger.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	SentAt        *time.Time
	Lines         []InvoiceLineModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *ledger.Invoice {
	inv := &ledger.Invoice{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		InvoiceNumber: m.InvoiceNumber,
		InvoiceType:   m.InvoiceType,
		PartyType:     m.PartyType,
		CustomerID:    m.CustomerID,
		SupplierID:    m.SupplierID,
		InvoiceDate:   m.InvoiceDate,
		DueDate:       m.DueDate,
		Currency:      m.Currency,
		TotalAmount:   m.TotalAmount,
		TaxAmount:     m.TaxAmount,
		NetAmount:     m.NetAmount,
		Status:        m.Status,
		SentAt:        m.SentAt,
		Lines:         make([]ledger.InvoiceLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		inv.Lines[i] = *line.ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *ledger.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.InvoiceType = inv.InvoiceType
	m.PartyType = inv.PartyType
	m.CustomerID = inv.CustomerID
	m.SupplierID = inv.SupplierID
	m.InvoiceDate = inv.InvoiceDate
	m.DueDate = inv.DueDate
	m.Currency = inv.Currency
	m.TotalAmount = inv.TotalAmount
	m.TaxAmount = inv.TaxAmount
	m.NetAmount = inv.NetAmount
	m.Status = inv.Status
	m.SentAt = inv.SentAt
	m.Lines = make([]InvoiceLineModel, len(inv.Lines))
	for i, line := range inv.Lines {
		m.Lines[i] = *InvoiceLineModelFromDomain(&line)
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *ledger.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceLineModel is the persistence model for InvoiceLine.
type InvoiceLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(500)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(9,4);not null"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain InvoiceLine.
func (m *InvoiceLineModel) ToDomain() *ledger.InvoiceLine {
	return &ledger.InvoiceLine{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		AccountID:   m.AccountID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		TaxRate:     m.TaxRate,
		TaxAmount:   m.TaxAmount,
		TotalAmount: m.TotalAmount,
	}
}

// FromDomain populates the persistence model from a domain InvoiceLine.
func (m *InvoiceLineModel) FromDomain(line *ledger.InvoiceLine) {
	m.ID = line.ID
	m.InvoiceID = line.InvoiceID
	m.AccountID = line.AccountID
	m.Description = line.Description
	m.Quantity = line.Quantity
	m.UnitPrice = line.UnitPrice
	m.TaxRate = line.TaxRate
	m.TaxAmount = line.TaxAmount
	m.TotalAmount = line.TotalAmount
}

// InvoiceLineModelFromDomain creates a new persistence model from a domain InvoiceLine.
func InvoiceLineModelFromDomain(line *ledger.InvoiceLine) *InvoiceLineModel {
	m := &InvoiceLineModel{}
	m.FromDomain(line)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	TenantAggregateModel
	PaymentNumber   string                   `gorm:"type:varchar(50);not null;index"`
	PaymentType     ledger.PaymentType       `gorm:"type:varchar(20);not null;index"`
	PartyType       ledger.PartyType         `gorm:"type:varchar(20);not null"`
	PartyID         uuid.UUID                `gorm:"type:uuid;not null;index"`
	PaymentDate     time.Time                `gorm:"not null;index"`
	Currency        valueobject.Currency     `gorm:"type:varchar(3);not null"`
	Amount          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Method          ledger.PaymentMethod     `gorm:"type:varchar(30);not null"`
	Status          ledger.PaymentStatus     `gorm:"type:varchar(20);not null;default:'CLEARED'"`
	ReferenceNumber string                   `gorm:"type:varchar(100)"`
	BankAccountID   *uuid.UUID               `gorm:"type:uuid"`
	Allocations     []PaymentAllocationModel `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *ledger.Payment {
	p := &ledger.Payment{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		PaymentNumber:   m.PaymentNumber,
		PaymentType:     m.PaymentType,
		PartyType:       m.PartyType,
		PartyID:         m.PartyID,
		PaymentDate:     m.PaymentDate,
		Currency:        m.Currency,
		Amount:          m.Amount,
		Method:          m.Method,
		Status:          m.Status,
		ReferenceNumber: m.ReferenceNumber,
		BankAccountID:   m.BankAccountID,
		Allocations:     make([]ledger.PaymentAllocation, len(m.Allocations)),
	}
	for i, alloc := range m.Allocations {
		p.Allocations[i] = *alloc.ToDomain()
	}
	return p
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *ledger.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.PaymentType = p.PaymentType
	m.PartyType = p.PartyType
	m.PartyID = p.PartyID
	m.PaymentDate = p.PaymentDate
	m.Currency = p.Currency
	m.Amount = p.Amount
	m.Method = p.Method
	m.Status = p.Status
	m.ReferenceNumber = p.ReferenceNumber
	m.BankAccountID = p.BankAccountID
	m.Allocations = make([]PaymentAllocationModel, len(p.Allocations))
	for i, alloc := range p.Allocations {
		m.Allocations[i] = *PaymentAllocationModelFromDomain(&alloc)
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentAllocationModel is the persistence model for PaymentAllocation.
// Rows are immutable once written.
type PaymentAllocationModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	PaymentID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomain converts the persistence model to a domain PaymentAllocation.
func (m *PaymentAllocationModel) ToDomain() *ledger.PaymentAllocation {
	return &ledger.PaymentAllocation{
		ID:              m.ID,
		PaymentID:       m.PaymentID,
		InvoiceID:       m.InvoiceID,
		AllocatedAmount: m.AllocatedAmount,
		CreatedAt:       m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain PaymentAllocation.
func (m *PaymentAllocationModel) FromDomain(a *ledger.PaymentAllocation) {
	m.ID = a.ID
	m.PaymentID = a.PaymentID
	m.InvoiceID = a.InvoiceID
	m.AllocatedAmount = a.AllocatedAmount
	m.CreatedAt = a.CreatedAt
}

// PaymentAllocationModelFromDomain creates a new persistence model from domain.
func PaymentAllocationModelFromDomain(a *ledger.PaymentAllocation) *PaymentAllocationModel {
	m := &PaymentAllocationModel{}
	m.FromDomain(a)
	return m
}

// ExpenseModel is the persistence model for the Expense aggregate root.
type ExpenseModel struct {
	TenantAggregateModel
	CategoryID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency    valueobject.Currency `gorm:"type:varchar(3);not null"`
	ExpenseDate time.Time            `gorm:"not null;index"`
	Description string               `gorm:"type:varchar(500);not null"`
	EmployeeID  *uuid.UUID           `gorm:"type:uuid;index"`
	ReceiptURL  string               `gorm:"type:varchar(500)"`
	Status      ledger.ExpenseStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DecidedBy   *uuid.UUID           `gorm:"type:uuid"`
	DecidedAt   *time.Time
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense entity.
func (m *ExpenseModel) ToDomain() *ledger.Expense {
	return &ledger.Expense{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		CategoryID:  m.CategoryID,
		Amount:      m.Amount,
		Currency:    m.Currency,
		ExpenseDate: m.ExpenseDate,
		Description: m.Description,
		EmployeeID:  m.EmployeeID,
		ReceiptURL:  m.ReceiptURL,
		Status:      m.Status,
		DecidedBy:   m.DecidedBy,
		DecidedAt:   m.DecidedAt,
	}
}

// FromDomain populates the persistence model from a domain Expense entity.
func (m *ExpenseModel) FromDomain(e *ledger.Expense) {
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	m.CategoryID = e.CategoryID
	m.Amount = e.Amount
	m.Currency = e.Currency
	m.ExpenseDate = e.ExpenseDate
	m.Description = e.Description
	m.EmployeeID = e.EmployeeID
	m.ReceiptURL = e.ReceiptURL
	m.Status = e.Status
	m.DecidedBy = e.DecidedBy
	m.DecidedAt = e.DecidedAt
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense.
func ExpenseModelFromDomain(e *ledger.Expense) *ExpenseModel {
	m := &ExpenseModel{}
	m.FromDomain(e)
	return m
}

// ExpenseCategoryModel is the persistence model for ExpenseCategory.
type ExpenseCategoryModel struct {
	TenantAggregateModel
	Name      string     `gorm:"type:varchar(100);not null;index"`
	AccountID *uuid.UUID `gorm:"type:uuid"`
	IsActive  bool       `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ExpenseCategoryModel) TableName() string {
	return "expense_categories"
}

// ToDomain converts the persistence model to a domain ExpenseCategory entity.
func (m *ExpenseCategoryModel) ToDomain() *ledger.ExpenseCategory {
	return &ledger.ExpenseCategory{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		Name:      m.Name,
		AccountID: m.AccountID,
		IsActive:  m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain ExpenseCategory entity.
func (m *ExpenseCategoryModel) FromDomain(c *ledger.ExpenseCategory) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Name = c.Name
	m.AccountID = c.AccountID
	m.IsActive = c.IsActive
}

// ExpenseCategoryModelFromDomain creates a new persistence model from domain.
func ExpenseCategoryModelFromDomain(c *ledger.ExpenseCategory) *ExpenseCategoryModel {
	m := &ExpenseCategoryModel{}
	m.FromDomain(c)
	return m
}
