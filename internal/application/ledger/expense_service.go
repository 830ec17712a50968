package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/opencommerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseService provides application-level expense and category operations.
// Status decisions go through conditional single-statement transitions in
// the repository, so two approvers racing on the same expense cannot both
// succeed.
type ExpenseService struct {
	expenseRepo  ledger.ExpenseRepository
	categoryRepo ledger.ExpenseCategoryRepository
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo ledger.ExpenseRepository,
	categoryRepo ledger.ExpenseCategoryRepository,
) *ExpenseService {
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
	}
}

// ===================== Category Operations =====================

// CreateCategoryRequest represents a request to create an expense category
type CreateCategoryRequest struct {
	Name      string     `json:"name" binding:"required"`
	AccountID *uuid.UUID `json:"account_id"`
	CreatedBy *uuid.UUID `json:"-"`
}

// CategoryResponse represents an expense category in API responses
type CategoryResponse struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	Name      string     `json:"name"`
	AccountID *uuid.UUID `json:"account_id,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// CreateCategory creates an expense category
func (s *ExpenseService) CreateCategory(ctx context.Context, tenantID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error) {
	exists, err := s.categoryRepo.ExistsByName(ctx, tenantID, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Category %s already exists", req.Name))
	}

	category, err := ledger.NewExpenseCategory(tenantID, req.Name, req.AccountID)
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != nil {
		category.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return toCategoryResponse(category), nil
}

// ListCategories lists expense categories with pagination
func (s *ExpenseService) ListCategories(ctx context.Context, tenantID uuid.UUID, page, pageSize int) (*shared.Paginated[*CategoryResponse], error) {
	filter := shared.Filter{Page: page, PageSize: pageSize}
	filter.Normalize()

	categories, total, err := s.categoryRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*CategoryResponse, len(categories))
	for i, c := range categories {
		items[i] = toCategoryResponse(c)
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// DeactivateCategory hides a category from new expenses
func (s *ExpenseService) DeactivateCategory(ctx context.Context, tenantID, id uuid.UUID) error {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		return err
	}
	category.Deactivate()
	return s.categoryRepo.Update(ctx, category)
}

// ===================== Expense Operations =====================

// CreateExpenseRequest represents a request to submit an expense
type CreateExpenseRequest struct {
	CategoryID  uuid.UUID       `json:"category_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency"`
	ExpenseDate time.Time       `json:"expense_date" binding:"required"`
	Description string          `json:"description" binding:"required"`
	EmployeeID  *uuid.UUID      `json:"employee_id"`
	ReceiptURL  string          `json:"receipt_url"`
	CreatedBy   *uuid.UUID      `json:"-"`
}

// UpdateExpenseRequest represents a request to edit a pending expense
type UpdateExpenseRequest struct {
	CategoryID  uuid.UUID       `json:"category_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency"`
	ExpenseDate time.Time       `json:"expense_date" binding:"required"`
	Description string          `json:"description" binding:"required"`
	ReceiptURL  string          `json:"receipt_url"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	ExpenseDate time.Time       `json:"expense_date"`
	Description string          `json:"description"`
	EmployeeID  *uuid.UUID      `json:"employee_id,omitempty"`
	ReceiptURL  string          `json:"receipt_url,omitempty"`
	Status      string          `json:"status"`
	DecidedBy   *uuid.UUID      `json:"decided_by,omitempty"`
	DecidedAt   *time.Time      `json:"decided_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// ExpenseListFilter defines filtering options for expense list queries
type ExpenseListFilter struct {
	Status     string     `form:"status"`
	CategoryID *uuid.UUID `form:"category_id"`
	EmployeeID *uuid.UUID `form:"employee_id"`
	FromDate   *time.Time `form:"from_date"`
	ToDate     *time.Time `form:"to_date"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// CreateExpense submits a new pending expense
func (s *ExpenseService) CreateExpense(ctx context.Context, tenantID uuid.UUID, req CreateExpenseRequest) (*ExpenseResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, req.CategoryID, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("CATEGORY_NOT_FOUND",
				fmt.Sprintf("Expense category %s not found", req.CategoryID))
		}
		return nil, err
	}
	if !category.IsActive {
		return nil, shared.NewDomainError("CATEGORY_INACTIVE",
			fmt.Sprintf("Category %s is no longer active", category.Name))
	}

	currency := valueobject.Currency(req.Currency)
	if req.Currency == "" {
		currency = valueobject.DefaultCurrency
	}

	expense, err := ledger.NewExpense(tenantID, req.CategoryID, req.Amount, currency, req.ExpenseDate, req.Description)
	if err != nil {
		return nil, err
	}
	expense.SetEmployee(req.EmployeeID)
	if req.ReceiptURL != "" {
		expense.SetReceiptURL(req.ReceiptURL)
	}
	if req.CreatedBy != nil {
		expense.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, err
	}
	return toExpenseResponse(expense), nil
}

// GetExpense gets an expense by ID
func (s *ExpenseService) GetExpense(ctx context.Context, tenantID, id uuid.UUID) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(expense), nil
}

// UpdateExpense edits a pending expense
func (s *ExpenseService) UpdateExpense(ctx context.Context, tenantID, id uuid.UUID, req UpdateExpenseRequest) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	currency := valueobject.Currency(req.Currency)
	if req.Currency == "" {
		currency = expense.Currency
	}

	if err := expense.Update(req.CategoryID, req.Amount, currency, req.ExpenseDate, req.Description); err != nil {
		return nil, err
	}
	if req.ReceiptURL != "" {
		expense.SetReceiptURL(req.ReceiptURL)
	}

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, err
	}
	return toExpenseResponse(expense), nil
}

// ApproveExpense transitions PENDING -> APPROVED
func (s *ExpenseService) ApproveExpense(ctx context.Context, tenantID, id, actorID uuid.UUID) (*ExpenseResponse, error) {
	return s.decide(ctx, tenantID, id, actorID, ledger.ExpenseStatusApproved)
}

// RejectExpense transitions PENDING -> REJECTED
func (s *ExpenseService) RejectExpense(ctx context.Context, tenantID, id, actorID uuid.UUID) (*ExpenseResponse, error) {
	return s.decide(ctx, tenantID, id, actorID, ledger.ExpenseStatusRejected)
}

func (s *ExpenseService) decide(ctx context.Context, tenantID, id, actorID uuid.UUID, target ledger.ExpenseStatus) (*ExpenseResponse, error) {
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Deciding actor ID cannot be empty")
	}

	now := time.Now()
	ok, err := s.expenseRepo.Transition(ctx, id, tenantID, ledger.ExpenseStatusPending, target, &actorID, &now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(ctx, tenantID, id)
	}

	expense, err := s.expenseRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(expense), nil
}

// PayExpense transitions APPROVED -> PAID
func (s *ExpenseService) PayExpense(ctx context.Context, tenantID, id uuid.UUID) (*ExpenseResponse, error) {
	ok, err := s.expenseRepo.Transition(ctx, id, tenantID, ledger.ExpenseStatusApproved, ledger.ExpenseStatusPaid, nil, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(ctx, tenantID, id)
	}

	expense, err := s.expenseRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(expense), nil
}

// transitionConflict distinguishes a missing expense from one in the wrong
// status after a conditional transition affected no rows.
func (s *ExpenseService) transitionConflict(ctx context.Context, tenantID, id uuid.UUID) error {
	expense, err := s.expenseRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("NOT_FOUND", "Expense not found")
		}
		return err
	}
	return shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("Cannot transition expense in %s status", expense.Status))
}

// ListExpenses lists expenses with filtering and pagination
func (s *ExpenseService) ListExpenses(ctx context.Context, tenantID uuid.UUID, filter ExpenseListFilter) (*shared.Paginated[*ExpenseResponse], error) {
	repoFilter := ledger.ExpenseFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
		},
		CategoryID: filter.CategoryID,
		EmployeeID: filter.EmployeeID,
		DateFrom:   filter.FromDate,
		DateTo:     filter.ToDate,
	}
	repoFilter.Normalize()

	if filter.Status != "" {
		status := ledger.ExpenseStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown expense status %q", filter.Status))
		}
		repoFilter.Status = &status
	}

	expenses, total, err := s.expenseRepo.FindAllForTenant(ctx, tenantID, repoFilter)
	if err != nil {
		return nil, err
	}

	items := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		items[i] = toExpenseResponse(e)
	}
	result := shared.NewPaginated(items, total, repoFilter.Page, repoFilter.PageSize)
	return &result, nil
}

func toCategoryResponse(c *ledger.ExpenseCategory) *CategoryResponse {
	return &CategoryResponse{
		ID:        c.ID,
		TenantID:  c.TenantID,
		Name:      c.Name,
		AccountID: c.AccountID,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
	}
}

func toExpenseResponse(e *ledger.Expense) *ExpenseResponse {
	return &ExpenseResponse{
		ID:          e.ID,
		TenantID:    e.TenantID,
		CategoryID:  e.CategoryID,
		Amount:      e.Amount,
		Currency:    e.Currency.String(),
		ExpenseDate: e.ExpenseDate,
		Description: e.Description,
		EmployeeID:  e.EmployeeID,
		ReceiptURL:  e.ReceiptURL,
		Status:      e.Status.String(),
		DecidedBy:   e.DecidedBy,
		DecidedAt:   e.DecidedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Version:     e.Version,
	}
}
