package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/opencommerce/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// Create persists a new expense
func (r *GormExpenseRepository) Create(ctx context.Context, expense *ledger.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an expense. The UPDATE is guarded by the
// PENDING status so an edit racing a concurrent decision cannot mutate an
// already-decided row.
func (r *GormExpenseRepository) Update(ctx context.Context, expense *ledger.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	result := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Where("id = ? AND tenant_id = ? AND status = ?",
			expense.ID, expense.TenantID, ledger.ExpenseStatusPending).
		Select("category_id", "amount", "currency", "expense_date",
			"description", "employee_id", "receipt_url", "updated_at", "version").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.ExpenseModel{}).
			Where("id = ? AND tenant_id = ?", expense.ID, expense.TenantID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrInvalidState
		}
		return shared.ErrNotFound
	}
	return nil
}

// FindByIDForTenant finds an expense by ID within a tenant
func (r *GormExpenseRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*ledger.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds expenses for a tenant with filtering and pagination
func (r *GormExpenseRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.ExpenseFilter) ([]*ledger.Expense, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := r.applyFilterWithoutPagination(base.Session(&gorm.Session{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ExpenseModel
	if err := r.applyFilter(base.Session(&gorm.Session{}), filter).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	expenses := make([]*ledger.Expense, len(rows))
	for i := range rows {
		expenses[i] = rows[i].ToDomain()
	}
	return expenses, total, nil
}

// Transition moves the expense from the expected status to the target
// status in a single conditional statement, recording the deciding actor
// when provided. Returns false when no row was in the expected status.
func (r *GormExpenseRepository) Transition(ctx context.Context, id, tenantID uuid.UUID, from, to ledger.ExpenseStatus, decidedBy *uuid.UUID, decidedAt *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
		"version":    gorm.Expr("version + 1"),
	}
	if decidedBy != nil {
		updates["decided_by"] = *decidedBy
	}
	if decidedAt != nil {
		updates["decided_at"] = *decidedAt
	}

	result := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenantID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SumByCategory totals expenses per category and status over a date range.
// Either bound may be nil.
func (r *GormExpenseRepository) SumByCategory(ctx context.Context, tenantID uuid.UUID, dateFrom, dateTo *time.Time) ([]ledger.ExpenseCategoryTotal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Select("expenses.category_id AS category_id, "+
			"expense_categories.name AS category_name, "+
			"expenses.status AS status, "+
			"COUNT(*) AS count, "+
			"COALESCE(SUM(expenses.amount), 0) AS total").
		Joins("JOIN expense_categories ON expense_categories.id = expenses.category_id").
		Where("expenses.tenant_id = ?", tenantID)

	if dateFrom != nil {
		query = query.Where("expenses.expense_date >= ?", *dateFrom)
	}
	if dateTo != nil {
		query = query.Where("expenses.expense_date <= ?", *dateTo)
	}

	var totals []ledger.ExpenseCategoryTotal
	if err := query.
		Group("expenses.category_id, expense_categories.name, expenses.status").
		Order("expense_categories.name ASC, expenses.status ASC").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

// applyFilter applies filter options including pagination and ordering
func (r *GormExpenseRepository) applyFilter(query *gorm.DB, filter ledger.ExpenseFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	filter.Normalize()
	query = query.Offset(filter.Offset()).Limit(filter.PageSize)

	orderBy := ValidateSortField(filter.OrderBy, ExpenseSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormExpenseRepository) applyFilterWithoutPagination(query *gorm.DB, filter ledger.ExpenseFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(description) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.DateFrom != nil {
		query = query.Where("expense_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("expense_date <= ?", *filter.DateTo)
	}
	return query
}

// Ensure GormExpenseRepository implements ExpenseRepository
var _ ledger.ExpenseRepository = (*GormExpenseRepository)(nil)
