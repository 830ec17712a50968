package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/opencommerce/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExpenseCategoryRepository implements ExpenseCategoryRepository using GORM
type GormExpenseCategoryRepository struct {
	db *gorm.DB
}

// NewGormExpenseCategoryRepository creates a new GormExpenseCategoryRepository
func NewGormExpenseCategoryRepository(db *gorm.DB) *GormExpenseCategoryRepository {
	return &GormExpenseCategoryRepository{db: db}
}

// Create persists a new expense category
func (r *GormExpenseCategoryRepository) Create(ctx context.Context, category *ledger.ExpenseCategory) error {
	model := models.ExpenseCategoryModelFromDomain(category)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an expense category
func (r *GormExpenseCategoryRepository) Update(ctx context.Context, category *ledger.ExpenseCategory) error {
	model := models.ExpenseCategoryModelFromDomain(category)
	result := r.db.WithContext(ctx).
		Model(&models.ExpenseCategoryModel{}).
		Where("id = ? AND tenant_id = ?", category.ID, category.TenantID).
		Select("name", "account_id", "is_active", "updated_at", "version").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByIDForTenant finds an expense category by ID within a tenant
func (r *GormExpenseCategoryRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*ledger.ExpenseCategory, error) {
	var model models.ExpenseCategoryModel
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

// FindAllForTenant finds expense categories for a tenant with pagination
func (r *GormExpenseCategoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*ledger.ExpenseCategory, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.ExpenseCategoryModel{}).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		base = base.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	filter.Normalize()
	orderBy := ValidateSortField(filter.OrderBy, ExpenseCategorySortFields, "name")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rows []models.ExpenseCategoryModel
	if err := base.Session(&gorm.Session{}).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Order(orderBy + " " + orderDir).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	categories := make([]*ledger.ExpenseCategory, len(rows))
	for i := range rows {
		categories[i] = rows[i].ToDomain()
	}
	return categories, total, nil
}

// ExistsByName checks if a category name exists for a tenant
func (r *GormExpenseCategoryRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ExpenseCategoryModel{}).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormExpenseCategoryRepository implements ExpenseCategoryRepository
var _ ledger.ExpenseCategoryRepository = (*GormExpenseCategoryRepository)(nil)
