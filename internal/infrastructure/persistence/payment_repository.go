package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/opencommerce/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create persists a new payment together with all of its allocations.
// A payment number collision surfaces as ErrAlreadyExists so the caller
// can regenerate the number and retry the transaction.
func (r *GormPaymentRepository) Create(ctx context.Context, payment *ledger.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// isUniqueViolation reports whether err is a unique index violation.
// Matches gorm's translated error plus the raw Postgres and SQLite messages.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// FindByIDForTenant finds a payment by ID within a tenant
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Preload("Allocations").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds payments for a tenant with filtering and pagination
func (r *GormPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) ([]*ledger.Payment, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := r.applyFilterWithoutPagination(base.Session(&gorm.Session{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PaymentModel
	query := r.applyFilter(base.Session(&gorm.Session{}), filter).Preload("Allocations")
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]*ledger.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].ToDomain()
	}
	return payments, total, nil
}

// SumAllocatedByInvoice sums existing allocations against one invoice
func (r *GormPaymentRepository) SumAllocatedByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentAllocationModel{}).
		Select("COALESCE(SUM(payment_allocations.allocated_amount), 0) AS total").
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Where("payments.tenant_id = ? AND payment_allocations.invoice_id = ?", tenantID, invoiceID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// FindAllocationsByInvoice lists all allocations recorded against one invoice
func (r *GormPaymentRepository) FindAllocationsByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]ledger.PaymentAllocation, error) {
	var rows []models.PaymentAllocationModel
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentAllocationModel{}).
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Where("payments.tenant_id = ? AND payment_allocations.invoice_id = ?", tenantID, invoiceID).
		Order("payment_allocations.created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	allocations := make([]ledger.PaymentAllocation, len(rows))
	for i := range rows {
		allocations[i] = *rows[i].ToDomain()
	}
	return allocations, nil
}

// SumAllocatedByParty sums allocations across all payments of a party
func (r *GormPaymentRepository) SumAllocatedByParty(ctx context.Context, tenantID, partyID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentAllocationModel{}).
		Select("COALESCE(SUM(payment_allocations.allocated_amount), 0) AS total").
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Where("payments.tenant_id = ? AND payments.party_id = ?", tenantID, partyID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// GeneratePaymentNumber generates the next per-tenant payment number for
// the current day. Format: PAY-YYYYMMDD-NNNNN (e.g. PAY-20260831-00001).
// The count is advisory only: the unique index on (tenant_id,
// payment_number) is the arbiter, and Create reports a collision as
// ErrAlreadyExists for the service to retry with a fresh number.
func (r *GormPaymentRepository) GeneratePaymentNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("PAY-%s-", time.Now().Format("20060102"))

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND payment_number LIKE ?", tenantID, prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

// applyFilter applies filter options including pagination and ordering
func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter ledger.PaymentFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	filter.Normalize()
	query = query.Offset(filter.Offset()).Limit(filter.PageSize)

	orderBy := ValidateSortField(filter.OrderBy, PaymentSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPaymentRepository) applyFilterWithoutPagination(query *gorm.DB, filter ledger.PaymentFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("(LOWER(payment_number) LIKE LOWER(?) OR LOWER(reference_number) LIKE LOWER(?))", pattern, pattern)
	}
	if filter.PaymentType != nil {
		query = query.Where("payment_type = ?", *filter.PaymentType)
	}
	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if filter.DateFrom != nil {
		query = query.Where("payment_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("payment_date <= ?", *filter.DateTo)
	}
	return query
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ ledger.PaymentRepository = (*GormPaymentRepository)(nil)
