package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/opencommerce/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create persists a new invoice together with its lines
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *ledger.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists header changes and replaces the line set. The UPDATE is
// guarded by the DRAFT status so a concurrent issue transition cannot be
// overwritten with stale data; lifecycle fields are never written here.
func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *ledger.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND tenant_id = ? AND status = ?",
				invoice.ID, invoice.TenantID, ledger.InvoiceStatusDraft).
			Select("invoice_date", "due_date", "currency",
				"total_amount", "tax_amount", "net_amount",
				"updated_at", "version").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.InvoiceModel{}).
				Where("id = ? AND tenant_id = ?", invoice.ID, invoice.TenantID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return shared.ErrInvalidState
			}
			return shared.ErrNotFound
		}

		lineIDs := make([]uuid.UUID, len(model.Lines))
		for i, line := range model.Lines {
			lineIDs[i] = line.ID
		}
		deleteQuery := tx.Where("invoice_id = ?", invoice.ID)
		if len(lineIDs) > 0 {
			deleteQuery = deleteQuery.Where("id NOT IN ?", lineIDs)
		}
		if err := deleteQuery.Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}

		for i := range model.Lines {
			model.Lines[i].InvoiceID = invoice.ID
			if err := tx.Save(&model.Lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByIDForTenant finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*ledger.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenantLocked finds an invoice by ID under a row lock.
// Must be called inside a transaction. The lock is only taken on Postgres;
// SQLite serializes writers at the database level.
func (r *GormInvoiceRepository) FindByIDForTenantLocked(ctx context.Context, id, tenantID uuid.UUID) (*ledger.Invoice, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model models.InvoiceModel
	if err := query.
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	// Preload cannot be combined with FOR UPDATE on the parent row,
	// so lines are fetched separately.
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", id).
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds invoices for a tenant with filtering and pagination
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) ([]*ledger.Invoice, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := r.applyFilterWithoutPagination(base.Session(&gorm.Session{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoiceModel
	query := r.applyFilter(base.Session(&gorm.Session{}), filter).Preload("Lines")
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]*ledger.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices, total, nil
}

// ExistsByInvoiceNumber checks if an invoice number exists for a tenant
func (r *GormInvoiceRepository) ExistsByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkSent transitions the invoice from DRAFT to SENT in a single
// conditional statement. Returns false when no row was in DRAFT status.
func (r *GormInvoiceRepository) MarkSent(ctx context.Context, id, tenantID uuid.UUID, sentAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenantID, ledger.InvoiceStatusDraft).
		Updates(map[string]interface{}{
			"status":     ledger.InvoiceStatusSent,
			"sent_at":    sentAt,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkPaid transitions the invoice from SENT to PAID in a single
// conditional statement. Returns false when no row was in SENT status.
func (r *GormInvoiceRepository) MarkPaid(ctx context.Context, id, tenantID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenantID, ledger.InvoiceStatusSent).
		Updates(map[string]interface{}{
			"status":     ledger.InvoiceStatusPaid,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindOutstandingByParty lists SENT invoices of a party with their
// cumulative allocated amounts and the outstanding remainder.
func (r *GormInvoiceRepository) FindOutstandingByParty(ctx context.Context, tenantID, partyID uuid.UUID) ([]ledger.OutstandingInvoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND status = ? AND (customer_id = ? OR supplier_id = ?)",
			tenantID, ledger.InvoiceStatusSent, partyID, partyID).
		Order("invoice_date ASC, invoice_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []ledger.OutstandingInvoice{}, nil
	}

	invoiceIDs := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		invoiceIDs[i] = row.ID
	}

	type allocationSum struct {
		InvoiceID uuid.UUID
		Total     decimal.Decimal
	}
	var sums []allocationSum
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentAllocationModel{}).
		Select("payment_allocations.invoice_id AS invoice_id, COALESCE(SUM(payment_allocations.allocated_amount), 0) AS total").
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Where("payments.tenant_id = ? AND payment_allocations.invoice_id IN ?", tenantID, invoiceIDs).
		Group("payment_allocations.invoice_id").
		Scan(&sums).Error; err != nil {
		return nil, err
	}

	allocated := make(map[uuid.UUID]decimal.Decimal, len(sums))
	for _, s := range sums {
		allocated[s.InvoiceID] = s.Total
	}

	result := make([]ledger.OutstandingInvoice, len(rows))
	for i := range rows {
		inv := rows[i].ToDomain()
		alloc := allocated[inv.ID]
		result[i] = ledger.OutstandingInvoice{
			Invoice:     inv,
			Allocated:   alloc,
			Outstanding: inv.TotalAmount.Sub(alloc),
		}
	}
	return result, nil
}

// SumInvoicedByParty sums total amounts over the party's SENT and PAID invoices
func (r *GormInvoiceRepository) SumInvoicedByParty(ctx context.Context, tenantID, partyID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("tenant_id = ? AND status IN ? AND (customer_id = ? OR supplier_id = ?)",
			tenantID, []ledger.InvoiceStatus{ledger.InvoiceStatusSent, ledger.InvoiceStatusPaid},
			partyID, partyID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// applyFilter applies filter options including pagination and ordering
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter ledger.InvoiceFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	filter.Normalize()
	query = query.Offset(filter.Offset()).Limit(filter.PageSize)

	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter ledger.InvoiceFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(invoice_number) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.InvoiceType != nil {
		query = query.Where("invoice_type = ?", *filter.InvoiceType)
	}
	if filter.PartyID != nil {
		query = query.Where("(customer_id = ? OR supplier_id = ?)", *filter.PartyID, *filter.PartyID)
	}
	if filter.DateFrom != nil {
		query = query.Where("invoice_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("invoice_date <= ?", *filter.DateTo)
	}
	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ ledger.InvoiceRepository = (*GormInvoiceRepository)(nil)
