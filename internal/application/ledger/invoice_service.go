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

// InvoiceService provides application-level invoice operations
type InvoiceService struct {
	invoiceRepo ledger.InvoiceRepository
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo ledger.InvoiceRepository) *InvoiceService {
	return &InvoiceService{invoiceRepo: invoiceRepo}
}

// InvoiceLineRequest represents one line in a create or update request
type InvoiceLineRequest struct {
	AccountID   uuid.UUID       `json:"account_id" binding:"required"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CreateInvoiceRequest represents a request to create a draft invoice
type CreateInvoiceRequest struct {
	InvoiceNumber string               `json:"invoice_number" binding:"required"`
	InvoiceType   string               `json:"invoice_type" binding:"required"`
	PartyID       uuid.UUID            `json:"party_id" binding:"required"`
	InvoiceDate   time.Time            `json:"invoice_date" binding:"required"`
	DueDate       *time.Time           `json:"due_date"`
	Currency      string               `json:"currency"`
	Lines         []InvoiceLineRequest `json:"lines"`
	CreatedBy     *uuid.UUID           `json:"-"` // Set from JWT context, not from request body
}

// UpdateInvoiceRequest represents a request to update a draft invoice.
// The line set is replaced as a whole.
type UpdateInvoiceRequest struct {
	InvoiceDate time.Time            `json:"invoice_date" binding:"required"`
	DueDate     *time.Time           `json:"due_date"`
	Currency    string               `json:"currency"`
	Lines       []InvoiceLineRequest `json:"lines"`
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   uuid.UUID       `json:"account_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	TenantID      uuid.UUID             `json:"tenant_id"`
	InvoiceNumber string                `json:"invoice_number"`
	InvoiceType   string                `json:"invoice_type"`
	PartyType     string                `json:"party_type"`
	PartyID       uuid.UUID             `json:"party_id"`
	InvoiceDate   time.Time             `json:"invoice_date"`
	DueDate       *time.Time            `json:"due_date,omitempty"`
	Currency      string                `json:"currency"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	TaxAmount     decimal.Decimal       `json:"tax_amount"`
	NetAmount     decimal.Decimal       `json:"net_amount"`
	Status        string                `json:"status"`
	SentAt        *time.Time            `json:"sent_at,omitempty"`
	Lines         []InvoiceLineResponse `json:"lines"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Status      string     `form:"status"`
	InvoiceType string     `form:"invoice_type"`
	PartyID     *uuid.UUID `form:"party_id"`
	FromDate    *time.Time `form:"from_date"`
	ToDate      *time.Time `form:"to_date"`
	Search      string     `form:"search"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size"`
}

// CreateInvoice creates a draft invoice with its lines
func (s *InvoiceService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	exists, err := s.invoiceRepo.ExistsByInvoiceNumber(ctx, tenantID, req.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Invoice number %s is already in use", req.InvoiceNumber))
	}

	lines, err := buildLines(req.Lines)
	if err != nil {
		return nil, err
	}

	currency := valueobject.Currency(req.Currency)
	if req.Currency == "" {
		currency = valueobject.DefaultCurrency
	}

	invoice, err := ledger.NewInvoice(
		tenantID,
		ledger.InvoiceType(req.InvoiceType),
		req.PartyID,
		req.InvoiceNumber,
		req.InvoiceDate,
		req.DueDate,
		currency,
		lines,
	)
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != nil {
		invoice.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// GetInvoice gets an invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// UpdateInvoice updates the header and replaces the lines of a draft invoice
func (s *InvoiceService) UpdateInvoice(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	currency := valueobject.Currency(req.Currency)
	if req.Currency == "" {
		currency = invoice.Currency
	}

	if err := invoice.UpdateHeader(req.InvoiceDate, req.DueDate, currency); err != nil {
		return nil, err
	}

	lines, err := buildLines(req.Lines)
	if err != nil {
		return nil, err
	}
	if err := invoice.ReplaceLines(lines); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// IssueInvoice transitions a draft invoice to SENT. The transition is a
// conditional update guarded by the DRAFT status, so two concurrent issue
// requests cannot both succeed.
func (s *InvoiceService) IssueInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	ok, err := s.invoiceRepo.MarkSent(ctx, id, tenantID, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		// Distinguish a missing invoice from one already past DRAFT
		invoice, findErr := s.invoiceRepo.FindByIDForTenant(ctx, id, tenantID)
		if findErr != nil {
			if errors.Is(findErr, shared.ErrNotFound) {
				return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
			}
			return nil, findErr
		}
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot issue invoice in %s status", invoice.Status))
	}

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// ListInvoices lists invoices with filtering and pagination
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) (*shared.Paginated[*InvoiceResponse], error) {
	repoFilter := ledger.InvoiceFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		PartyID:  filter.PartyID,
		DateFrom: filter.FromDate,
		DateTo:   filter.ToDate,
	}
	repoFilter.Normalize()

	if filter.Status != "" {
		status := ledger.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown invoice status %q", filter.Status))
		}
		repoFilter.Status = &status
	}
	if filter.InvoiceType != "" {
		invoiceType := ledger.InvoiceType(filter.InvoiceType)
		if !invoiceType.IsValid() {
			return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", fmt.Sprintf("Unknown invoice type %q", filter.InvoiceType))
		}
		repoFilter.InvoiceType = &invoiceType
	}

	invoices, total, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, repoFilter)
	if err != nil {
		return nil, err
	}

	items := make([]*InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		items[i] = toInvoiceResponse(inv)
	}
	result := shared.NewPaginated(items, total, repoFilter.Page, repoFilter.PageSize)
	return &result, nil
}

func buildLines(reqs []InvoiceLineRequest) ([]ledger.InvoiceLine, error) {
	lines := make([]ledger.InvoiceLine, 0, len(reqs))
	for i, lr := range reqs {
		line, err := ledger.NewInvoiceLine(lr.AccountID, lr.Description, lr.Quantity, lr.UnitPrice, lr.TaxRate)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, *line)
	}
	return lines, nil
}

func toInvoiceResponse(inv *ledger.Invoice) *InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineResponse{
			ID:          l.ID,
			AccountID:   l.AccountID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			TaxAmount:   l.TaxAmount,
			TotalAmount: l.TotalAmount,
		}
	}
	return &InvoiceResponse{
		ID:            inv.ID,
		TenantID:      inv.TenantID,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceType:   inv.InvoiceType.String(),
		PartyType:     inv.PartyType.String(),
		PartyID:       inv.PartyID(),
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		Currency:      inv.Currency.String(),
		TotalAmount:   inv.TotalAmount,
		TaxAmount:     inv.TaxAmount,
		NetAmount:     inv.NetAmount,
		Status:        inv.Status.String(),
		SentAt:        inv.SentAt,
		Lines:         lines,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
}
