package ledger

import (
	"context"
	"time"

	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportingService provides read-only balance and summary queries over the
// ledger. All figures are computed from committed rows; nothing here
// mutates state.
type ReportingService struct {
	invoiceRepo ledger.InvoiceRepository
	paymentRepo ledger.PaymentRepository
	expenseRepo ledger.ExpenseRepository
}

// NewReportingService creates a new ReportingService
func NewReportingService(
	invoiceRepo ledger.InvoiceRepository,
	paymentRepo ledger.PaymentRepository,
	expenseRepo ledger.ExpenseRepository,
) *ReportingService {
	return &ReportingService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		expenseRepo: expenseRepo,
	}
}

// OutstandingInvoiceResponse is one open invoice with its allocation state
type OutstandingInvoiceResponse struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceType   string          `json:"invoice_type"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Currency      string          `json:"currency"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Allocated     decimal.Decimal `json:"allocated"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Overdue       bool            `json:"overdue"`
}

// PartyBalanceResponse summarizes one counterparty's position
type PartyBalanceResponse struct {
	PartyID     uuid.UUID                    `json:"party_id"`
	Invoiced    decimal.Decimal              `json:"invoiced"`
	Allocated   decimal.Decimal              `json:"allocated"`
	Outstanding decimal.Decimal              `json:"outstanding"`
	OpenItems   []OutstandingInvoiceResponse `json:"open_items"`
}

// ExpenseSummaryRow is one category/status bucket in the expense summary
type ExpenseSummaryRow struct {
	CategoryID   uuid.UUID       `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Status       string          `json:"status"`
	Count        int64           `json:"count"`
	Total        decimal.Decimal `json:"total"`
}

// GetPartyBalance computes a counterparty's balance: total invoiced over
// SENT and PAID invoices minus payments allocated against them, plus the
// list of still-open invoices.
func (s *ReportingService) GetPartyBalance(ctx context.Context, tenantID, partyID uuid.UUID) (*PartyBalanceResponse, error) {
	invoiced, err := s.invoiceRepo.SumInvoicedByParty(ctx, tenantID, partyID)
	if err != nil {
		return nil, err
	}
	allocated, err := s.paymentRepo.SumAllocatedByParty(ctx, tenantID, partyID)
	if err != nil {
		return nil, err
	}
	open, err := s.invoiceRepo.FindOutstandingByParty(ctx, tenantID, partyID)
	if err != nil {
		return nil, err
	}

	return &PartyBalanceResponse{
		PartyID:     partyID,
		Invoiced:    invoiced,
		Allocated:   allocated,
		Outstanding: invoiced.Sub(allocated),
		OpenItems:   toOutstandingResponses(open),
	}, nil
}

// ListOutstandingInvoices lists a party's SENT invoices with allocation state
func (s *ReportingService) ListOutstandingInvoices(ctx context.Context, tenantID, partyID uuid.UUID) ([]OutstandingInvoiceResponse, error) {
	open, err := s.invoiceRepo.FindOutstandingByParty(ctx, tenantID, partyID)
	if err != nil {
		return nil, err
	}
	return toOutstandingResponses(open), nil
}

// GetExpenseSummary totals expenses per category and status over an
// optional date range
func (s *ReportingService) GetExpenseSummary(ctx context.Context, tenantID uuid.UUID, dateFrom, dateTo *time.Time) ([]ExpenseSummaryRow, error) {
	totals, err := s.expenseRepo.SumByCategory(ctx, tenantID, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	rows := make([]ExpenseSummaryRow, len(totals))
	for i, t := range totals {
		rows[i] = ExpenseSummaryRow{
			CategoryID:   t.CategoryID,
			CategoryName: t.CategoryName,
			Status:       t.Status.String(),
			Count:        t.Count,
			Total:        t.Total,
		}
	}
	return rows, nil
}

func toOutstandingResponses(open []ledger.OutstandingInvoice) []OutstandingInvoiceResponse {
	now := time.Now()
	items := make([]OutstandingInvoiceResponse, len(open))
	for i, o := range open {
		items[i] = OutstandingInvoiceResponse{
			InvoiceID:     o.Invoice.ID,
			InvoiceNumber: o.Invoice.InvoiceNumber,
			InvoiceType:   o.Invoice.InvoiceType.String(),
			InvoiceDate:   o.Invoice.InvoiceDate,
			DueDate:       o.Invoice.DueDate,
			Currency:      o.Invoice.Currency.String(),
			TotalAmount:   o.Invoice.TotalAmount,
			Allocated:     o.Allocated,
			Outstanding:   o.Outstanding,
			Overdue:       o.Invoice.DueDate != nil && o.Invoice.DueDate.Before(now),
		}
	}
	return items
}
