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
	"go.uber.org/zap"
)

// PaymentService records payments and allocates them against invoices.
// Recording runs inside a transaction scope: each referenced invoice is
// loaded under a row lock, allocation ceilings are checked against the
// committed allocation sums, and invoices whose allocations reach the
// total are flipped to PAID in the same transaction.
type PaymentService struct {
	txScope     TransactionScope
	paymentRepo ledger.PaymentRepository
	idemStore   shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService. The idempotency store is
// optional; pass nil to disable duplicate-request detection.
func NewPaymentService(
	txScope TransactionScope,
	paymentRepo ledger.PaymentRepository,
	idemStore shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		txScope:     txScope,
		paymentRepo: paymentRepo,
		idemStore:   idemStore,
		idemConfig:  idemConfig,
		logger:      logger,
	}
}

// AllocationRequest ties part of the payment amount to one invoice
type AllocationRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// RecordPaymentRequest represents a request to record a payment with its
// allocations. Allocations may be empty; the unallocated remainder stays
// on the payment as a credit.
type RecordPaymentRequest struct {
	PaymentType     string              `json:"payment_type" binding:"required"`
	PartyID         uuid.UUID           `json:"party_id" binding:"required"`
	Amount          decimal.Decimal     `json:"amount" binding:"required"`
	Currency        string              `json:"currency"`
	PaymentDate     time.Time           `json:"payment_date" binding:"required"`
	Method          string              `json:"method" binding:"required"`
	ReferenceNumber string              `json:"reference_number"`
	BankAccountID   *uuid.UUID          `json:"bank_account_id"`
	Allocations     []AllocationRequest `json:"allocations"`
	IdempotencyKey  string              `json:"-"` // Set from the Idempotency-Key header
	CreatedBy       *uuid.UUID          `json:"-"` // Set from JWT context
}

// AllocationResponse represents a payment allocation in API responses
type AllocationResponse struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                uuid.UUID            `json:"id"`
	TenantID          uuid.UUID            `json:"tenant_id"`
	PaymentNumber     string               `json:"payment_number"`
	PaymentType       string               `json:"payment_type"`
	PartyType         string               `json:"party_type"`
	PartyID           uuid.UUID            `json:"party_id"`
	PaymentDate       time.Time            `json:"payment_date"`
	Currency          string               `json:"currency"`
	Amount            decimal.Decimal      `json:"amount"`
	AllocatedAmount   decimal.Decimal      `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal      `json:"unallocated_amount"`
	Method            string               `json:"method"`
	Status            string               `json:"status"`
	ReferenceNumber   string               `json:"reference_number,omitempty"`
	BankAccountID     *uuid.UUID           `json:"bank_account_id,omitempty"`
	Allocations       []AllocationResponse `json:"allocations"`
	CreatedAt         time.Time            `json:"created_at"`
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	PaymentType string     `form:"payment_type"`
	PartyID     *uuid.UUID `form:"party_id"`
	FromDate    *time.Time `form:"from_date"`
	ToDate      *time.Time `form:"to_date"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size"`
}

// RecordPayment records a payment and applies its allocations atomically.
// Every allocation must target a SENT invoice of the matching type, party
// and currency, and may not push the invoice's cumulative allocations past
// its total or the payment's allocations past the payment amount.
func (s *PaymentService) RecordPayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	if req.IdempotencyKey != "" && s.idemStore != nil && s.idemConfig.Enabled {
		seen, err := s.idemStore.IsProcessed(ctx, idempotencyKey(tenantID, req.IdempotencyKey))
		if err != nil {
			return nil, err
		}
		if seen {
			return nil, shared.NewDomainError("DUPLICATE_REQUEST",
				fmt.Sprintf("Payment with idempotency key %s was already processed", req.IdempotencyKey))
		}
	}

	currency := valueobject.Currency(req.Currency)
	if req.Currency == "" {
		currency = valueobject.DefaultCurrency
	}

	var payment *ledger.Payment
	var err error
	// Two concurrent requests can draw the same payment number; the unique
	// index rejects the loser and the whole transaction is retried with a
	// freshly generated number.
	for attempt := 1; attempt <= paymentNumberAttempts; attempt++ {
		err = s.recordPaymentTx(ctx, tenantID, req, currency, &payment)
		if err == nil || !errors.Is(err, shared.ErrAlreadyExists) {
			break
		}
		s.logger.Warn("payment number collision, retrying",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("CONCURRENCY_CONFLICT",
				"Could not assign a unique payment number, please retry")
		}
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idemStore != nil && s.idemConfig.Enabled {
		// Mark after commit: a rolled-back request must stay retryable.
		// If marking fails the payment is still recorded, so only log.
		if _, err := s.idemStore.MarkProcessed(ctx, idempotencyKey(tenantID, req.IdempotencyKey), s.idemConfig.TTL); err != nil {
			s.logger.Warn("failed to mark payment idempotency key",
				zap.String("payment_number", payment.PaymentNumber),
				zap.Error(err))
		}
	}

	s.logger.Info("payment recorded",
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("tenant_id", tenantID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.Int("allocations", len(payment.Allocations)))

	return toPaymentResponse(payment), nil
}

// paymentNumberAttempts bounds how often a payment transaction is retried
// after losing a payment number race.
const paymentNumberAttempts = 3

// recordPaymentTx runs one attempt at recording the payment inside a
// transaction. On success the created payment is written to out.
func (s *PaymentService) recordPaymentTx(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest, currency valueobject.Currency, out **ledger.Payment) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		paymentNumber, err := repos.Payments().GeneratePaymentNumber(ctx, tenantID)
		if err != nil {
			return err
		}

		payment, err := ledger.NewPayment(
			tenantID,
			paymentNumber,
			ledger.PaymentType(req.PaymentType),
			req.PartyID,
			req.Amount,
			currency,
			req.PaymentDate,
			ledger.PaymentMethod(req.Method),
		)
		if err != nil {
			return err
		}
		if req.ReferenceNumber != "" || req.BankAccountID != nil {
			payment.SetReference(req.ReferenceNumber, req.BankAccountID)
		}
		if req.CreatedBy != nil {
			payment.SetCreatedBy(*req.CreatedBy)
		}

		for _, alloc := range req.Allocations {
			if err := s.applyAllocation(ctx, repos, payment, alloc); err != nil {
				return err
			}
		}

		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}
		*out = payment
		return nil
	})
}

// applyAllocation validates one allocation against its invoice inside the
// transaction and flips the invoice to PAID when it becomes fully covered.
func (s *PaymentService) applyAllocation(ctx context.Context, repos TransactionalRepositories, payment *ledger.Payment, alloc AllocationRequest) error {
	invoice, err := repos.Invoices().FindByIDForTenantLocked(ctx, alloc.InvoiceID, payment.TenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVOICE_NOT_FOUND",
				fmt.Sprintf("Invoice %s not found", alloc.InvoiceID))
		}
		return err
	}

	if !invoice.Status.CanAllocate() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot allocate against invoice %s in %s status", invoice.InvoiceNumber, invoice.Status))
	}
	if invoice.InvoiceType != payment.PaymentType.InvoiceType() {
		return shared.NewDomainError("ALLOCATION_TYPE_MISMATCH",
			fmt.Sprintf("A %s payment cannot settle a %s invoice", payment.PaymentType, invoice.InvoiceType))
	}
	if invoice.PartyID() != payment.PartyID {
		return shared.NewDomainError("PARTY_MISMATCH",
			fmt.Sprintf("Invoice %s belongs to a different counterparty", invoice.InvoiceNumber))
	}
	if invoice.Currency != payment.Currency {
		return shared.NewDomainError("CURRENCY_MISMATCH",
			fmt.Sprintf("Invoice %s is in %s but the payment is in %s", invoice.InvoiceNumber, invoice.Currency, payment.Currency))
	}

	existing, err := repos.Payments().SumAllocatedByInvoice(ctx, payment.TenantID, invoice.ID)
	if err != nil {
		return err
	}
	remaining := invoice.TotalAmount.Sub(existing)
	if alloc.Amount.GreaterThan(remaining) {
		return shared.NewDomainError("EXCEEDS_INVOICE_TOTAL",
			fmt.Sprintf("Allocation of %s exceeds the outstanding %s on invoice %s",
				alloc.Amount, remaining, invoice.InvoiceNumber))
	}

	if err := payment.Allocate(invoice.ID, alloc.Amount); err != nil {
		return err
	}

	if existing.Add(alloc.Amount).GreaterThanOrEqual(invoice.TotalAmount) {
		ok, err := repos.Invoices().MarkPaid(ctx, invoice.ID, payment.TenantID)
		if err != nil {
			return err
		}
		if !ok {
			// The row lock should make this impossible
			return shared.NewDomainError("CONCURRENCY_CONFLICT",
				fmt.Sprintf("Invoice %s changed status during allocation", invoice.InvoiceNumber))
		}
	}
	return nil
}

// GetPayment gets a payment with its allocations by ID
func (s *PaymentService) GetPayment(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(payment), nil
}

// ListPayments lists payments with filtering and pagination
func (s *PaymentService) ListPayments(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) (*shared.Paginated[*PaymentResponse], error) {
	repoFilter := ledger.PaymentFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
		},
		PartyID:  filter.PartyID,
		DateFrom: filter.FromDate,
		DateTo:   filter.ToDate,
	}
	repoFilter.Normalize()

	if filter.PaymentType != "" {
		paymentType := ledger.PaymentType(filter.PaymentType)
		if !paymentType.IsValid() {
			return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", fmt.Sprintf("Unknown payment type %q", filter.PaymentType))
		}
		repoFilter.PaymentType = &paymentType
	}

	payments, total, err := s.paymentRepo.FindAllForTenant(ctx, tenantID, repoFilter)
	if err != nil {
		return nil, err
	}

	items := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		items[i] = toPaymentResponse(p)
	}
	result := shared.NewPaginated(items, total, repoFilter.Page, repoFilter.PageSize)
	return &result, nil
}

func idempotencyKey(tenantID uuid.UUID, key string) string {
	return fmt.Sprintf("payment:%s:%s", tenantID, key)
}

func toPaymentResponse(p *ledger.Payment) *PaymentResponse {
	allocations := make([]AllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocations[i] = AllocationResponse{
			ID:              a.ID,
			InvoiceID:       a.InvoiceID,
			AllocatedAmount: a.AllocatedAmount,
			CreatedAt:       a.CreatedAt,
		}
	}
	return &PaymentResponse{
		ID:                p.ID,
		TenantID:          p.TenantID,
		PaymentNumber:     p.PaymentNumber,
		PaymentType:       p.PaymentType.String(),
		PartyType:         p.PartyType.String(),
		PartyID:           p.PartyID,
		PaymentDate:       p.PaymentDate,
		Currency:          p.Currency.String(),
		Amount:            p.Amount,
		AllocatedAmount:   p.AllocatedTotal(),
		UnallocatedAmount: p.UnallocatedAmount(),
		Method:            p.Method.String(),
		Status:            p.Status.String(),
		ReferenceNumber:   p.ReferenceNumber,
		BankAccountID:     p.BankAccountID,
		Allocations:       allocations,
		CreatedAt:         p.CreatedAt,
	}
}
