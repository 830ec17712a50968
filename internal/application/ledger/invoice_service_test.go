package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/opencommerce/backend/internal/domain/ledger"
	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validCreateInvoiceRequest(partyID uuid.UUID) CreateInvoiceRequest {
	return CreateInvoiceRequest{
		InvoiceNumber: "INV-2026-001",
		InvoiceType:   "RECEIVABLE",
		PartyID:       partyID,
		InvoiceDate:   time.Now(),
		Lines: []InvoiceLineRequest{
			{AccountID: uuid.New(), Description: "consulting", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50), TaxRate: decimal.NewFromInt(10)},
		},
	}
}

func TestCreateInvoice(t *testing.T) {
	tenantID := uuid.New()
	partyID := uuid.New()

	repo := new(MockInvoiceRepository)
	repo.On("ExistsByInvoiceNumber", mock.Anything, tenantID, "INV-2026-001").Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Invoice")).Return(nil)

	svc := NewInvoiceService(repo)
	resp, err := svc.CreateInvoice(context.Background(), tenantID, validCreateInvoiceRequest(partyID))

	require.NoError(t, err)
	assert.Equal(t, "DRAFT", resp.Status)
	assert.Equal(t, "USD", resp.Currency) // defaulted
	assert.Equal(t, partyID, resp.PartyID)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(110)))
	assert.True(t, resp.TaxAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, resp.NetAmount.Equal(decimal.NewFromInt(100)))
	repo.AssertExpectations(t)
}

func TestCreateInvoice_DuplicateNumber(t *testing.T) {
	tenantID := uuid.New()

	repo := new(MockInvoiceRepository)
	repo.On("ExistsByInvoiceNumber", mock.Anything, tenantID, "INV-2026-001").Return(true, nil)

	svc := NewInvoiceService(repo)
	_, err := svc.CreateInvoice(context.Background(), tenantID, validCreateInvoiceRequest(uuid.New()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALREADY_EXISTS")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateInvoice_BadLineRejected(t *testing.T) {
	tenantID := uuid.New()

	repo := new(MockInvoiceRepository)
	repo.On("ExistsByInvoiceNumber", mock.Anything, tenantID, mock.Anything).Return(false, nil)

	req := validCreateInvoiceRequest(uuid.New())
	req.Lines[0].Quantity = decimal.Zero

	svc := NewInvoiceService(repo)
	_, err := svc.CreateInvoice(context.Background(), tenantID, req)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_QUANTITY")
}

func TestUpdateInvoice_ReplacesLines(t *testing.T) {
	tenantID := uuid.New()
	partyID := uuid.New()

	line, err := ledger.NewInvoiceLine(uuid.New(), "old",
		decimal.NewFromInt(1), decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	draft, err := ledger.NewInvoice(tenantID, ledger.InvoiceTypeReceivable, partyID,
		"INV-1", time.Now(), nil, "USD", []ledger.InvoiceLine{*line})
	require.NoError(t, err)

	repo := new(MockInvoiceRepository)
	repo.On("FindByIDForTenant", mock.Anything, draft.ID, tenantID).Return(draft, nil)
	repo.On("Update", mock.Anything, draft).Return(nil)

	svc := NewInvoiceService(repo)
	resp, err := svc.UpdateInvoice(context.Background(), tenantID, draft.ID, UpdateInvoiceRequest{
		InvoiceDate: time.Now(),
		Lines: []InvoiceLineRequest{
			{AccountID: uuid.New(), Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(20)},
		},
	})

	require.NoError(t, err)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(60)))
	assert.Len(t, resp.Lines, 1)
}

func TestUpdateInvoice_SentRejected(t *testing.T) {
	tenantID := uuid.New()
	inv := sentInvoice(t, tenantID, uuid.New(), ledger.InvoiceTypeReceivable, "INV-1", 50)

	repo := new(MockInvoiceRepository)
	repo.On("FindByIDForTenant", mock.Anything, inv.ID, tenantID).Return(inv, nil)

	svc := NewInvoiceService(repo)
	_, err := svc.UpdateInvoice(context.Background(), tenantID, inv.ID, UpdateInvoiceRequest{
		InvoiceDate: time.Now(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_STATE")
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestIssueInvoice(t *testing.T) {
	tenantID := uuid.New()
	inv := sentInvoice(t, tenantID, uuid.New(), ledger.InvoiceTypeReceivable, "INV-1", 50)

	repo := new(MockInvoiceRepository)
	repo.On("MarkSent", mock.Anything, inv.ID, tenantID, mock.AnythingOfType("time.Time")).Return(true, nil)
	repo.On("FindByIDForTenant", mock.Anything, inv.ID, tenantID).Return(inv, nil)

	svc := NewInvoiceService(repo)
	resp, err := svc.IssueInvoice(context.Background(), tenantID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, "SENT", resp.Status)
}

func TestIssueInvoice_NotFound(t *testing.T) {
	tenantID := uuid.New()
	id := uuid.New()

	repo := new(MockInvoiceRepository)
	repo.On("MarkSent", mock.Anything, id, tenantID, mock.AnythingOfType("time.Time")).Return(false, nil)
	repo.On("FindByIDForTenant", mock.Anything, id, tenantID).Return(nil, shared.ErrNotFound)

	svc := NewInvoiceService(repo)
	_, err := svc.IssueInvoice(context.Background(), tenantID, id)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestIssueInvoice_AlreadySent(t *testing.T) {
	tenantID := uuid.New()
	inv := sentInvoice(t, tenantID, uuid.New(), ledger.InvoiceTypeReceivable, "INV-1", 50)

	repo := new(MockInvoiceRepository)
	repo.On("MarkSent", mock.Anything, inv.ID, tenantID, mock.AnythingOfType("time.Time")).Return(false, nil)
	repo.On("FindByIDForTenant", mock.Anything, inv.ID, tenantID).Return(inv, nil)

	svc := NewInvoiceService(repo)
	_, err := svc.IssueInvoice(context.Background(), tenantID, inv.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_STATE")
}

func TestListInvoices_FilterValidation(t *testing.T) {
	svc := NewInvoiceService(new(MockInvoiceRepository))

	_, err := svc.ListInvoices(context.Background(), uuid.New(), InvoiceListFilter{Status: "OPEN"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_STATUS")

	_, err = svc.ListInvoices(context.Background(), uuid.New(), InvoiceListFilter{InvoiceType: "CREDIT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_INVOICE_TYPE")
}

func TestListInvoices(t *testing.T) {
	tenantID := uuid.New()
	inv := sentInvoice(t, tenantID, uuid.New(), ledger.InvoiceTypeReceivable, "INV-1", 50)

	repo := new(MockInvoiceRepository)
	repo.On("FindAllForTenant", mock.Anything, tenantID, mock.AnythingOfType("ledger.InvoiceFilter")).
		Return([]*ledger.Invoice{inv}, int64(1), nil)

	svc := NewInvoiceService(repo)
	result, err := svc.ListInvoices(context.Background(), tenantID, InvoiceListFilter{Status: "SENT"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "INV-1", result.Items[0].InvoiceNumber)
}
