package ledger

import (
	"testing"
	"time"

	"github.com/opencommerce/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayment(t *testing.T, amount int64) *Payment {
	t.Helper()
	p, err := NewPayment(uuid.New(), "PAY-20260831-00001", PaymentTypeReceived,
		uuid.New(), decimal.NewFromInt(amount), valueobject.USD, time.Now(), PaymentMethodBankTransfer)
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	p := newPayment(t, 110)
	assert.Equal(t, PartyTypeCustomer, p.PartyType)
	assert.Equal(t, PaymentStatusCleared, p.Status)
	assert.True(t, p.AllocatedTotal().IsZero())
	assert.True(t, p.UnallocatedAmount().Equal(decimal.NewFromInt(110)))
}

func TestNewPayment_Validation(t *testing.T) {
	tenantID := uuid.New()
	partyID := uuid.New()
	now := time.Now()

	tests := []struct {
		name   string
		create func() (*Payment, error)
	}{
		{"empty number", func() (*Payment, error) {
			return NewPayment(tenantID, "", PaymentTypeReceived, partyID, decimal.NewFromInt(10), valueobject.USD, now, PaymentMethodCash)
		}},
		{"bad type", func() (*Payment, error) {
			return NewPayment(tenantID, "PAY-1", PaymentType("REFUND"), partyID, decimal.NewFromInt(10), valueobject.USD, now, PaymentMethodCash)
		}},
		{"nil party", func() (*Payment, error) {
			return NewPayment(tenantID, "PAY-1", PaymentTypeReceived, uuid.Nil, decimal.NewFromInt(10), valueobject.USD, now, PaymentMethodCash)
		}},
		{"zero amount", func() (*Payment, error) {
			return NewPayment(tenantID, "PAY-1", PaymentTypeReceived, partyID, decimal.Zero, valueobject.USD, now, PaymentMethodCash)
		}},
		{"negative amount", func() (*Payment, error) {
			return NewPayment(tenantID, "PAY-1", PaymentTypeReceived, partyID, decimal.NewFromInt(-10), valueobject.USD, now, PaymentMethodCash)
		}},
		{"bad currency", func() (*Payment, error) {
			return NewPayment(tenantID, "PAY-1", PaymentTypeReceived, partyID, decimal.NewFromInt(10), valueobject.Currency("usd"), now, PaymentMethodCash)
		}},
		{"zero date", func() (*Payment, error) {
			return NewPayment(tenantID, "PAY-1", PaymentTypeReceived, partyID, decimal.NewFromInt(10), valueobject.USD, time.Time{}, PaymentMethodCash)
		}},
		{"bad method", func() (*Payment, error) {
			return NewPayment(tenantID, "PAY-1", PaymentTypeReceived, partyID, decimal.NewFromInt(10), valueobject.USD, now, PaymentMethod("CRYPTO"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.create()
			assert.Error(t, err)
		})
	}
}

func TestPaymentType_Mapping(t *testing.T) {
	assert.Equal(t, PartyTypeCustomer, PaymentTypeReceived.PartyType())
	assert.Equal(t, InvoiceTypeReceivable, PaymentTypeReceived.InvoiceType())
	assert.Equal(t, PartyTypeSupplier, PaymentTypeSent.PartyType())
	assert.Equal(t, InvoiceTypePayable, PaymentTypeSent.InvoiceType())
}

func TestPayment_Allocate(t *testing.T) {
	p := newPayment(t, 110)
	invA := uuid.New()
	invB := uuid.New()

	require.NoError(t, p.Allocate(invA, decimal.NewFromInt(100)))
	require.NoError(t, p.Allocate(invB, decimal.NewFromInt(10)))

	assert.Len(t, p.Allocations, 2)
	assert.True(t, p.AllocatedTotal().Equal(decimal.NewFromInt(110)))
	assert.True(t, p.UnallocatedAmount().IsZero())
	for _, a := range p.Allocations {
		assert.Equal(t, p.ID, a.PaymentID)
	}
}

func TestPayment_Allocate_ExceedsAmount(t *testing.T) {
	p := newPayment(t, 100)
	require.NoError(t, p.Allocate(uuid.New(), decimal.NewFromInt(60)))

	err := p.Allocate(uuid.New(), decimal.NewFromInt(50))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXCEEDS_PAYMENT_AMOUNT")
	assert.Len(t, p.Allocations, 1)
}

func TestPayment_Allocate_DuplicateInvoice(t *testing.T) {
	p := newPayment(t, 100)
	invID := uuid.New()
	require.NoError(t, p.Allocate(invID, decimal.NewFromInt(40)))

	err := p.Allocate(invID, decimal.NewFromInt(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DUPLICATE_ALLOCATION")
}

func TestPayment_Allocate_Validation(t *testing.T) {
	p := newPayment(t, 100)

	assert.Error(t, p.Allocate(uuid.Nil, decimal.NewFromInt(10)))
	assert.Error(t, p.Allocate(uuid.New(), decimal.Zero))
	assert.Error(t, p.Allocate(uuid.New(), decimal.NewFromInt(-5)))
}

func TestPayment_SetReference(t *testing.T) {
	p := newPayment(t, 100)
	bank := uuid.New()
	p.SetReference("WIRE-12345", &bank)
	assert.Equal(t, "WIRE-12345", p.ReferenceNumber)
	require.NotNil(t, p.BankAccountID)
	assert.Equal(t, bank, *p.BankAccountID)
}
