package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a meter is required but not provided.
var ErrMeterNil = errors.New("meter is required")

// LedgerMetrics tracks invoice, payment, and expense activity.
type LedgerMetrics struct {
	meter metric.Meter

	invoiceIssuedTotal    metric.Int64Counter
	invoiceAmountTotal    metric.Float64Counter
	paymentRecordedTotal  metric.Int64Counter
	paymentAmountTotal    metric.Float64Counter
	expenseDecisionsTotal metric.Int64Counter
}

// NewLedgerMetrics creates a LedgerMetrics instance registering its
// instruments on the given meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	lm := &LedgerMetrics{meter: meter}

	var err error
	lm.invoiceIssuedTotal, err = meter.Int64Counter(
		"ledger_invoice_issued_total",
		metric.WithDescription("Total number of invoices issued"),
		metric.WithUnit("{invoices}"),
	)
	if err != nil {
		return nil, err
	}

	lm.invoiceAmountTotal, err = meter.Float64Counter(
		"ledger_invoice_amount_total",
		metric.WithDescription("Total invoiced amount"),
		metric.WithUnit("{currency_units}"),
	)
	if err != nil {
		return nil, err
	}

	lm.paymentRecordedTotal, err = meter.Int64Counter(
		"ledger_payment_recorded_total",
		metric.WithDescription("Total number of payments recorded"),
		metric.WithUnit("{payments}"),
	)
	if err != nil {
		return nil, err
	}

	lm.paymentAmountTotal, err = meter.Float64Counter(
		"ledger_payment_amount_total",
		metric.WithDescription("Total payment amount"),
		metric.WithUnit("{currency_units}"),
	)
	if err != nil {
		return nil, err
	}

	lm.expenseDecisionsTotal, err = meter.Int64Counter(
		"ledger_expense_decisions_total",
		metric.WithDescription("Total number of expense approval decisions"),
		metric.WithUnit("{decisions}"),
	)
	if err != nil {
		return nil, err
	}

	return lm, nil
}

// RecordInvoiceIssued records an invoice moving to SENT.
func (lm *LedgerMetrics) RecordInvoiceIssued(ctx context.Context, invoiceType string, amount decimal.Decimal, currency string) {
	attrs := metric.WithAttributes(
		attribute.String("invoice_type", invoiceType),
		attribute.String("currency", currency),
	)
	lm.invoiceIssuedTotal.Add(ctx, 1, attrs)
	lm.invoiceAmountTotal.Add(ctx, amount.InexactFloat64(), attrs)
}

// RecordPayment records a payment being accepted.
func (lm *LedgerMetrics) RecordPayment(ctx context.Context, paymentType string, amount decimal.Decimal, currency string) {
	attrs := metric.WithAttributes(
		attribute.String("payment_type", paymentType),
		attribute.String("currency", currency),
	)
	lm.paymentRecordedTotal.Add(ctx, 1, attrs)
	lm.paymentAmountTotal.Add(ctx, amount.InexactFloat64(), attrs)
}

// RecordExpenseDecision records an approve or reject decision.
func (lm *LedgerMetrics) RecordExpenseDecision(ctx context.Context, decision string) {
	lm.expenseDecisionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", decision),
	))
}
