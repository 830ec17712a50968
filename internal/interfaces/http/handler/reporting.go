package handler

import (
	"time"

	ledgerapp "github.com/opencommerce/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportingHandler handles balance and summary query endpoints
type ReportingHandler struct {
	BaseHandler
	reportingService *ledgerapp.ReportingService
}

// NewReportingHandler creates a new ReportingHandler
func NewReportingHandler(reportingService *ledgerapp.ReportingService) *ReportingHandler {
	return &ReportingHandler{
		reportingService: reportingService,
	}
}

// PartyBalance godoc
// @Summary      Get counterparty balance
// @Description  Compute a counterparty's position: total invoiced, total allocated and the outstanding remainder, with the open invoice list
// @Tags         reporting
// @Accept       json
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Success      200 {object} dto.Response{data=ledgerapp.PartyBalanceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/parties/{id}/balance [get]
func (h *ReportingHandler) PartyBalance(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	balance, err := h.reportingService.GetPartyBalance(c.Request.Context(), tenantID, partyID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, balance)
}

// OutstandingInvoices godoc
// @Summary      List outstanding invoices for a party
// @Description  List SENT invoices whose cumulative allocations have not yet reached the invoice total
// @Tags         reporting
// @Accept       json
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]ledgerapp.OutstandingInvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/parties/{id}/outstanding-invoices [get]
func (h *ReportingHandler) OutstandingInvoices(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	invoices, err := h.reportingService.ListOutstandingInvoices(c.Request.Context(), tenantID, partyID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoices)
}

// ExpenseSummary godoc
// @Summary      Summarize expenses
// @Description  Aggregate expense counts and totals per category and status over an optional date range
// @Tags         reporting
// @Accept       json
// @Produce      json
// @Param        from_date query string false "Expense date lower bound (RFC 3339)"
// @Param        to_date query string false "Expense date upper bound (RFC 3339)"
// @Success      200 {object} dto.Response{data=[]ledgerapp.ExpenseSummaryRow}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/reports/expense-summary [get]
func (h *ReportingHandler) ExpenseSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query struct {
		FromDate *time.Time `form:"from_date"`
		ToDate   *time.Time `form:"to_date"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rows, err := h.reportingService.GetExpenseSummary(c.Request.Context(), tenantID, query.FromDate, query.ToDate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rows)
}
