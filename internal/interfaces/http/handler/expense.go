package handler

import (
	ledgerapp "github.com/opencommerce/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExpenseHandler handles expense and expense category API endpoints
type ExpenseHandler struct {
	BaseHandler
	expenseService *ledgerapp.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *ledgerapp.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
	}
}

// CreateCategory godoc
// @Summary      Create an expense category
// @Description  Create a new expense category. Names are unique per tenant.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.CreateCategoryRequest true "Category creation request"
// @Success      201 {object} dto.Response{data=ledgerapp.CategoryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expense-categories [post]
func (h *ExpenseHandler) CreateCategory(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ledgerapp.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if userID, err := getUserID(c); err == nil {
		req.CreatedBy = &userID
	}

	category, err := h.expenseService.CreateCategory(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, category)
}

// ListCategories godoc
// @Summary      List expense categories
// @Description  Retrieve a paginated list of expense categories
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]ledgerapp.CategoryResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expense-categories [get]
func (h *ExpenseHandler) ListCategories(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req struct {
		Page     int `form:"page"`
		PageSize int `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.expenseService.ListCategories(c.Request.Context(), tenantID, req.Page, req.PageSize)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// DeactivateCategory godoc
// @Summary      Deactivate an expense category
// @Description  Hide a category from new expenses. Existing expenses keep their category.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Category ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expense-categories/{id} [delete]
func (h *ExpenseHandler) DeactivateCategory(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID format")
		return
	}

	if err := h.expenseService.DeactivateCategory(c.Request.Context(), tenantID, categoryID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Create godoc
// @Summary      Submit an expense
// @Description  Submit a new expense in PENDING status against an active category
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} dto.Response{data=ledgerapp.ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ledgerapp.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if userID, err := getUserID(c); err == nil {
		req.CreatedBy = &userID
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, expense)
}

// GetByID godoc
// @Summary      Get expense by ID
// @Description  Retrieve an expense by its ID
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=ledgerapp.ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expenses/{id} [get]
func (h *ExpenseHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	expense, err := h.expenseService.GetExpense(c.Request.Context(), tenantID, expenseID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, expense)
}

// List godoc
// @Summary      List expenses
// @Description  Retrieve a paginated list of expenses with optional filters
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        status query string false "Status filter (PENDING, APPROVED, REJECTED, PAID)" Enums(PENDING, APPROVED, REJECTED, PAID)
// @Param        category_id query string false "Category filter" format(uuid)
// @Param        employee_id query string false "Employee filter" format(uuid)
// @Param        from_date query string false "Expense date lower bound (RFC 3339)"
// @Param        to_date query string false "Expense date upper bound (RFC 3339)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]ledgerapp.ExpenseResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter ledgerapp.ExpenseListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.expenseService.ListExpenses(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update godoc
// @Summary      Update a pending expense
// @Description  Edit an expense that is still PENDING. Decided expenses are immutable.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body ledgerapp.UpdateExpenseRequest true "Expense update request"
// @Success      200 {object} dto.Response{data=ledgerapp.ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	var req ledgerapp.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), tenantID, expenseID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, expense)
}

// Approve godoc
// @Summary      Approve an expense
// @Description  Approve a PENDING expense, recording who decided and when
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=ledgerapp.ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expenses/{id}/approve [post]
func (h *ExpenseHandler) Approve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Approver identity required")
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	expense, err := h.expenseService.ApproveExpense(c.Request.Context(), tenantID, expenseID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, expense)
}

// Reject godoc
// @Summary      Reject an expense
// @Description  Reject a PENDING expense, recording who decided and when
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=ledgerapp.ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expenses/{id}/reject [post]
func (h *ExpenseHandler) Reject(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Approver identity required")
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	expense, err := h.expenseService.RejectExpense(c.Request.Context(), tenantID, expenseID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, expense)
}

// Pay godoc
// @Summary      Mark an expense as paid
// @Description  Transition an APPROVED expense to PAID once it has been reimbursed
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=ledgerapp.ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expenses/{id}/pay [post]
func (h *ExpenseHandler) Pay(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	expense, err := h.expenseService.PayExpense(c.Request.Context(), tenantID, expenseID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, expense)
}
