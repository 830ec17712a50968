package handler

import (
	ledgerapp "github.com/opencommerce/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReceiptHandler handles expense receipt upload and download endpoints.
// Receipt bytes never pass through the API server; clients exchange them
// with object storage directly via presigned URLs.
type ReceiptHandler struct {
	BaseHandler
	receiptService *ledgerapp.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *ledgerapp.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
	}
}

// RequestUploadRequest asks for a presigned receipt upload URL
type RequestUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// ConfirmUploadRequest confirms that a receipt was uploaded to storage
type ConfirmUploadRequest struct {
	StorageKey string `json:"storage_key" binding:"required"`
}

// RequestUpload godoc
// @Summary      Request a receipt upload URL
// @Description  Issue a presigned upload URL for an expense receipt. Only PDF, PNG and JPEG receipts are accepted, and only while the expense is PENDING.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body RequestUploadRequest true "Upload request"
// @Success      200 {object} dto.Response{data=ledgerapp.ReceiptUploadResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expenses/{id}/receipt/upload-url [post]
func (h *ReceiptHandler) RequestUpload(c *gin.Context) {
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

	var req RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.receiptService.RequestReceiptUpload(c.Request.Context(), tenantID, expenseID, req.ContentType)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// ConfirmUpload godoc
// @Summary      Confirm a receipt upload
// @Description  Record the storage key on the expense after the client has uploaded the receipt. The key is verified against object storage before it is accepted.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body ConfirmUploadRequest true "Confirmation request"
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expenses/{id}/receipt/confirm [post]
func (h *ReceiptHandler) ConfirmUpload(c *gin.Context) {
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

	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.receiptService.ConfirmReceiptUpload(c.Request.Context(), tenantID, expenseID, req.StorageKey); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// DownloadURL godoc
// @Summary      Get a receipt download URL
// @Description  Issue a presigned download URL for the receipt attached to an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=ledgerapp.ReceiptDownloadResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ledger/expenses/{id}/receipt [get]
func (h *ReceiptHandler) DownloadURL(c *gin.Context) {
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

	resp, err := h.receiptService.GetReceiptDownloadURL(c.Request.Context(), tenantID, expenseID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}
