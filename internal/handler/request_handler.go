package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/workflow"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RequestHandler struct {
	requestService  service.RequestService
	quoteService    service.QuoteService
	approvalService service.ApprovalService
	invoiceService  service.InvoiceService
}

func NewRequestHandler(requestService service.RequestService, quoteService service.QuoteService, approvalService service.ApprovalService, invoiceService service.InvoiceService) *RequestHandler {
	return &RequestHandler{
		requestService:  requestService,
		quoteService:    quoteService,
		approvalService: approvalService,
		invoiceService:  invoiceService,
	}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/purchase-requests")
	requests.Use(middleware.RequireAuth())
	{
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.POST("", h.CreateRequest)
		requests.PUT("/:id/items", h.UpdateItems)
		requests.PATCH("/:id/status", h.UpdateStatus)
		requests.PATCH("/:id/analytical-code", h.UpdateAnalyticalCode)
		requests.POST("/:id/quotes", h.CreateQuote)
		requests.POST("/:id/publish-quotes", h.PublishQuotes)
		requests.POST("/:id/select-quote", h.SelectQuote)
		requests.POST("/:id/finalize", h.Finalize)
		requests.POST("/:id/invoice", h.UploadInvoice)
		requests.POST("/:id/confirm-payment", h.ConfirmPayment)
	}

	quotes := router.Group("/api/quotes")
	quotes.Use(middleware.RequireAuth())
	{
		quotes.DELETE("/:id", h.DeleteQuote)
	}
}

// fail maps service errors onto HTTP statuses: workflow guard refusals are
// 403, missing rows are 404, everything else is a client error.
func fail(c *gin.Context, err error) {
	var guardErr *workflow.GuardError
	switch {
	case errors.As(err, &guardErr):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, guardErr.Error()))
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}

func actorOrAbort(c *gin.Context) (workflow.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
	}
	return actor, ok
}

// ListRequests returns a paginated summary list of purchase requests
// @Summary      List purchase requests
// @Description  Retrieves a paginated list of purchase requests, filterable by status, stage or ownership
// @Tags         purchase-requests
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (PENDING, PROCESSING, APPROVED, REJECTED)"
// @Param        stage   query     string  false  "Filter by stage (NEED, SOURCING, VALIDATION, PENDING_PAYMENT, INVOICED)"
// @Param        mine    query     bool    false  "Only the caller's own requests"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.ListData}
// @Failure      500     {object}  response.Response
// @Router       /api/purchase-requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	filter := service.RequestListFilter{
		Status: c.Query("status"),
		Stage:  c.Query("stage"),
		Mine:   c.Query("mine") == "true",
		Page:   params.Page,
		Limit:  params.Limit,
	}

	requests, total, err := h.requestService.List(c.Request.Context(), actor, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.List(http.StatusOK, requests, total, params.Page, params.Limit))
}

// GetRequest returns one purchase request with all nested associations
// @Summary      Get purchase request
// @Description  Retrieves a purchase request with items, quotes, approvals and the caller's permitted actions
// @Tags         purchase-requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestDetail}
// @Failure      404  {object}  response.Response
// @Router       /api/purchase-requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	detail, err := h.requestService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// CreateRequest creates a new purchase request at the need stage
// @Summary      Create purchase request
// @Description  Creates a new purchase request with its initial item lines
// @Tags         purchase-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRequestDTO  true  "Create Request Payload"
// @Success      201      {object}  response.Response{data=service.RequestDetail}
// @Failure      400      {object}  response.Response
// @Router       /api/purchase-requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.requestService.Create(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, detail))
}

// UpdateItems replaces the item lines of a request
// @Summary      Update request items
// @Description  Replaces the item lines while the request is still editable; the total is recomputed
// @Tags         purchase-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Request ID"
// @Param        payload  body      service.UpdateItemsDTO  true  "Items Payload"
// @Success      200      {object}  response.Response{data=service.RequestDetail}
// @Failure      403      {object}  response.Response
// @Router       /api/purchase-requests/{id}/items [put]
func (h *RequestHandler) UpdateItems(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req service.UpdateItemsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.requestService.UpdateItems(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// UpdateStatus drives the validation decisions on a request
// @Summary      Update request status
// @Description  Moves a request to PROCESSING, APPROVED or REJECTED (reason mandatory on rejection)
// @Tags         purchase-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Request ID"
// @Param        payload  body      updateStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/purchase-requests/{id}/status [patch]
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	id := c.Param("id")
	var err error
	switch workflow.Status(req.Status) {
	case workflow.StatusProcessing:
		err = h.approvalService.Process(c.Request.Context(), actor, id)
	case workflow.StatusApproved:
		err = h.approvalService.Approve(c.Request.Context(), actor, id)
	case workflow.StatusRejected:
		err = h.approvalService.Reject(c.Request.Context(), actor, id, service.RejectDTO{Reason: req.Reason})
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "status must be PROCESSING, APPROVED or REJECTED"))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Status updated"))
}

// UpdateAnalyticalCode assigns or clears the budget code of a request
// @Summary      Update analytical code
// @Description  Assigns a terminal analytical code to the request, or clears it
// @Tags         purchase-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Request ID"
// @Param        payload  body      service.UpdateAnalyticalCodeDTO  true  "Analytical Code Payload"
// @Success      200      {object}  response.Response{data=service.RequestDetail}
// @Failure      403      {object}  response.Response
// @Router       /api/purchase-requests/{id}/analytical-code [patch]
func (h *RequestHandler) UpdateAnalyticalCode(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req service.UpdateAnalyticalCodeDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.requestService.UpdateAnalyticalCode(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// CreateQuote attaches a supplier quote to a request
// @Summary      Create quote
// @Description  Attaches a supplier quote (multipart form with optional document) to a sourcing request
// @Tags         quotes
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id             path      string  true   "Request ID"
// @Param        supplier_name  formData  string  true   "Supplier name"
// @Param        amount         formData  string  true   "Quoted amount"
// @Param        file           formData  file    false  "Proposal document"
// @Success      201  {object}  response.Response{data=model.Quote}
// @Failure      403  {object}  response.Response
// @Router       /api/purchase-requests/{id}/quotes [post]
func (h *RequestHandler) CreateQuote(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req service.CreateQuoteDTO
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	// Item lines travel as a JSON-encoded form field next to the file part.
	if raw := c.PostForm("items"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Items); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid items payload: "+err.Error()))
			return
		}
	}

	file, _ := c.FormFile("file")

	quote, err := h.quoteService.Create(c.Request.Context(), actor, c.Param("id"), req, file)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, quote))
}

// DeleteQuote removes an unselected quote
// @Summary      Delete quote
// @Description  Deletes a quote while sourcing is still open
// @Tags         quotes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quote ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/quotes/{id} [delete]
func (h *RequestHandler) DeleteQuote(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.quoteService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Quote deleted"))
}

// PublishQuotes freezes the quote set and opens it to the requester
// @Summary      Publish quotes
// @Description  Publishes the collected quotes so the requester can select one
// @Tags         quotes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/purchase-requests/{id}/publish-quotes [post]
func (h *RequestHandler) PublishQuotes(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.quoteService.Publish(c.Request.Context(), actor, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Quotes published"))
}

type selectQuoteRequest struct {
	QuoteID string `json:"quote_id" binding:"required"`
}

// SelectQuote records the requester's final choice among published quotes
// @Summary      Select quote
// @Description  Selects one published quote; the selection is final and the request total snaps to its amount
// @Tags         quotes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Request ID"
// @Param        payload  body      selectQuoteRequest  true  "Quote Selection"
// @Success      200      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/purchase-requests/{id}/select-quote [post]
func (h *RequestHandler) SelectQuote(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req selectQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.quoteService.Select(c.Request.Context(), actor, c.Param("id"), req.QuoteID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Quote selected"))
}

// Finalize closes sourcing and routes the request into validation
// @Summary      Finalize request
// @Description  Assigns a PO number, renders the purchase order and routes the request to its approval groups
// @Tags         purchase-requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/purchase-requests/{id}/finalize [post]
func (h *RequestHandler) Finalize(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.approvalService.Finalize(c.Request.Context(), actor, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Request finalized"))
}

// UploadInvoice records the supplier invoice on an approved request
// @Summary      Upload invoice
// @Description  Records the supplier invoice (multipart form with the invoice file) on an approved request
// @Tags         purchase-requests
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id                   path      string  true   "Request ID"
// @Param        invoice_number       formData  string  true   "Invoice number"
// @Param        invoice_received_at  formData  string  false  "Reception date (defaults to now)"
// @Param        payment_due_at       formData  string  false  "Payment due date"
// @Param        file                 formData  file    true   "Invoice document"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/purchase-requests/{id}/invoice [post]
func (h *RequestHandler) UploadInvoice(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req service.UploadInvoiceDTO
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	file, _ := c.FormFile("file")

	if err := h.invoiceService.Upload(c.Request.Context(), actor, c.Param("id"), req, file); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Invoice recorded"))
}

// ConfirmPayment closes a request awaiting payment
// @Summary      Confirm payment
// @Description  Confirms the invoice has been paid and closes the request
// @Tags         purchase-requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/purchase-requests/{id}/confirm-payment [post]
func (h *RequestHandler) ConfirmPayment(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.invoiceService.ConfirmPayment(c.Request.Context(), actor, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Payment confirmed"))
}
