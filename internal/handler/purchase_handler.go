package handler

import (
	"net/http"

	"sitebooks/internal/access"
	"sitebooks/internal/middleware"
	"sitebooks/internal/service"
	"sitebooks/pkg/pagination"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("/purchases")
	{
		purchases.GET("", middleware.RequireAccess(service.PathPurchases, access.View), h.ListPurchases)
		purchases.GET("/:id", middleware.RequireAccess(service.PathPurchases, access.View), h.GetPurchase)
		purchases.POST("", middleware.RequireAccess(service.PathPurchases, access.Create), h.CreatePurchase)
		purchases.PUT("/:id", middleware.RequireAccess(service.PathPurchases, access.Edit), h.UpdatePurchase)
		purchases.DELETE("/:id", middleware.RequireAccess(service.PathPurchases, access.Delete), h.DeletePurchase)
	}
}

// ListPurchases returns paginated purchase invoices
// @Summary      List purchase invoices
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int     false  "Page number (default: 1)"
// @Param        limit  query     int     false  "Items per page (default: 20)"
// @Param        type   query     string  false  "Filter by type: inventory, direct"
// @Success      200    {object}  response.Response{data=[]model.PurchaseInvoice}
// @Router       /api/purchases [get]
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	p := pagination.Parse(c)
	purchases, total, err := h.purchaseService.ListPurchases(c.Request.Context(), c.Query("type"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, purchases, p.Page, p.Limit, total))
}

// GetPurchase returns one invoice with its lines
// @Summary      Get purchase invoice
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=model.PurchaseInvoice}
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// CreatePurchase records an invoice; inventory invoices receive stock
// @Summary      Create purchase invoice
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PurchaseRequest  true  "Invoice payload"
// @Success      201      {object}  response.Response{data=model.PurchaseInvoice}
// @Failure      400      {object}  response.Response
// @Router       /api/purchases [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req service.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	purchase, err := h.purchaseService.CreatePurchase(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// UpdatePurchase edits the invoice header
// @Summary      Update purchase invoice header
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Invoice ID"
// @Param        payload  body      service.PurchaseHeaderRequest  true  "Header fields"
// @Success      200      {object}  response.Response{data=model.PurchaseInvoice}
// @Router       /api/purchases/{id} [put]
func (h *PurchaseHandler) UpdatePurchase(c *gin.Context) {
	var req service.PurchaseHeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	purchase, err := h.purchaseService.UpdatePurchase(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// DeletePurchase deletes an invoice and reverses received stock
// @Summary      Delete purchase invoice
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/purchases/{id} [delete]
func (h *PurchaseHandler) DeletePurchase(c *gin.Context) {
	if err := h.purchaseService.DeletePurchase(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	deleted(c, "Purchase invoice")
}
