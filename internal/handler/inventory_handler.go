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

type InventoryHandler struct {
	inventoryService service.InventoryService
	movementService  service.MovementService
}

func NewInventoryHandler(inventoryService service.InventoryService, movementService service.MovementService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		movementService:  movementService,
	}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/inventory/items")
	{
		items.GET("", middleware.RequireAccess(service.PathInventoryItems, access.View), h.ListItems)
		items.GET("/low-stock", middleware.RequireAccess(service.PathInventoryItems, access.View), h.LowStock)
		items.GET("/:id", middleware.RequireAccess(service.PathInventoryItems, access.View), h.GetItem)
		items.GET("/:id/stock-card", middleware.RequireAccess(service.PathInventoryItems, access.View), h.StockCard)
		items.POST("", middleware.RequireAccess(service.PathInventoryItems, access.Create), h.CreateItem)
		items.PUT("/:id", middleware.RequireAccess(service.PathInventoryItems, access.Edit), h.UpdateItem)
		items.DELETE("/:id", middleware.RequireAccess(service.PathInventoryItems, access.Delete), h.DeleteItem)
		items.POST("/:id/withdraw", middleware.RequireAccess(service.PathInventoryItems, access.Create), h.Withdraw)
	}

	movements := router.Group("/inventory/movements")
	{
		movements.GET("", middleware.RequireAccess(service.PathMovements, access.View), h.ListMovements)
		movements.GET("/export", middleware.RequireAccess(service.PathMovements, access.Print), h.ExportMovements)
	}
}

// ListItems returns paginated inventory items
// @Summary      List inventory items
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        search  query     string  false  "Search by name or category"
// @Success      200     {object}  response.Response{data=[]model.InventoryItem}
// @Router       /api/inventory/items [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.inventoryService.ListItems(c.Request.Context(), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// LowStock returns items at or below their minimum quantity
// @Summary      Low stock items
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.InventoryItem}
// @Router       /api/inventory/items/low-stock [get]
func (h *InventoryHandler) LowStock(c *gin.Context) {
	items, err := h.inventoryService.LowStock(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetItem returns one inventory item
// @Summary      Get inventory item
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=model.InventoryItem}
// @Failure      404  {object}  response.Response
// @Router       /api/inventory/items/{id} [get]
func (h *InventoryHandler) GetItem(c *gin.Context) {
	item, err := h.inventoryService.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// StockCard returns every stock transaction of an item
// @Summary      Item stock card
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=[]model.StockTransaction}
// @Router       /api/inventory/items/{id}/stock-card [get]
func (h *InventoryHandler) StockCard(c *gin.Context) {
	txs, err := h.inventoryService.StockCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, txs))
}

// CreateItem adds an item to the catalog
// @Summary      Create inventory item
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.InventoryItemRequest  true  "Item payload"
// @Success      201      {object}  response.Response{data=model.InventoryItem}
// @Failure      400      {object}  response.Response
// @Router       /api/inventory/items [post]
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req service.InventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem edits the descriptive fields of an item
// @Summary      Update inventory item
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Item ID"
// @Param        payload  body      service.InventoryItemRequest  true  "Item payload (quantity is ignored)"
// @Success      200      {object}  response.Response{data=model.InventoryItem}
// @Router       /api/inventory/items/{id} [put]
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	var req service.InventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem removes an item that has no movements
// @Summary      Delete inventory item
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/inventory/items/{id} [delete]
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	if err := h.inventoryService.DeleteItem(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	deleted(c, "Item")
}

// Withdraw takes stock out for a project and books the expense
// @Summary      Withdraw stock
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Item ID"
// @Param        payload  body      service.WithdrawRequest  true  "Withdrawal"
// @Success      201      {object}  response.Response{data=model.Expense}
// @Failure      422      {object}  response.Response
// @Router       /api/inventory/items/{id}/withdraw [post]
func (h *InventoryHandler) Withdraw(c *gin.Context) {
	var req service.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	expense, err := h.inventoryService.Withdraw(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// ListMovements returns the reconciled stock movements, newest first
// @Summary      Stock movements
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]movement.Movement}
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.movementService.Movements(c.Request.Context())))
}

// ExportMovements downloads the stock movements as xlsx
// @Summary      Export stock movements
// @Tags         inventory
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}  file
// @Router       /api/inventory/movements/export [get]
func (h *InventoryHandler) ExportMovements(c *gin.Context) {
	data, err := h.movementService.Export(c.Request.Context())
	writeWorkbook(c, "inventory-movements", data, err)
}
