package handler

import (
	"net/http"

	"sitebooks/internal/access"
	"sitebooks/internal/middleware"
	"sitebooks/internal/service"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type BudgetHandler struct {
	budgetService service.BudgetService
}

func NewBudgetHandler(budgetService service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

func (h *BudgetHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/budget-items")
	{
		items.GET("", middleware.RequireAccess(service.PathBudget, access.View), h.ListItems)
		items.GET("/report", middleware.RequireAccess(service.PathBudget, access.View), h.Report)
		items.POST("", middleware.RequireAccess(service.PathBudget, access.Create), h.CreateItem)
		items.PUT("/:id", middleware.RequireAccess(service.PathBudget, access.Edit), h.UpdateItem)
		items.DELETE("/:id", middleware.RequireAccess(service.PathBudget, access.Delete), h.DeleteItem)
	}
}

// ListItems returns the budget items of a project
// @Summary      List budget items
// @Tags         budget
// @Security     BearerAuth
// @Produce      json
// @Param        project_id  query     string  true  "Project ID"
// @Success      200         {object}  response.Response{data=[]model.BudgetItem}
// @Router       /api/budget-items [get]
func (h *BudgetHandler) ListItems(c *gin.Context) {
	items, err := h.budgetService.ListItems(c.Request.Context(), c.Query("project_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// Report compares planned and spent amounts per budget item
// @Summary      Budget report
// @Tags         budget
// @Security     BearerAuth
// @Produce      json
// @Param        project_id  query     string  true  "Project ID"
// @Success      200         {object}  response.Response{data=service.BudgetReport}
// @Router       /api/budget-items/report [get]
func (h *BudgetHandler) Report(c *gin.Context) {
	report, err := h.budgetService.Report(c.Request.Context(), c.Query("project_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// CreateItem adds a budget item to a project
// @Summary      Create budget item
// @Tags         budget
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BudgetItemRequest  true  "Budget item"
// @Success      201      {object}  response.Response{data=model.BudgetItem}
// @Failure      400      {object}  response.Response
// @Router       /api/budget-items [post]
func (h *BudgetHandler) CreateItem(c *gin.Context) {
	var req service.BudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.budgetService.CreateItem(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem updates a budget item
// @Summary      Update budget item
// @Tags         budget
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Budget item ID"
// @Param        payload  body      service.BudgetItemRequest  true  "Budget item"
// @Success      200      {object}  response.Response{data=model.BudgetItem}
// @Router       /api/budget-items/{id} [put]
func (h *BudgetHandler) UpdateItem(c *gin.Context) {
	var req service.BudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.budgetService.UpdateItem(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem deletes a budget item
// @Summary      Delete budget item
// @Tags         budget
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Budget item ID"
// @Success      200  {object}  response.Response
// @Router       /api/budget-items/{id} [delete]
func (h *BudgetHandler) DeleteItem(c *gin.Context) {
	if err := h.budgetService.DeleteItem(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	deleted(c, "Budget item")
}
