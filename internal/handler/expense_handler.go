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

type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/expenses")
	{
		expenses.GET("", middleware.RequireAccess(service.PathExpenses, access.View), h.ListExpenses)
		expenses.GET("/export", middleware.RequireAccess(service.PathExpenses, access.Print), h.ExportExpenses)
		expenses.GET("/:id", middleware.RequireAccess(service.PathExpenses, access.View), h.GetExpense)
		expenses.POST("", middleware.RequireAccess(service.PathExpenses, access.Create), h.CreateExpense)
		expenses.PUT("/:id", middleware.RequireAccess(service.PathExpenses, access.Edit), h.UpdateExpense)
		expenses.DELETE("/:id", middleware.RequireAccess(service.PathExpenses, access.Delete), h.DeleteExpense)
	}
}

func expenseQuery(c *gin.Context) service.ExpenseQuery {
	return service.ExpenseQuery{
		ProjectID:    c.Query("project_id"),
		BudgetItemID: c.Query("budget_item_id"),
		From:         c.Query("from"),
		To:           c.Query("to"),
		Search:       c.Query("search"),
	}
}

// ListExpenses returns paginated expenses
// @Summary      List expenses
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        page            query     int     false  "Page number (default: 1)"
// @Param        limit           query     int     false  "Items per page (default: 20)"
// @Param        project_id      query     string  false  "Filter by project"
// @Param        budget_item_id  query     string  false  "Filter by budget item"
// @Param        from            query     string  false  "From date (YYYY-MM-DD)"
// @Param        to              query     string  false  "To date (YYYY-MM-DD)"
// @Param        search          query     string  false  "Search type, description, paid to"
// @Success      200             {object}  response.Response{data=[]model.Expense}
// @Router       /api/expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	p := pagination.Parse(c)
	expenses, total, err := h.expenseService.ListExpenses(c.Request.Context(), expenseQuery(c), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, expenses, p.Page, p.Limit, total))
}

// ExportExpenses downloads the filtered expenses as xlsx
// @Summary      Export expenses
// @Tags         expenses
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        project_id  query  string  false  "Filter by project"
// @Param        from        query  string  false  "From date (YYYY-MM-DD)"
// @Param        to          query  string  false  "To date (YYYY-MM-DD)"
// @Success      200  {file}  file
// @Router       /api/expenses/export [get]
func (h *ExpenseHandler) ExportExpenses(c *gin.Context) {
	data, err := h.expenseService.Export(c.Request.Context(), expenseQuery(c))
	writeWorkbook(c, "expenses", data, err)
}

// GetExpense returns one expense
// @Summary      Get expense
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Expense ID"
// @Success      200  {object}  response.Response{data=model.Expense}
// @Failure      404  {object}  response.Response
// @Router       /api/expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	expense, err := h.expenseService.GetExpense(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// CreateExpense books a new expense
// @Summary      Create expense
// @Tags         expenses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ExpenseRequest  true  "Expense payload"
// @Success      201      {object}  response.Response{data=model.Expense}
// @Failure      400      {object}  response.Response
// @Router       /api/expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req service.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// UpdateExpense updates an expense; stock withdrawals are refused
// @Summary      Update expense
// @Tags         expenses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Expense ID"
// @Param        payload  body      service.ExpenseRequest  true  "Expense payload"
// @Success      200      {object}  response.Response{data=model.Expense}
// @Failure      409      {object}  response.Response
// @Router       /api/expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	var req service.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// DeleteExpense deletes an expense, returning withdrawn stock
// @Summary      Delete expense
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Expense ID"
// @Success      200  {object}  response.Response
// @Router       /api/expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	if err := h.expenseService.DeleteExpense(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	deleted(c, "Expense")
}
