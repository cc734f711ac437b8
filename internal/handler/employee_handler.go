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

// EmployeeHandler serves employees and their salary payments.
type EmployeeHandler struct {
	employeeService service.EmployeeService
	salaryService   service.SalaryService
}

func NewEmployeeHandler(employeeService service.EmployeeService, salaryService service.SalaryService) *EmployeeHandler {
	return &EmployeeHandler{
		employeeService: employeeService,
		salaryService:   salaryService,
	}
}

func (h *EmployeeHandler) RegisterRoutes(router *gin.RouterGroup) {
	employees := router.Group("/employees")
	{
		employees.GET("", middleware.RequireAccess(service.PathEmployees, access.View), h.ListEmployees)
		employees.GET("/:id", middleware.RequireAccess(service.PathEmployees, access.View), h.GetEmployee)
		employees.POST("", middleware.RequireAccess(service.PathEmployees, access.Create), h.CreateEmployee)
		employees.PUT("/:id", middleware.RequireAccess(service.PathEmployees, access.Edit), h.UpdateEmployee)
		employees.DELETE("/:id", middleware.RequireAccess(service.PathEmployees, access.Delete), h.DeleteEmployee)
	}

	salaries := router.Group("/salaries")
	{
		salaries.GET("", middleware.RequireAccess(service.PathSalaries, access.View), h.ListPayments)
		salaries.GET("/:id", middleware.RequireAccess(service.PathSalaries, access.View), h.GetPayment)
		salaries.POST("", middleware.RequireAccess(service.PathSalaries, access.Create), h.CreatePayment)
		salaries.PUT("/:id", middleware.RequireAccess(service.PathSalaries, access.Edit), h.UpdatePayment)
		salaries.DELETE("/:id", middleware.RequireAccess(service.PathSalaries, access.Delete), h.DeletePayment)
	}
}

// ListEmployees returns paginated employees
// @Summary      List employees
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        search  query     string  false  "Search by name, title, phone"
// @Param        active  query     bool    false  "Only active employees"
// @Success      200     {object}  response.Response{data=[]model.Employee}
// @Router       /api/employees [get]
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	p := pagination.Parse(c)
	activeOnly := c.Query("active") == "true"
	employees, total, err := h.employeeService.ListEmployees(c.Request.Context(), c.Query("search"), activeOnly, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, employees, p.Page, p.Limit, total))
}

// GetEmployee returns one employee
// @Summary      Get employee
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Employee ID"
// @Success      200  {object}  response.Response{data=model.Employee}
// @Failure      404  {object}  response.Response
// @Router       /api/employees/{id} [get]
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	employee, err := h.employeeService.GetEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

// CreateEmployee adds an employee
// @Summary      Create employee
// @Tags         employees
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.EmployeeRequest  true  "Employee payload"
// @Success      201      {object}  response.Response{data=model.Employee}
// @Failure      400      {object}  response.Response
// @Router       /api/employees [post]
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req service.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	employee, err := h.employeeService.CreateEmployee(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, employee))
}

// UpdateEmployee updates an employee
// @Summary      Update employee
// @Tags         employees
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Employee ID"
// @Param        payload  body      service.EmployeeRequest  true  "Employee payload"
// @Success      200      {object}  response.Response{data=model.Employee}
// @Router       /api/employees/{id} [put]
func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	var req service.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	employee, err := h.employeeService.UpdateEmployee(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

// DeleteEmployee deletes an employee without salary payments
// @Summary      Delete employee
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Employee ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/employees/{id} [delete]
func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	if err := h.employeeService.DeleteEmployee(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	deleted(c, "Employee")
}

// ListPayments returns paginated salary payments
// @Summary      List salary payments
// @Tags         salaries
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default: 1)"
// @Param        limit        query     int     false  "Items per page (default: 20)"
// @Param        employee_id  query     string  false  "Filter by employee"
// @Param        period       query     string  false  "Filter by period (YYYY-MM)"
// @Success      200          {object}  response.Response{data=[]model.SalaryPayment}
// @Router       /api/salaries [get]
func (h *EmployeeHandler) ListPayments(c *gin.Context) {
	p := pagination.Parse(c)
	payments, total, err := h.salaryService.ListPayments(c.Request.Context(), c.Query("employee_id"), c.Query("period"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, payments, p.Page, p.Limit, total))
}

// GetPayment returns one salary payment
// @Summary      Get salary payment
// @Tags         salaries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=model.SalaryPayment}
// @Router       /api/salaries/{id} [get]
func (h *EmployeeHandler) GetPayment(c *gin.Context) {
	payment, err := h.salaryService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// CreatePayment records a monthly salary payment
// @Summary      Create salary payment
// @Tags         salaries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SalaryRequest  true  "Payment payload"
// @Success      201      {object}  response.Response{data=model.SalaryPayment}
// @Failure      409      {object}  response.Response
// @Router       /api/salaries [post]
func (h *EmployeeHandler) CreatePayment(c *gin.Context) {
	var req service.SalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	payment, err := h.salaryService.CreatePayment(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// UpdatePayment updates a salary payment
// @Summary      Update salary payment
// @Tags         salaries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Payment ID"
// @Param        payload  body      service.SalaryRequest  true  "Payment payload"
// @Success      200      {object}  response.Response{data=model.SalaryPayment}
// @Router       /api/salaries/{id} [put]
func (h *EmployeeHandler) UpdatePayment(c *gin.Context) {
	var req service.SalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	payment, err := h.salaryService.UpdatePayment(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// DeletePayment deletes a salary payment
// @Summary      Delete salary payment
// @Tags         salaries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response
// @Router       /api/salaries/{id} [delete]
func (h *EmployeeHandler) DeletePayment(c *gin.Context) {
	if err := h.salaryService.DeletePayment(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	deleted(c, "Salary payment")
}
