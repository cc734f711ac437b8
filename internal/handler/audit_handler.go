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

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	logs := router.Group("/audit-log")
	{
		logs.GET("", middleware.RequireAccess(service.PathAuditLog, access.View), h.ListLogs)
		logs.GET("/export", middleware.RequireAccess(service.PathAuditLog, access.Print), h.ExportLogs)
	}
}

// ListLogs returns paginated audit rows, newest first
// @Summary      List audit log
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default: 1)"
// @Param        limit        query     int     false  "Items per page (default: 20)"
// @Param        entity_type  query     string  false  "Filter by entity type (e.g. expense, project)"
// @Success      200          {object}  response.Response{data=[]model.AuditLog}
// @Router       /api/audit-log [get]
func (h *AuditHandler) ListLogs(c *gin.Context) {
	p := pagination.Parse(c)
	logs, total, err := h.auditService.ListLogs(c.Request.Context(), c.Query("entity_type"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, p.Page, p.Limit, total))
}

// ExportLogs downloads the audit log as xlsx
// @Summary      Export audit log
// @Tags         audit
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}  file
// @Router       /api/audit-log/export [get]
func (h *AuditHandler) ExportLogs(c *gin.Context) {
	data, err := h.auditService.Export(c.Request.Context())
	writeWorkbook(c, "audit-log", data, err)
}
