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

type JournalHandler struct {
	journalService service.JournalService
}

func NewJournalHandler(journalService service.JournalService) *JournalHandler {
	return &JournalHandler{journalService: journalService}
}

func (h *JournalHandler) RegisterRoutes(router *gin.RouterGroup) {
	journal := router.Group("/journal")
	{
		journal.GET("", middleware.RequireAccess(service.PathJournal, access.View), h.ListEntries)
		journal.GET("/trial-balance", middleware.RequireAccess(service.PathJournal, access.View), h.TrialBalance)
		journal.GET("/:id", middleware.RequireAccess(service.PathJournal, access.View), h.GetEntry)
		journal.POST("", middleware.RequireAccess(service.PathJournal, access.Create), h.CreateEntry)
		journal.PUT("/:id", middleware.RequireAccess(service.PathJournal, access.Edit), h.UpdateEntry)
		journal.DELETE("/:id", middleware.RequireAccess(service.PathJournal, access.Delete), h.DeleteEntry)
	}
}

// ListEntries returns paginated journal entries
// @Summary      List journal entries
// @Tags         journal
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default: 1)"
// @Param        limit  query     int  false  "Items per page (default: 20)"
// @Success      200    {object}  response.Response{data=[]model.JournalEntry}
// @Router       /api/journal [get]
func (h *JournalHandler) ListEntries(c *gin.Context) {
	p := pagination.Parse(c)
	entries, total, err := h.journalService.ListEntries(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, entries, p.Page, p.Limit, total))
}

// TrialBalance sums debits and credits per account
// @Summary      Trial balance
// @Tags         journal
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]repository.AccountBalance}
// @Router       /api/journal/trial-balance [get]
func (h *JournalHandler) TrialBalance(c *gin.Context) {
	rows, err := h.journalService.TrialBalance(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// GetEntry returns one entry with its lines
// @Summary      Get journal entry
// @Tags         journal
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response{data=model.JournalEntry}
// @Failure      404  {object}  response.Response
// @Router       /api/journal/{id} [get]
func (h *JournalHandler) GetEntry(c *gin.Context) {
	entry, err := h.journalService.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// CreateEntry posts a balanced journal entry
// @Summary      Create journal entry
// @Tags         journal
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.JournalEntryRequest  true  "Entry payload"
// @Success      201      {object}  response.Response{data=model.JournalEntry}
// @Failure      422      {object}  response.Response
// @Router       /api/journal [post]
func (h *JournalHandler) CreateEntry(c *gin.Context) {
	var req service.JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := h.journalService.CreateEntry(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// UpdateEntry replaces an entry and its lines
// @Summary      Update journal entry
// @Tags         journal
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Entry ID"
// @Param        payload  body      service.JournalEntryRequest  true  "Entry payload"
// @Success      200      {object}  response.Response{data=model.JournalEntry}
// @Failure      422      {object}  response.Response
// @Router       /api/journal/{id} [put]
func (h *JournalHandler) UpdateEntry(c *gin.Context) {
	var req service.JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := h.journalService.UpdateEntry(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// DeleteEntry deletes a journal entry
// @Summary      Delete journal entry
// @Tags         journal
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response
// @Router       /api/journal/{id} [delete]
func (h *JournalHandler) DeleteEntry(c *gin.Context) {
	if err := h.journalService.DeleteEntry(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	deleted(c, "Journal entry")
}
