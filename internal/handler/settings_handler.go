package handler

import (
	"net/http"

	"sitebooks/internal/access"
	"sitebooks/internal/middleware"
	"sitebooks/internal/service"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService service.SettingsService
}

func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/settings/reset", middleware.RequireAccess(service.PathSettings, access.Delete), h.Reset)
}

// Reset wipes all business data, keeping users and jobs
// @Summary      Reset data
// @Tags         settings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/settings/reset [post]
func (h *SettingsHandler) Reset(c *gin.Context) {
	if err := h.settingsService.Reset(c.Request.Context(), actor(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "All data has been reset"}))
}
