package handler

import (
	"errors"
	"net/http"

	"sitebooks/internal/export"
	"sitebooks/internal/middleware"
	"sitebooks/internal/service"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps service sentinels to HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrProtected):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrInsufficientStock), errors.Is(err, service.ErrUnbalancedEntry):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// actor is the id of the authenticated caller, recorded on audit rows.
func actor(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

func writeWorkbook(c *gin.Context, name string, data []byte, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+name+".xlsx")
	c.Data(http.StatusOK, export.ContentType, data)
}

func deleted(c *gin.Context, what string) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": what + " deleted successfully"}))
}
