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

// PartnerHandler serves customers and suppliers. The permission path is
// /customers or /suppliers depending on the partner kind, so checks happen
// inside the handlers rather than as route middleware.
type PartnerHandler struct {
	partnerService service.PartnerService
}

func NewPartnerHandler(partnerService service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

func (h *PartnerHandler) RegisterRoutes(router *gin.RouterGroup) {
	partners := router.Group("/partners")
	{
		partners.GET("", h.ListPartners)
		partners.GET("/:id", h.GetPartner)
		partners.POST("", h.CreatePartner)
		partners.PUT("/:id", h.UpdatePartner)
		partners.DELETE("/:id", h.DeletePartner)
	}
}

// allow writes the rejection and returns false when the caller may not
// perform action on partners of kind.
func (h *PartnerHandler) allow(c *gin.Context, kind string, action access.Action) bool {
	path := service.PartnerPath(kind)
	if path == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "kind must be customer or supplier"))
		return false
	}
	if !access.HasPermission(middleware.Principal(c), path, action) {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+action.String()+"' on "+path))
		return false
	}
	return true
}

// ListPartners returns paginated partners of one kind
// @Summary      List partners
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        kind    query     string  true   "customer or supplier"
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        search  query     string  false  "Search by name, phone, email"
// @Success      200     {object}  response.Response{data=[]model.Partner}
// @Router       /api/partners [get]
func (h *PartnerHandler) ListPartners(c *gin.Context) {
	kind := c.Query("kind")
	if !h.allow(c, kind, access.View) {
		return
	}

	p := pagination.Parse(c)
	partners, total, err := h.partnerService.ListPartners(c.Request.Context(), kind, c.Query("search"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, partners, p.Page, p.Limit, total))
}

// GetPartner returns one partner
// @Summary      Get partner
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Partner ID"
// @Success      200  {object}  response.Response{data=model.Partner}
// @Failure      404  {object}  response.Response
// @Router       /api/partners/{id} [get]
func (h *PartnerHandler) GetPartner(c *gin.Context) {
	partner, err := h.partnerService.GetPartner(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !h.allow(c, partner.Kind, access.View) {
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}

// CreatePartner creates a new partner
// @Summary      Create partner
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PartnerRequest  true  "Partner payload"
// @Success      201      {object}  response.Response{data=model.Partner}
// @Failure      400      {object}  response.Response
// @Router       /api/partners [post]
func (h *PartnerHandler) CreatePartner(c *gin.Context) {
	var req service.PartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !h.allow(c, req.Kind, access.Create) {
		return
	}

	partner, err := h.partnerService.CreatePartner(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, partner))
}

// UpdatePartner updates an existing partner
// @Summary      Update partner
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Partner ID"
// @Param        payload  body      service.PartnerRequest  true  "Partner payload"
// @Success      200      {object}  response.Response{data=model.Partner}
// @Failure      400      {object}  response.Response
// @Router       /api/partners/{id} [put]
func (h *PartnerHandler) UpdatePartner(c *gin.Context) {
	var req service.PartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	current, err := h.partnerService.GetPartner(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !h.allow(c, current.Kind, access.Edit) {
		return
	}
	// Moving a partner to the other list needs edit rights there too.
	if req.Kind != current.Kind && !h.allow(c, req.Kind, access.Edit) {
		return
	}

	partner, err := h.partnerService.UpdatePartner(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}

// DeletePartner deletes a partner
// @Summary      Delete partner
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Partner ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/partners/{id} [delete]
func (h *PartnerHandler) DeletePartner(c *gin.Context) {
	current, err := h.partnerService.GetPartner(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !h.allow(c, current.Kind, access.Delete) {
		return
	}

	if err := h.partnerService.DeletePartner(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	deleted(c, "Partner")
}
