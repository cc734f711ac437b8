package handler

import (
	"net/http"

	"sitebooks/internal/access"
	"sitebooks/internal/middleware"
	"sitebooks/internal/service"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService  service.AuthService
	secureCookie bool
}

func NewAuthHandler(authService service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

// RegisterRoutes mounts the sign-in routes on public and the session routes
// on protected, which must already authenticate.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	auth := public.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.POST("/bootstrap", h.Bootstrap)
	}
	protected.GET("/auth/me", h.Me)
	protected.GET("/navigation", h.Navigation)
}

// Login handles POST /api/auth/login
// @Summary      Sign in
// @Description  Authenticates a user by code and PIN, returning a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.Session}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetTokenCookie(c, session.Token, service.DefaultTokenTTL, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// Bootstrap creates the first administrator on an empty install
// @Summary      Create first administrator
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BootstrapRequest  true  "Administrator"
// @Success      201      {object}  response.Response{data=service.Session}
// @Failure      409      {object}  response.Response
// @Router       /api/auth/bootstrap [post]
func (h *AuthHandler) Bootstrap(c *gin.Context) {
	var req service.BootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.authService.Bootstrap(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetTokenCookie(c, session.Token, service.DefaultTokenTTL, h.secureCookie)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, session))
}

// Logout clears the session cookie
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}

// Me returns the signed-in user with their grants
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.Session}
// @Failure      401  {object}  response.Response
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session, err := h.authService.Me(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// Navigation returns the sidebar entries the caller may view
// @Summary      Sidebar
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]access.NavItem}
// @Router       /api/navigation [get]
func (h *AuthHandler) Navigation(c *gin.Context) {
	items := access.VisibleNavigation(middleware.Principal(c), access.Navigation)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}
