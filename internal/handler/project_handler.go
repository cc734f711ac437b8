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

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/projects")
	{
		projects.GET("", middleware.RequireAccess(service.PathProjects, access.View), h.ListProjects)
		projects.GET("/:id", middleware.RequireAccess(service.PathProjects, access.View), h.GetProject)
		projects.POST("", middleware.RequireAccess(service.PathProjects, access.Create), h.CreateProject)
		projects.PUT("/:id", middleware.RequireAccess(service.PathProjects, access.Edit), h.UpdateProject)
		projects.DELETE("/:id", middleware.RequireAccess(service.PathProjects, access.Delete), h.DeleteProject)
	}
}

// ListProjects returns paginated projects
// @Summary      List projects
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        status  query     string  false  "Filter by status: active, suspended, completed"
// @Param        search  query     string  false  "Search by name, location, client"
// @Success      200     {object}  response.Response{data=[]model.Project}
// @Router       /api/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	p := pagination.Parse(c)
	projects, total, err := h.projectService.ListProjects(c.Request.Context(), c.Query("status"), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, projects, p.Page, p.Limit, total))
}

// GetProject returns one project
// @Summary      Get project
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  response.Response{data=model.Project}
// @Failure      404  {object}  response.Response
// @Router       /api/projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, project))
}

// CreateProject creates a new project
// @Summary      Create project
// @Tags         projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProjectRequest  true  "Project payload"
// @Success      201      {object}  response.Response{data=model.Project}
// @Failure      400      {object}  response.Response
// @Router       /api/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req service.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, project))
}

// UpdateProject updates an existing project
// @Summary      Update project
// @Tags         projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Project ID"
// @Param        payload  body      service.ProjectRequest  true  "Project payload"
// @Success      200      {object}  response.Response{data=model.Project}
// @Failure      400      {object}  response.Response
// @Router       /api/projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req service.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, project))
}

// DeleteProject deletes a project that nothing references
// @Summary      Delete project
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projectService.DeleteProject(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	deleted(c, "Project")
}
