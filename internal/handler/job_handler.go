package handler

import (
	"net/http"

	"sitebooks/internal/access"
	"sitebooks/internal/middleware"
	"sitebooks/internal/service"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

// JobHandler manages jobs, the named permission sets assigned to users.
type JobHandler struct {
	jobService service.JobService
}

func NewJobHandler(jobService service.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/jobs")
	{
		jobs.GET("", middleware.RequireAccess(service.PathJobs, access.View), h.ListJobs)
		jobs.GET("/:id", middleware.RequireAccess(service.PathJobs, access.View), h.GetJob)
		jobs.POST("", middleware.RequireAccess(service.PathJobs, access.Create), h.CreateJob)
		jobs.PUT("/:id", middleware.RequireAccess(service.PathJobs, access.Edit), h.UpdateJob)
		jobs.DELETE("/:id", middleware.RequireAccess(service.PathJobs, access.Delete), h.DeleteJob)
	}
}

// ListJobs returns every job with its grants
// @Summary      List jobs
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Job}
// @Router       /api/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.jobService.ListJobs(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, jobs))
}

// GetJob returns one job
// @Summary      Get job
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  response.Response{data=model.Job}
// @Failure      404  {object}  response.Response
// @Router       /api/jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobService.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

// CreateJob defines a new job
// @Summary      Create job
// @Tags         jobs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.JobRequest  true  "Job payload"
// @Success      201      {object}  response.Response{data=model.Job}
// @Failure      400      {object}  response.Response
// @Router       /api/jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req service.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, job))
}

// UpdateJob replaces a job's name, description and grants
// @Summary      Update job
// @Tags         jobs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Job ID"
// @Param        payload  body      service.JobRequest  true  "Job payload"
// @Success      200      {object}  response.Response{data=model.Job}
// @Router       /api/jobs/{id} [put]
func (h *JobHandler) UpdateJob(c *gin.Context) {
	var req service.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	job, err := h.jobService.UpdateJob(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

// DeleteJob deletes an unassigned, non-system job
// @Summary      Delete job
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/jobs/{id} [delete]
func (h *JobHandler) DeleteJob(c *gin.Context) {
	if err := h.jobService.DeleteJob(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	deleted(c, "Job")
}
