package handlers

import (
	"errors"

	"github.com/fieldboard/backend/internal/middleware"
	"github.com/fieldboard/backend/internal/models"
	"github.com/fieldboard/backend/internal/services"
	"github.com/fieldboard/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	service *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{service: services.NewProjectService(db)}
}

func validStatus(status string) bool {
	switch status {
	case models.ProjectStatusActive, models.ProjectStatusArchive, models.ProjectStatusTrash:
		return true
	}
	return false
}

// List returns the caller's projects in one lifecycle state
// GET /api/projects?status=active
func (h *ProjectHandler) List(c *gin.Context) {
	status := c.DefaultQuery("status", models.ProjectStatusActive)
	if !validStatus(status) {
		response.BadRequest(c, "status must be 'active', 'archive', or 'trash'")
		return
	}

	projects, err := h.service.List(middleware.GetUserID(c), status)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, projects)
}

type createProjectRequest struct {
	Name string `json:"name"`
}

// Create makes a fresh empty project
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	_ = c.ShouldBindJSON(&req) // body is optional, name defaults server-side

	project, err := h.service.Create(middleware.GetUserID(c), req.Name)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, project)
}

// Get returns a single project
// GET /api/projects/:uploadId
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.service.Get(middleware.GetUserID(c), c.Param("uploadId"))
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, project)
}

// Update renames a project and/or changes its lifecycle status
// PATCH /api/projects/:uploadId
func (h *ProjectHandler) Update(c *gin.Context) {
	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if req.Name == nil && req.Status == nil {
		response.BadRequest(c, "at least one of 'name' or 'status' is required")
		return
	}
	if req.Status != nil && !validStatus(*req.Status) {
		response.BadRequest(c, "status must be 'active', 'archive', or 'trash'")
		return
	}

	project, err := h.service.Update(middleware.GetUserID(c), c.Param("uploadId"), &req)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, project)
}

// Delete permanently removes a project and its config
// DELETE /api/projects/:uploadId
func (h *ProjectHandler) Delete(c *gin.Context) {
	err := h.service.Delete(middleware.GetUserID(c), c.Param("uploadId"))
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"ok": true})
}
