package handlers

import (
	"errors"

	"github.com/fieldboard/backend/internal/middleware"
	"github.com/fieldboard/backend/internal/services"
	"github.com/fieldboard/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FieldConfigHandler struct {
	service *services.FieldConfigService
}

func NewFieldConfigHandler(db *gorm.DB) *FieldConfigHandler {
	return &FieldConfigHandler{service: services.NewFieldConfigService(db)}
}

// Save persists a canvas save, deduplicating unchanged autosaves
// POST /api/field-configs
func (h *FieldConfigHandler) Save(c *gin.Context) {
	var req services.SaveFieldConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Save(middleware.GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFieldConfigNotFound):
			response.NotFound(c, "field config not found")
		case errors.Is(err, services.ErrShareCodeExhausted):
			response.Error(c, response.NewConflict(err.Error()))
		default:
			response.ServerError(c, err.Error())
		}
		return
	}

	if result.Created {
		response.Created(c, result)
		return
	}
	response.Success(c, result)
}

// GetLatest returns the caller's most recently saved config
// GET /api/field-configs
func (h *FieldConfigHandler) GetLatest(c *gin.Context) {
	fc, err := h.service.GetLatest(middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrFieldConfigNotFound) {
			response.NotFound(c, "field config not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, fc)
}

// GetPublic serves a shared config without authentication
// GET /api/field-configs/public/:uploadId
func (h *FieldConfigHandler) GetPublic(c *gin.Context) {
	pub, err := h.service.GetPublic(c.Param("uploadId"))
	if err != nil {
		if errors.Is(err, services.ErrFieldConfigNotFound) {
			response.NotFound(c, "field config not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, pub)
}

// GetPublicBackground serves only the background image URL of a shared config
// GET /api/field-configs/public/:uploadId/background-image
func (h *FieldConfigHandler) GetPublicBackground(c *gin.Context) {
	pub, err := h.service.GetPublic(c.Param("uploadId"))
	if err != nil {
		if errors.Is(err, services.ErrFieldConfigNotFound) {
			response.NotFound(c, "field config not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"backgroundImage": pub.BackgroundImage})
}
