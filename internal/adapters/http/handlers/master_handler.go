package handlers

import (
	"library-circulation/internal/core/services"
	"library-circulation/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MasterHandler handles master data endpoints
type MasterHandler struct {
	master *services.MasterService
}

// NewMasterHandler creates a new master handler
func NewMasterHandler(master *services.MasterService) *MasterHandler {
	return &MasterHandler{master: master}
}

// ============================================================
// Sections
// ============================================================

// ConfigureSection creates or resizes a section grid
// @Summary Configure section
// @Description Create or resize a shelving section. Shrinking below shelved copies is refused (Admin only)
// @Tags Master
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SectionInput true "Section grid"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /master/sections [put]
func (h *MasterHandler) ConfigureSection(c *fiber.Ctx) error {
	var req services.SectionInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	section, err := h.master.ConfigureSection(c.UserContext(), &req, actor(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Section saved successfully", fiber.Map{
		"section": section,
	})
}

// ============================================================
// Categories
// ============================================================

// ListCategories lists all categories
// @Summary List categories
// @Description Get all categories with their recommended start slot
// @Tags Master
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /master/categories [get]
func (h *MasterHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.master.ListCategories(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to list categories")
	}

	return response.Success(c, "Categories retrieved successfully", fiber.Map{
		"categories": categories,
	})
}

// SaveCategory creates or updates a category
// @Summary Save category
// @Description Create or update a category by code (Admin only)
// @Tags Master
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CategoryInput true "Category"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /master/categories [put]
func (h *MasterHandler) SaveCategory(c *fiber.Ctx) error {
	var req services.CategoryInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	category, err := h.master.SaveCategory(c.UserContext(), &req, actor(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Category saved successfully", fiber.Map{
		"category": category,
	})
}

// ============================================================
// Settings
// ============================================================

// UpdateSettingRequest represents a setting change
type UpdateSettingRequest struct {
	Value string `json:"value"`
}

// ListSettings lists the circulation policy settings
// @Summary List settings
// @Tags Master
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /master/settings [get]
func (h *MasterHandler) ListSettings(c *fiber.Ctx) error {
	settings, err := h.master.ListSettings(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to list settings")
	}

	return response.Success(c, "Settings retrieved successfully", fiber.Map{
		"settings": settings,
	})
}

// UpdateSetting changes one policy setting
// @Summary Update setting
// @Description Change a circulation policy value such as borrow_days or late_fee_per_day (Admin only)
// @Tags Master
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "Setting key"
// @Param body body UpdateSettingRequest true "New value"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /master/settings/{key} [put]
func (h *MasterHandler) UpdateSetting(c *fiber.Ctx) error {
	var req UpdateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.master.UpdateSetting(c.UserContext(), c.Params("key"), req.Value, actor(c)); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Setting updated successfully", nil)
}
