package handlers

import (
	"strings"

	"library-circulation/internal/core/domain"
	"library-circulation/internal/core/services"
	"library-circulation/internal/pkg/pagination"
	"library-circulation/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CopyHandler handles copy intake and shelving endpoints
type CopyHandler struct {
	copies *services.CopyService
}

// NewCopyHandler creates a new copy handler
func NewCopyHandler(copies *services.CopyService) *CopyHandler {
	return &CopyHandler{copies: copies}
}

// AddCopies registers new copies of a title
// @Summary Add copies
// @Description Register count new copies. With auto_location the allocator places them near the category's start slot; otherwise they fill consecutive slots from location (Staff only)
// @Tags Copies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body services.AddCopiesInput true "Intake data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/{id}/copies [post]
func (h *CopyHandler) AddCopies(c *fiber.Ctx) error {
	bookID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	var req services.AddCopiesInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	copies, err := h.copies.AddCopies(c.UserContext(), bookID, &req, actor(c))
	if err != nil {
		return response.FromError(c, err)
	}

	out := make([]interface{}, 0, len(copies))
	for _, bookCopy := range copies {
		out = append(out, bookCopy.ToResponse())
	}
	return response.Created(c, "Copies added successfully", fiber.Map{
		"copies": out,
	})
}

// ListCopies lists the copies of a title
// @Summary List copies
// @Tags Copies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/copies [get]
func (h *CopyHandler) ListCopies(c *fiber.Ctx) error {
	bookID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	copies, err := h.copies.ListCopies(c.UserContext(), bookID)
	if err != nil {
		return response.FromError(c, err)
	}

	out := make([]interface{}, 0, len(copies))
	for _, bookCopy := range copies {
		out = append(out, bookCopy.ToResponse())
	}
	return response.Success(c, "", fiber.Map{"copies": out})
}

// RecommendLocation suggests a slot for a new copy
// @Summary Recommend location
// @Tags Locations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response{data=services.Recommendation}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/{id}/recommend-location [get]
func (h *CopyHandler) RecommendLocation(c *fiber.Ctx) error {
	bookID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	rec, err := h.copies.RecommendLocation(c.UserContext(), bookID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "", rec)
}

// CheckSlot reports whether a coordinate is free
// @Summary Check slot
// @Tags Locations
// @Produce json
// @Security BearerAuth
// @Param section query string true "Section code"
// @Param shelf query int true "Shelf"
// @Param row query int true "Row"
// @Param slot query int true "Slot"
// @Param exclude_copy_id query int false "Ignore this copy when checking"
// @Success 200 {object} response.Response{data=services.SlotStatus}
// @Failure 400 {object} response.Response
// @Router /locations/check [get]
func (h *CopyHandler) CheckSlot(c *fiber.Ctx) error {
	coord := domain.Coordinate{
		Section: strings.ToUpper(strings.TrimSpace(c.Query("section"))),
		Shelf:   c.QueryInt("shelf"),
		Row:     c.QueryInt("row"),
		Slot:    c.QueryInt("slot"),
	}
	if coord.Section == "" {
		return response.BadRequest(c, "Section is required")
	}

	status, err := h.copies.CheckSlot(c.UserContext(), coord, queryID(c, "exclude_copy_id"))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "", status)
}

// MoveCopyRequest represents a relocation request. A null location
// unshelves the copy.
type MoveCopyRequest struct {
	Location *services.CoordinateInput `json:"location"`
}

// MoveCopy relocates a copy
// @Summary Move copy
// @Tags Locations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Param body body MoveCopyRequest true "New location"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /copies/{id}/location [put]
func (h *CopyHandler) MoveCopy(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}

	var req MoveCopyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var target *domain.Coordinate
	if req.Location != nil {
		coord := req.Location.Coordinate()
		target = &coord
	}

	bookCopy, err := h.copies.MoveCopy(c.UserContext(), id, target, actor(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Copy moved", fiber.Map{
		"copy": bookCopy.ToResponse(),
	})
}

// GetCopy gets a copy by ID
// @Summary Get copy
// @Tags Copies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /copies/{id} [get]
func (h *CopyHandler) GetCopy(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}

	bookCopy, err := h.copies.GetCopy(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "", fiber.Map{"copy": bookCopy.ToResponse()})
}

// History lists the transaction log of a copy
// @Summary Copy history
// @Tags Copies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /copies/{id}/history [get]
func (h *CopyHandler) History(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}

	params := pagination.History.Params(c)
	entries, total, err := h.copies.History(c.UserContext(), id, params.Offset, params.Limit)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "", pagination.NewResponse(entries, params, total))
}

// ListSections lists the shelving grid
// @Summary List sections
// @Tags Locations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /sections [get]
func (h *CopyHandler) ListSections(c *fiber.Ctx) error {
	sections, err := h.copies.ListSections(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "", fiber.Map{"sections": sections})
}
