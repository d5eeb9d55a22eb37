package handlers

import (
	"library-circulation/internal/core/services"
	"library-circulation/internal/pkg/pagination"
	"library-circulation/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CirculationHandler handles loan and copy status endpoints
type CirculationHandler struct {
	circulation *services.CirculationService
}

// NewCirculationHandler creates a new circulation handler
func NewCirculationHandler(circulation *services.CirculationService) *CirculationHandler {
	return &CirculationHandler{circulation: circulation}
}

// Checkout lends a copy to a patron
// @Summary Checkout
// @Description Lend a copy to a patron. Without copy_id the first available copy is used (Staff only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CheckoutInput true "Checkout data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans [post]
func (h *CirculationHandler) Checkout(c *fiber.Ctx) error {
	var req services.CheckoutInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.circulation.Checkout(c.UserContext(), &req, actor(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Copy checked out successfully", fiber.Map{
		"loan": loan,
	})
}

// Return closes a loan
// @Summary Return loan
// @Description Check a copy back in, computing late and damage fees (Staff only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body services.ReturnInput false "Return data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/return [put]
func (h *CirculationHandler) Return(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req services.ReturnInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	loan, err := h.circulation.Return(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Loan returned successfully", fiber.Map{
		"loan": loan,
	})
}

// GetLoan gets a loan by ID
// @Summary Get loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *CirculationHandler) GetLoan(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.circulation.GetLoan(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}

	a := actor(c)
	if !a.Role.IsStaff() && loan.PatronID != a.ID {
		return response.Forbidden(c, "You don't have permission to access this loan")
	}

	return response.Success(c, "", fiber.Map{"loan": loan})
}

// ListLoans lists loans
// @Summary List loans
// @Description Patrons see their own loans; staff may filter by patron_id
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param patron_id query int false "Filter by patron (staff only)"
// @Success 200 {object} response.Response
// @Router /loans [get]
func (h *CirculationHandler) ListLoans(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	patronID := patronScope(c, actor(c))

	loans, total, err := h.circulation.ListLoans(c.UserContext(), patronID, params.Offset, params.Limit)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "", pagination.NewResponse(loans, params, total))
}

// MarkStatus takes a copy out of service
// @Summary Mark copy status
// @Description Move an available copy to lost, damaged or maintenance (Staff only)
// @Tags Copies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Param body body services.MarkStatusInput true "Status data"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /copies/{id}/status [put]
func (h *CirculationHandler) MarkStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}

	var req services.MarkStatusInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	bookCopy, err := h.circulation.MarkStatus(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Copy status updated", fiber.Map{
		"copy": bookCopy.ToResponse(),
	})
}

// Restore returns an out-of-service copy to the shelf
// @Summary Restore copy
// @Tags Copies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Param body body services.RestoreInput false "Restore data"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /copies/{id}/restore [put]
func (h *CirculationHandler) Restore(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}

	var req services.RestoreInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	bookCopy, err := h.circulation.Restore(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Copy restored", fiber.Map{
		"copy": bookCopy.ToResponse(),
	})
}

// Release frees a reserved copy
// @Summary Release copy
// @Description Release a held copy back to the shelf (Staff only)
// @Tags Copies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /copies/{id}/release [put]
func (h *CirculationHandler) Release(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}

	bookCopy, err := h.circulation.Release(c.UserContext(), id, actor(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Copy released", fiber.Map{
		"copy": bookCopy.ToResponse(),
	})
}

// Deactivate withdraws a copy from the collection
// @Summary Deactivate copy
// @Tags Copies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /copies/{id} [delete]
func (h *CirculationHandler) Deactivate(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}

	if err := h.circulation.Deactivate(c.UserContext(), id, actor(c)); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Copy deactivated", nil)
}
