package handlers

import (
	"library-circulation/internal/adapters/http/middleware"
	"library-circulation/internal/core/services"
	"library-circulation/internal/pkg/pagination"
	"library-circulation/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReservationHandler handles reservation endpoints
type ReservationHandler struct {
	reservations *services.ReservationService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservations *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// Reserve places a reservation
// @Summary Reserve
// @Description Reserve a title, or a specific copy when copy_id is given. Patrons always reserve for themselves
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ReserveInput true "Reservation data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /reservations [post]
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	var req services.ReserveInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	a := actor(c)
	if !a.Role.IsStaff() {
		req.PatronID = a.ID
	}

	reservation, err := h.reservations.ReserveCopy(c.UserContext(), &req, a)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Reservation created successfully", fiber.Map{
		"reservation": reservation,
	})
}

// Approve converts pending reservations into loans
// @Summary Approve reservations
// @Description Approve a patron's pending reservations for a title in FIFO order. A short count is reported, not an error (Staff only)
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ApproveInput true "Approval data"
// @Success 200 {object} response.Response{data=services.ApproveResult}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /reservations/approve [post]
func (h *ReservationHandler) Approve(c *fiber.Ctx) error {
	var req services.ApproveInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.reservations.ApproveReservations(c.UserContext(), &req, actor(c))
	if err != nil {
		return response.FromError(c, err)
	}

	message := "Reservations approved"
	if len(result.Pending) > 0 {
		message = "Reservations partially approved"
	}
	return response.Success(c, message, result)
}

// Decline rejects a pending reservation
// @Summary Decline reservation
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Param body body services.DeclineInput true "Decline reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /reservations/{id}/decline [put]
func (h *ReservationHandler) Decline(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	var req services.DeclineInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	reservation, err := h.reservations.Decline(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Reservation declined", fiber.Map{
		"reservation": reservation,
	})
}

// Cancel withdraws a pending reservation
// @Summary Cancel reservation
// @Description Patrons may cancel their own reservations; staff may cancel any
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /reservations/{id}/cancel [put]
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	reservation, err := h.reservations.Cancel(c.UserContext(), id, middleware.ActorFrom(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Reservation cancelled", fiber.Map{
		"reservation": reservation,
	})
}

// Get gets a reservation by ID
// @Summary Get reservation
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reservations/{id} [get]
func (h *ReservationHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	reservation, err := h.reservations.GetReservation(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}

	a := actor(c)
	if !a.Role.IsStaff() && reservation.PatronID != a.ID {
		return response.Forbidden(c, "You don't have permission to access this reservation")
	}

	return response.Success(c, "", fiber.Map{"reservation": reservation})
}

// List lists reservations
// @Summary List reservations
// @Description Patrons see their own reservations; staff may filter by patron_id
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param patron_id query int false "Filter by patron (staff only)"
// @Success 200 {object} response.Response
// @Router /reservations [get]
func (h *ReservationHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	patronID := patronScope(c, actor(c))

	reservations, total, err := h.reservations.ListReservations(c.UserContext(), patronID, params.Offset, params.Limit)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "", pagination.NewResponse(reservations, params, total))
}
