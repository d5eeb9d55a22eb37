package handlers

import (
	"library-circulation/internal/core/services"
	"library-circulation/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog and reconciliation endpoints
type BookHandler struct {
	reconcile *services.ReconcileService
}

// NewBookHandler creates a new book handler
func NewBookHandler(reconcile *services.ReconcileService) *BookHandler {
	return &BookHandler{reconcile: reconcile}
}

// GetBook reads a title with freshly reconciled counters
// @Summary Get book
// @Description Get a title. Its copy counters are recounted from the registry before reading
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.reconcile.GetBook(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "", fiber.Map{"book": book})
}

// Reconcile recounts catalog counters
// @Summary Reconcile counters
// @Description Recount total and available copies. With book_id only that title is reconciled (Admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param book_id query int false "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/reconcile [post]
func (h *BookHandler) Reconcile(c *fiber.Ctx) error {
	if bookID := queryID(c, "book_id"); bookID != 0 {
		result, err := h.reconcile.ReconcileBook(c.UserContext(), bookID)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, "Book reconciled", result)
	}

	summary, err := h.reconcile.ReconcileAll(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Catalog reconciled", summary)
}
