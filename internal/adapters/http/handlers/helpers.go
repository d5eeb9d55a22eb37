package handlers

import (
	"strconv"

	"library-circulation/internal/adapters/http/middleware"
	"library-circulation/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

// paramID reads a positive numeric path parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryID reads an optional numeric query parameter
func queryID(c *fiber.Ctx, name string) uint {
	id, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// patronScope returns the patron whose records the caller may list.
// Patrons always see their own; staff may pick one with ?patron_id.
func patronScope(c *fiber.Ctx, actor domain.Actor) uint {
	if actor.Role.IsStaff() {
		return queryID(c, "patron_id")
	}
	return actor.ID
}

func actor(c *fiber.Ctx) domain.Actor {
	return middleware.ActorFrom(c)
}
