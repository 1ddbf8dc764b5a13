package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-fabric-retail/internal/model"
	"go-fabric-retail/internal/service"
)

// actorFromCtx reads the user info placed in locals by the auth middleware.
func actorFromCtx(c *fiber.Ctx) service.Actor {
	actor := service.Actor{Role: model.RoleStaff}
	if id, ok := c.Locals("user_id").(string); ok {
		if parsed, err := uuid.Parse(id); err == nil {
			actor.ID = parsed
		}
	}
	if name, ok := c.Locals("user_name").(string); ok {
		actor.Name = name
	}
	if email, ok := c.Locals("user_email").(string); ok {
		actor.Email = email
	}
	if role, ok := c.Locals("user_role").(string); ok {
		actor.Role = model.Role(role)
	}
	return actor
}

// respondError translates service errors into the HTTP contract: validation
// failures are 400 with the message verbatim, missing records are 404, and
// everything else is a generic 500 with no internal detail.
func respondError(c *fiber.Ctx, err error) error {
	var valErr *service.ValidationError
	switch {
	case errors.As(err, &valErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": valErr.Message})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
}
