package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tickethelp/repair-service/internal/auth"
	"github.com/tickethelp/repair-service/internal/domain"
	apperrors "github.com/tickethelp/repair-service/pkg/util"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return user, nil
}

// paramID parses a positive numeric path parameter. Anything else cannot
// name an existing row, so it is reported as not found.
func paramID(c *fiber.Ctx, name, resource string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound(resource, map[string]any{"id": c.Params(name)})
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"body": err.Error()})
	}
	return nil
}
