package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/media-service/internal/procedure"
)

// ProceduresHandler dispatches HTTP calls into the procedure router.
type ProceduresHandler struct {
	router *procedure.Router
}

// NewProceduresHandler constructs handler.
func NewProceduresHandler(router *procedure.Router) *ProceduresHandler {
	return &ProceduresHandler{router: router}
}

// Call handles POST /api/procedures/:name.
func (h *ProceduresHandler) Call(c *fiber.Ctx) error {
	req := procedure.Request{
		Name:      c.Params("name"),
		Token:     bearerToken(c),
		RemoteIP:  c.IP(),
		UserAgent: c.Get("User-Agent"),
		Payload:   c.Body(),
	}

	envelope, err := h.router.Dispatch(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(envelope.Status).JSON(envelope)
}

// List handles GET /api/procedures, returning the registered names.
func (h *ProceduresHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.router.Names()})
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
