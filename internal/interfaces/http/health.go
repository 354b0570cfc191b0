package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cilindros-api/internal/application/dto"
)

// HealthHandler GET /health, sin autenticación. events se consulta en cada request.
func HealthHandler(service, store string, events func() dto.EventsHealth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out := dto.HealthResponse{Status: "ok", Service: service, Store: store}
		if events != nil {
			out.Events = events()
		}
		return c.JSON(out)
	}
}
