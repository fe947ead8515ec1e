package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/somo-app/SomoAppBack/internal/config"
)

type docEndpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Auth   bool   `json:"auth"`
	Notes  string `json:"notes,omitempty"`
}

// registerDocs exposes a machine-readable endpoint inventory in development
// builds only.
func registerDocs(app *fiber.App, cfg *config.Config) {
	if !cfg.DocsEnabled() {
		return
	}

	endpoints := []docEndpoint{
		{Method: "POST", Path: "/api/auth/register", Auth: false},
		{Method: "POST", Path: "/api/auth/login", Auth: false},
		{Method: "GET", Path: "/api/auth/me", Auth: true},
		{Method: "GET", Path: "/api/v1/lessons", Auth: true, Notes: "filters: search, subject, form"},
		{Method: "GET", Path: "/api/v1/lessons/purchased", Auth: true, Notes: "student only"},
		{Method: "GET", Path: "/api/v1/lessons/mine", Auth: true, Notes: "teacher only"},
		{Method: "POST", Path: "/api/v1/lessons", Auth: true, Notes: "teacher only"},
		{Method: "GET", Path: "/api/v1/lessons/:id", Auth: true},
		{Method: "GET", Path: "/api/v1/lessons/:id/ratings", Auth: true},
		{Method: "POST", Path: "/api/v1/lessons/:id/ratings", Auth: true, Notes: "student only, rating 1-5, upsert"},
		{Method: "GET", Path: "/api/v1/lessons/:id/ratings/me", Auth: true},
		{Method: "GET", Path: "/api/v1/cart", Auth: true, Notes: "student only"},
		{Method: "POST", Path: "/api/v1/cart/items", Auth: true, Notes: "student only"},
		{Method: "DELETE", Path: "/api/v1/cart/items/:lessonId", Auth: true, Notes: "student only"},
		{Method: "POST", Path: "/api/v1/cart/checkout", Auth: true, Notes: "student only"},
		{Method: "PUT", Path: "/api/v1/cart/checkout/method", Auth: true, Notes: "mpesa | tigopesa | bank | wallet"},
		{Method: "POST", Path: "/api/v1/cart/checkout/confirm", Auth: true, Notes: "student only"},
		{Method: "POST", Path: "/api/v1/cart/checkout/cancel", Auth: true, Notes: "student only"},
		{Method: "GET", Path: "/api/v1/profile", Auth: true},
		{Method: "PUT", Path: "/api/v1/profile", Auth: true},
		{Method: "POST", Path: "/api/v1/profile/avatar", Auth: true, Notes: "multipart field: avatar"},
		{Method: "GET", Path: "/api/v1/conversations", Auth: true},
		{Method: "POST", Path: "/api/v1/conversations", Auth: true, Notes: "student contacts teacher"},
		{Method: "GET", Path: "/api/v1/conversations/:id/messages", Auth: true, Notes: "paged, newest first"},
		{Method: "GET", Path: "/api/v1/ws", Auth: true, Notes: "websocket; ?token=, optional ?contact=<teacherId>"},
	}

	app.Get("/docs/endpoints", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"endpoints": endpoints})
	})
}
