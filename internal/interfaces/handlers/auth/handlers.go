package auth

import (
	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *dataservice.Service
}

// POST /api/v1/auth/register
func (h *Handlers) Register(c *fiber.Ctx) error {
	var in dataservice.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if in.Email == "" || in.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}
	return response.Created(c, h.Service.RegisterUser(c.UserContext(), in))
}

// POST /api/v1/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	var in dataservice.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if in.Email == "" || in.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}
	return response.Success(c, h.Service.Login(c.UserContext(), in))
}
