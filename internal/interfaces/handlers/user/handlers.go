package user

import (
	"strconv"

	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *dataservice.Service
}

// GET /api/v1/user/profile
func (h *Handlers) GetProfile(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetProfile(c.UserContext()))
}

// PATCH /api/v1/user/profile
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var p dataservice.ProfilePatch
	if err := c.BodyParser(&p); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	return response.Success(c, h.Service.UpdateProfile(c.UserContext(), p))
}

// GET /api/v1/admin/users?q&role&isActive&page&limit
func (h *Handlers) List(c *fiber.Ctx) error {
	f := dataservice.UserFilter{
		Query: c.Query("q", c.Query("search")),
		Role:  c.Query("role"),
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 50),
	}
	if v := c.Query("isActive"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return response.BadRequest(c, "isActive must be true or false")
		}
		f.IsActive = &active
	}
	return response.Success(c, h.Service.AdminListUsers(c.UserContext(), f))
}

// POST /api/v1/admin/users
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in dataservice.CreateUserInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if in.Email == "" {
		return response.BadRequest(c, "Missing required field: email")
	}
	return response.Created(c, h.Service.AdminCreateUser(c.UserContext(), in))
}

// PATCH /api/v1/admin/users/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	var p dataservice.UserPatch
	if err := c.BodyParser(&p); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	return response.Success(c, h.Service.AdminUpdateUser(c.UserContext(), c.Params("id"), p))
}

// DELETE /api/v1/admin/users/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	return response.Success(c, h.Service.AdminDeleteUser(c.UserContext(), c.Params("id")))
}
