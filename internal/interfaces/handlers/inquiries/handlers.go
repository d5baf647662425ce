package inquiries

import (
	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/middleware"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *dataservice.Service
}

// POST /api/v1/listings/:id/inquiries. Anonymous visitors may ask; missing
// contact fields are taken from the current profile.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in dataservice.InquiryInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	return response.Created(c, h.Service.CreateInquiry(c.UserContext(), c.Params("id"), middleware.ActorID(c), in))
}

// GET /api/v1/admin/inquiries?limit
func (h *Handlers) AdminList(c *fiber.Ctx) error {
	return response.Success(c, h.Service.AdminGetInquiries(c.UserContext(), c.QueryInt("limit", 0)))
}
