package orders

import (
	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/middleware"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *dataservice.Service
}

// GET /api/v1/user/orders
func (h *Handlers) Mine(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetUserOrders(c.UserContext(), middleware.ActorID(c)))
}

// POST /api/v1/orders
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in dataservice.CreateOrderInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if in.ListingID == "" {
		return response.BadRequest(c, "Missing required field: listingId")
	}
	return response.Created(c, h.Service.CreateOrder(c.UserContext(), middleware.ActorID(c), in))
}

// GET /api/v1/admin/orders?userId&listingId&status
func (h *Handlers) AdminList(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetOrders(c.UserContext(), dataservice.OrderFilter{
		UserID:    c.Query("userId"),
		ListingID: c.Query("listingId"),
		Status:    c.Query("status"),
	}))
}

type statusRequest struct {
	Status string `json:"status"`
}

// PATCH /api/v1/admin/orders/:id/status
func (h *Handlers) AdminSetStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return response.BadRequest(c, "Missing required field: status")
	}
	return response.Success(c, h.Service.UpdateOrderStatus(c.UserContext(), c.Params("id"), req.Status))
}
