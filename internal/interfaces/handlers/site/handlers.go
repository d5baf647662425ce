package site

import (
	"strconv"

	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/domain"
	"souk-backend/internal/interfaces/handlers/uploads"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serve the site settings singletons. Public routes and admin routes
// share handlers; Admin selects the admin view of each setting.
type Handlers struct {
	Service *dataservice.Service
	Admin   bool
}

func (h *Handlers) GetMovingHeader(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetMovingHeader(c.UserContext(), h.Admin))
}

func (h *Handlers) GetHeroSlides(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetHeroSlides(c.UserContext(), h.Admin))
}

func (h *Handlers) GetCTA(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetCTA(c.UserContext(), h.Admin))
}

func (h *Handlers) GetFooter(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetFooter(c.UserContext(), h.Admin))
}

func (h *Handlers) GetLogo(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetLogo(c.UserContext(), h.Admin))
}

// PUT /api/v1/admin/site/moving-header
func (h *Handlers) UpdateMovingHeader(c *fiber.Ctx) error {
	var in domain.MovingHeader
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	return response.Success(c, h.Service.UpdateMovingHeader(c.UserContext(), in))
}

// POST /api/v1/admin/site/hero-slides (multipart: image, durationSeconds)
func (h *Handlers) AddHeroSlide(c *fiber.Ctx) error {
	file, err := uploads.File(c, "image")
	if err != nil {
		return uploads.WriteError(c, err)
	}
	if file == nil {
		return response.BadRequest(c, "Missing required field: image")
	}
	return response.Created(c, h.Service.AddHeroSlide(c.UserContext(), *file, c.QueryInt("durationSeconds", formInt(c, "durationSeconds"))))
}

// PUT /api/v1/admin/site/hero-slides
func (h *Handlers) UpdateHeroSlides(c *fiber.Ctx) error {
	var in dataservice.SlidesData
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	return response.Success(c, h.Service.UpdateHeroSlides(c.UserContext(), in.Slides))
}

// DELETE /api/v1/admin/site/hero-slides/:id
func (h *Handlers) DeleteHeroSlide(c *fiber.Ctx) error {
	return response.Success(c, h.Service.DeleteHeroSlide(c.UserContext(), c.Params("id")))
}

// PUT /api/v1/admin/site/cta accepts JSON or a multipart form with an optional image file.
func (h *Handlers) UpdateCTA(c *fiber.Ctx) error {
	var in dataservice.CTAUpdate
	if err := c.BodyParser(&in.Fields); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	file, err := uploads.File(c, "image")
	if err != nil {
		return uploads.WriteError(c, err)
	}
	in.Image = file
	return response.Success(c, h.Service.UpdateCTA(c.UserContext(), in))
}

// PUT /api/v1/admin/site/footer
func (h *Handlers) UpdateFooter(c *fiber.Ctx) error {
	var in domain.Footer
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	return response.Success(c, h.Service.UpdateFooter(c.UserContext(), in))
}

type logoRequest struct {
	LogoLight *string `json:"logoLight" form:"logoLight"`
	LogoDark  *string `json:"logoDark" form:"logoDark"`
}

// PUT /api/v1/admin/site/logo. Each variant is a URL value or a file under the same field name.
func (h *Handlers) UpdateLogo(c *fiber.Ctx) error {
	var req logoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	in := dataservice.LogoUpdate{LogoLight: req.LogoLight, LogoDark: req.LogoDark}
	var err error
	if in.LightUpload, err = uploads.File(c, "logoLight"); err != nil {
		return uploads.WriteError(c, err)
	}
	if in.DarkUpload, err = uploads.File(c, "logoDark"); err != nil {
		return uploads.WriteError(c, err)
	}
	return response.Success(c, h.Service.UpdateLogo(c.UserContext(), in))
}

func formInt(c *fiber.Ctx, key string) int {
	n, _ := strconv.Atoi(c.FormValue(key))
	return n
}
