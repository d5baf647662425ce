package admin

import (
	"errors"

	"souk-backend/internal/application/appstate"
	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/application/mockdata"
	"souk-backend/internal/domain"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers expose the data service's maintenance operations.
type Handlers struct {
	Service *dataservice.Service
	State   *appstate.Service
}

// GET /api/v1/admin/modes
func (h *Handlers) GetModes(c *fiber.Ctx) error {
	return response.Success(c, response.OK(h.Service.Modes()))
}

// PUT /api/v1/admin/modes
func (h *Handlers) SetModes(c *fiber.Ctx) error {
	var p dataservice.ModesPatch
	if err := c.BodyParser(&p); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	return response.Success(c, h.Service.SetModes(c.UserContext(), p))
}

// POST /api/v1/admin/mock-caches/clear
func (h *Handlers) ClearMockCaches(c *fiber.Ctx) error {
	return response.Success(c, h.Service.ClearMockCaches(c.UserContext()))
}

type seedRequest struct {
	mockdata.Options
	Replace bool `json:"replace"`
}

// POST /api/v1/admin/seed. Counts left at zero use the demo dataset size.
func (h *Handlers) Seed(c *fiber.Ctx) error {
	var req seedRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}
	return response.Created(c, h.Service.SeedDemoData(c.UserContext(), req.Options, req.Replace))
}

// GET /api/v1/admin/activity-logs?limit
func (h *Handlers) ActivityLogs(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetActivityLogs(c.UserContext(), c.QueryInt("limit", 0)))
}

// GET /api/v1/admin/storage
func (h *Handlers) StorageInfo(c *fiber.Ctx) error {
	return response.Success(c, h.Service.StorageInfo(c.UserContext()))
}

// POST /api/v1/admin/storage/cleanup
func (h *Handlers) CleanupStorage(c *fiber.Ctx) error {
	return response.Success(c, h.Service.CleanupStorage(c.UserContext()))
}

// GET /api/v1/admin/state/export returns the snapshot as a JSON attachment.
func (h *Handlers) ExportState(c *fiber.Ctx) error {
	data, err := h.State.ExportJSON(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("Failed to export state")
		return response.Error(c, "Failed to export state", fiber.StatusInternalServerError, nil)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	c.Attachment("souk-state.json")
	return c.Send(data)
}

// POST /api/v1/admin/state/import takes an exported snapshot as the request body.
func (h *Handlers) ImportState(c *fiber.Ctx) error {
	if err := h.State.Import(c.UserContext(), c.Body()); err != nil {
		if errors.Is(err, domain.ErrStorageFull) {
			return response.Error(c, err.Error(), fiber.StatusInsufficientStorage, nil)
		}
		return response.BadRequest(c, err.Error())
	}
	return response.Success(c, response.OKMessage(h.State.Stats(c.UserContext()), "State imported successfully"))
}

// POST /api/v1/admin/state/clear
func (h *Handlers) ClearState(c *fiber.Ctx) error {
	if !h.State.Clear(c.UserContext()) {
		return response.Error(c, "Failed to clear state", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, response.OKMessage(h.State.Stats(c.UserContext()), "State cleared"))
}

// GET /api/v1/admin/state/stats
func (h *Handlers) StateStats(c *fiber.Ctx) error {
	return response.Success(c, response.OK(h.State.Stats(c.UserContext())))
}
