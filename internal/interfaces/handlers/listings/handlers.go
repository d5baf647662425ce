package listings

import (
	"strings"

	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/constants"
	"souk-backend/internal/interfaces/handlers/uploads"
	"souk-backend/internal/middleware"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *dataservice.Service
}

func listParams(c *fiber.Ctx) dataservice.ListParams {
	return dataservice.ListParams{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 20),
		Query:    c.Query("q", c.Query("search")),
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Wilaya:   c.Query("wilaya"),
	}
}

// GET /api/v1/listings?page&limit&q&category&status&wilaya
func (h *Handlers) List(c *fiber.Ctx) error {
	return response.Success(c, h.Service.ListListings(c.UserContext(), listParams(c)))
}

// GET /api/v1/listings/search?q&category
func (h *Handlers) Search(c *fiber.Ctx) error {
	return response.Success(c, h.Service.SearchListings(c.UserContext(), c.Query("q"), c.Query("category")))
}

// GET /api/v1/listings/:id
func (h *Handlers) Details(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetListingDetails(c.UserContext(), c.Params("id")))
}

// POST /api/v1/listings/:id/view
func (h *Handlers) RecordView(c *fiber.Ctx) error {
	return response.Success(c, h.Service.RecordListingView(c.UserContext(), c.Params("id")))
}

// GET /api/v1/listings/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetMyListings(c.UserContext(), middleware.ActorID(c)))
}

// GET /api/v1/listings/saved
func (h *Handlers) Saved(c *fiber.Ctx) error {
	return response.Success(c, h.Service.GetSavedListings(c.UserContext(), middleware.ActorID(c)))
}

// POST /api/v1/listings/:id/save toggles the actor's bookmark.
func (h *Handlers) ToggleSaved(c *fiber.Ctx) error {
	return response.Success(c, h.Service.ToggleSavedListing(c.UserContext(), c.Params("id"), middleware.ActorID(c)))
}

// POST /api/v1/listings accepts JSON or a multipart form whose photo/image fields carry files.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in dataservice.CreateListingInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	files, err := uploads.Files(c, dataservice.IsImageField)
	if err != nil {
		return uploads.WriteError(c, err)
	}
	in.Uploads = files
	in.Title = strings.TrimSpace(in.Title)
	return response.Created(c, h.Service.CreateListing(c.UserContext(), middleware.ActorID(c), in))
}

// PUT /api/v1/listings/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if ok, err := h.authorizeOwner(c, id, constants.CanEditListing); !ok {
		return err
	}
	var in dataservice.UpdateListingInput
	if err := c.BodyParser(&in.Patch); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	in.Patch.CreatedBy, in.Patch.SavedBy, in.Patch.Views, in.Patch.Inquiries = nil, nil, nil, nil
	files, err := uploads.Files(c, dataservice.IsImageField)
	if err != nil {
		return uploads.WriteError(c, err)
	}
	in.Uploads = files
	return response.Success(c, h.Service.UpdateListing(c.UserContext(), id, in))
}

// DELETE /api/v1/listings/:id succeeds for unknown ids.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if ok, err := h.authorizeOwner(c, id, constants.CanDeleteListing); !ok {
		return err
	}
	return response.Success(c, h.Service.DeleteListing(c.UserContext(), id))
}

type statusRequest struct {
	Status string `json:"status"`
}

// PATCH /api/v1/listings/:id/status
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	if ok, err := h.authorizeOwner(c, id, constants.CanEditListing); !ok {
		return err
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return response.BadRequest(c, "Missing required field: status")
	}
	return response.Success(c, h.Service.SetListingStatus(c.UserContext(), id, req.Status))
}

// GET /api/v1/admin/listings
func (h *Handlers) AdminList(c *fiber.Ctx) error {
	return response.Success(c, h.Service.AdminListListings(c.UserContext(), listParams(c)))
}

// PATCH /api/v1/admin/listings/:id/status
func (h *Handlers) AdminSetStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return response.BadRequest(c, "Missing required field: status")
	}
	return response.Success(c, h.Service.AdminSetListingStatus(c.UserContext(), c.Params("id"), req.Status))
}

// authorizeOwner reports whether the actor may act on the listing. When it
// returns false the response has already been written.
// Unknown listings pass so the service can report them.
func (h *Handlers) authorizeOwner(c *fiber.Ctx, id string, allowed func(role, actorID, ownerID string) bool) (bool, error) {
	actor := middleware.GetActor(c)
	if actor == nil {
		return false, response.Unauthorized(c, "Unauthorized")
	}
	res := h.Service.GetListingDetails(c.UserContext(), id)
	if !res.Success {
		return true, nil
	}
	if !allowed(actor.Role, actor.ID, res.Data.Listing.CreatedBy) {
		return false, response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
	}
	return true, nil
}
