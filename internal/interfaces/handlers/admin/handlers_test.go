package admin

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"souk-backend/internal/application/appstate"
	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/constants"
	"souk-backend/internal/middleware"
	"souk-backend/internal/testutil/souktest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var superAdmin = souktest.As("1", "super_admin")

func setupAdminTest(t *testing.T) (*fiber.App, souktest.Env) {
	env := souktest.NewEnv(t)
	h := &Handlers{
		Service: env.Service,
		State:   appstate.NewService(env.Store, env.Service.Listings(), env.Clock),
	}
	app := souktest.NewApp()
	g := app.Group("/admin", middleware.AuthorizePermission(constants.ManageSite))
	g.Get("/modes", h.GetModes)
	g.Put("/modes", h.SetModes)
	g.Post("/mock-caches/clear", h.ClearMockCaches)
	g.Post("/seed", h.Seed)
	g.Get("/activity-logs", h.ActivityLogs)
	g.Get("/storage", h.StorageInfo)
	g.Post("/storage/cleanup", h.CleanupStorage)
	g.Get("/state/export", h.ExportState)
	g.Post("/state/import", h.ImportState)
	g.Post("/state/clear", h.ClearState)
	g.Get("/state/stats", h.StateStats)
	return app, env
}

func TestModes(t *testing.T) {
	app, _ := setupAdminTest(t)
	status, body := souktest.Request(t, app, "GET", "/admin/modes", nil, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, souktest.Data(t, body)["mock"])

	status, body = souktest.Request(t, app, "PUT", "/admin/modes", map[string]interface{}{"mock": false, "users": false}, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	modes := souktest.Data(t, body)
	assert.Equal(t, false, modes["mock"])
	assert.Equal(t, false, modes["users"])
	assert.Equal(t, true, modes["listings"])
}

func TestSeedAndActivityLogs(t *testing.T) {
	app, env := setupAdminTest(t)
	status, body := souktest.Request(t, app, "POST", "/admin/seed", map[string]interface{}{
		"userCount":     2,
		"listingCount":  4,
		"orderCount":    3,
		"inquiryCount":  3,
		"activityCount": 6,
		"seed":          11,
		"replace":       true,
	}, superAdmin)
	require.Equal(t, fiber.StatusCreated, status, body)
	summary := souktest.Data(t, body)
	assert.Equal(t, float64(4), summary["listings"])
	assert.Equal(t, true, summary["replaced"])
	assert.Len(t, env.Service.Listings().GetAll(context.Background()), 4)

	status, body = souktest.Request(t, app, "GET", "/admin/activity-logs?limit=2", nil, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 2)

	status, body = souktest.Request(t, app, "POST", "/admin/mock-caches/clear", nil, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["data"])
	assert.Empty(t, env.Service.Listings().GetAll(context.Background()))
}

func TestStorageInfoAndCleanup(t *testing.T) {
	app, env := setupAdminTest(t)
	require.True(t, env.Service.CreateListing(context.Background(), "1", dataservice.CreateListingInput{Title: "Poulet"}).Success)

	status, body := souktest.Request(t, app, "GET", "/admin/storage", nil, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	assert.Greater(t, souktest.Data(t, body)["itemCount"], float64(0))

	status, body = souktest.Request(t, app, "POST", "/admin/storage/cleanup", nil, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
}

func TestStateExportImportClear(t *testing.T) {
	app, env := setupAdminTest(t)
	ctx := context.Background()
	require.True(t, env.Service.CreateListing(ctx, "1", dataservice.CreateListingInput{Title: "Poulet"}).Success)

	req := httptest.NewRequest("GET", "/admin/state/export", nil)
	for k, v := range superAdmin {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "souk-state.json")
	exported, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(exported), `"version": "1.0.0"`)

	status, body := souktest.Request(t, app, "POST", "/admin/state/clear", nil, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), souktest.Data(t, body)["listings"])

	importReq := httptest.NewRequest("POST", "/admin/state/import", strings.NewReader(string(exported)))
	importReq.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range superAdmin {
		importReq.Header.Set(k, v)
	}
	resp, err = app.Test(importReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	status, body = souktest.Request(t, app, "GET", "/admin/state/stats", nil, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), souktest.Data(t, body)["listings"])

	badReq := httptest.NewRequest("POST", "/admin/state/import", strings.NewReader("{not json"))
	for k, v := range superAdmin {
		badReq.Header.Set(k, v)
	}
	resp, err = app.Test(badReq)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminForbiddenForStaff(t *testing.T) {
	app, _ := setupAdminTest(t)
	status, _ := souktest.Request(t, app, "POST", "/admin/seed", nil, souktest.As("2", "admin"))
	assert.Equal(t, fiber.StatusForbidden, status)
}
