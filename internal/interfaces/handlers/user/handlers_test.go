package user

import (
	"testing"

	"souk-backend/internal/constants"
	"souk-backend/internal/middleware"
	"souk-backend/internal/testutil/souktest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	superAdmin = souktest.As("1", "super_admin")
	member     = souktest.As("3", "user")
)

func setupUserTest(t *testing.T) *fiber.App {
	env := souktest.NewEnv(t)
	h := &Handlers{Service: env.Service}
	app := souktest.NewApp()
	app.Get("/user/profile", middleware.AuthorizePermission(constants.ViewProfile), h.GetProfile)
	app.Patch("/user/profile", middleware.AuthorizePermission(constants.EditOwnProfile), h.UpdateProfile)
	app.Get("/admin/users", middleware.AuthorizePermission(constants.ViewAllUsers), h.List)
	app.Post("/admin/users", middleware.AuthorizePermission(constants.CreateUser), h.Create)
	app.Patch("/admin/users/:id", middleware.AuthorizePermission(constants.EditAnyUser), h.Update)
	app.Delete("/admin/users/:id", middleware.AuthorizePermission(constants.DeleteUser), h.Delete)
	return app
}

func TestProfile_GetAndUpdate(t *testing.T) {
	app := setupUserTest(t)
	status, body := souktest.Request(t, app, "GET", "/user/profile", nil, member)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "demo@souk.dz", souktest.Data(t, body)["email"])

	status, body = souktest.Request(t, app, "PATCH", "/user/profile", map[string]interface{}{"wilaya": "Oran"}, member)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Oran", souktest.Data(t, body)["wilaya"])

	status, body = souktest.Request(t, app, "PATCH", "/user/profile", map[string]interface{}{"email": "nope"}, member)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid email", body["message"])
}

func TestAdminUsers_Forbidden(t *testing.T) {
	app := setupUserTest(t)
	status, body := souktest.Request(t, app, "GET", "/admin/users", nil, member)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "User is Forbidden from performing this action", body["message"])
}

func TestAdminUsers_CRUD(t *testing.T) {
	app := setupUserTest(t)

	status, body := souktest.Request(t, app, "GET", "/admin/users", nil, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), souktest.Data(t, body)["total"])

	status, _ = souktest.Request(t, app, "POST", "/admin/users", map[string]interface{}{"role": "admin"}, superAdmin)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = souktest.Request(t, app, "POST", "/admin/users", map[string]interface{}{
		"email": "vendeur@souk.dz",
		"role":  "user",
	}, superAdmin)
	require.Equal(t, fiber.StatusCreated, status, body)
	id := souktest.Data(t, body)["id"].(string)
	assert.Equal(t, "4", id)

	status, body = souktest.Request(t, app, "GET", "/admin/users?q=vendeur&isActive=true", nil, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, souktest.Data(t, body)["users"], 1)

	status, _ = souktest.Request(t, app, "GET", "/admin/users?isActive=maybe", nil, superAdmin)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = souktest.Request(t, app, "PATCH", "/admin/users/"+id, map[string]interface{}{"isActive": false}, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, souktest.Data(t, body)["isActive"])

	status, _ = souktest.Request(t, app, "PATCH", "/admin/users/99", map[string]interface{}{"fullName": "x"}, superAdmin)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = souktest.Request(t, app, "DELETE", "/admin/users/"+id, nil, superAdmin)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, souktest.Data(t, body)["deleted"])
}
