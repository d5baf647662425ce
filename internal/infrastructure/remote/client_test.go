package remote

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/api/v1/listings", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"total": 3}})
	})
	app.Post("/api/v1/echo", func(c *fiber.Ctx) error {
		var body map[string]interface{}
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return c.JSON(body)
	})
	app.Get("/api/v1/broken", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusBadGateway).SendString("upstream down")
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String() + "/api/v1"
}

func TestClient_DecodesJSON(t *testing.T) {
	c := &Client{BaseURL: startServer(t), Timeout: 2 * time.Second}

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, c.Do(context.Background(), fiber.MethodGet, "/listings", nil, &out))
	assert.True(t, out.Success)
	assert.Equal(t, 3, out.Data.Total)
}

func TestClient_SendsJSONBody(t *testing.T) {
	c := &Client{BaseURL: startServer(t), Timeout: 2 * time.Second}

	var out map[string]interface{}
	require.NoError(t, c.Do(context.Background(), fiber.MethodPost, "/echo", map[string]string{"title": "Dinde"}, &out))
	assert.Equal(t, "Dinde", out["title"])
}

func TestClient_StatusError(t *testing.T) {
	c := &Client{BaseURL: startServer(t), Timeout: 2 * time.Second}

	err := c.Do(context.Background(), fiber.MethodGet, "/broken", nil, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, fiber.StatusBadGateway, se.Code)
	assert.Equal(t, "upstream down", se.Body)
}

func TestClient_CancelledContext(t *testing.T) {
	c := &Client{BaseURL: "http://127.0.0.1:1"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Do(ctx, fiber.MethodGet, "/listings", nil, nil), context.Canceled)
}
