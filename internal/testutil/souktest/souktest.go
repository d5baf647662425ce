// Package souktest builds in-memory data services and drives fiber apps in handler tests.
package souktest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/application/listings"
	"souk-backend/internal/application/mockdata"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/infrastructure/syncbus"
	"souk-backend/internal/middleware"
	"souk-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// PNG is a minimal PNG header, enough for MIME sniffing.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// Env is a data service over a memory backend with a fixed clock.
type Env struct {
	Service *dataservice.Service
	Store   *storage.SafeStore
	Bus     *syncbus.Bus
	Clock   *testutil.StubClock
}

// NewEnv builds an initialised, mock-mode data service.
func NewEnv(t *testing.T) Env {
	t.Helper()
	bus := syncbus.New()
	clk := testutil.FixedClock()
	safe := storage.NewSafeStore(storage.NewMemoryBackend(0), bus, clk)
	svc := dataservice.New(dataservice.Context{
		Storage:   safe,
		Listings:  listings.NewStore(safe, clk, testutil.NewStubIDGenerator("listing")),
		Clock:     clk,
		IDs:       testutil.NewStubIDGenerator("id"),
		Generator: mockdata.NewGenerator(42, clk),
	})
	require.NoError(t, svc.Init(context.Background()))
	t.Cleanup(svc.Dispose)
	return Env{Service: svc, Store: safe, Bus: bus, Clock: clk}
}

// NewApp returns a fiber app with the identity middleware and the global error handler.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(middleware.Identity())
	return app
}

// As returns identity headers for the given actor.
func As(id, role string) map[string]string {
	return map[string]string{middleware.UserIDHeader: id, middleware.UserRoleHeader: role}
}

// Request sends body as JSON (when non-nil) and returns the status and the decoded body.
func Request(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return send(t, app, req, headers)
}

// File is one part of a multipart request.
type File struct {
	Field    string
	Filename string
	Data     []byte
}

// Multipart sends a multipart form with the given values and files.
func Multipart(t *testing.T, app *fiber.App, method, path string, values map[string]string, files []File, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		require.NoError(t, err)
		_, err = part.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return send(t, app, req, headers)
}

func send(t *testing.T, app *fiber.App, req *http.Request, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp.StatusCode, out
}

// Data returns the "data" object of a decoded envelope.
func Data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", body["data"])
	return d
}
