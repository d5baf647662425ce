package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote responded %d: %s", e.Code, e.Body)
}

// Client calls the marketplace REST API with fiber's HTTP agent.
type Client struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

// Do sends body as JSON (when non-nil) and decodes the response into out (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(strings.TrimRight(c.BaseURL, "/") + path)
	for k, v := range c.Headers {
		a.Set(k, v)
	}
	if timeout := c.timeout(ctx); timeout > 0 {
		a.Timeout(timeout)
	}
	if body != nil {
		a.JSON(body)
	}
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return err
	}

	code, data, errs := a.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if code < 200 || code >= 300 {
		msg := string(data)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return &StatusError{Code: code, Body: msg}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *Client) timeout(ctx context.Context) time.Duration {
	t := c.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); t <= 0 || left < t {
			t = left
		}
	}
	return t
}
