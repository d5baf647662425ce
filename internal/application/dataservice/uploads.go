package dataservice

import (
	"context"
	"encoding/base64"
	"strings"

	"souk-backend/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// Upload is a file received from a multipart form.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// IsImageField reports whether a form field carries listing images.
func IsImageField(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "photo") || strings.Contains(n, "image")
}

// DataURL embeds an upload as a base64 data URL. The MIME type is sniffed from
// the content; the declared type is only used when sniffing finds nothing better.
func DataURL(u Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", domain.ErrInvalidImage
	}
	mime := mimetype.Detect(u.Data).String()
	if mime == "application/octet-stream" && u.ContentType != "" {
		mime = u.ContentType
	}
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(u.Data), nil
}

// encodeUploads converts every upload concurrently, preserving order. It returns
// once all conversions have completed.
func encodeUploads(ctx context.Context, uploads []Upload) ([]string, error) {
	out := make([]string, len(uploads))
	g, ctx := errgroup.WithContext(ctx)
	for i, u := range uploads {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			url, err := DataURL(u)
			if err != nil {
				return err
			}
			out[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// keepURLs drops blank and blob: references from client-supplied image URLs.
// Everything else is passed through untouched.
func keepURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || strings.HasPrefix(u, "blob:") {
			continue
		}
		out = append(out, u)
	}
	return out
}
