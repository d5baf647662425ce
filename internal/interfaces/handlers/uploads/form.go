package uploads

import (
	"errors"
	"io"
	"mime/multipart"
	"sort"
	"strings"

	"souk-backend/internal/application/dataservice"
	"souk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// MaxFileBytes caps a single uploaded file.
const MaxFileBytes = 8 << 20

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// Files reads every file part of a multipart request, ordered by field name. When only
// is non-nil, fields it rejects are skipped. Non-multipart requests yield nil.
func Files(c *fiber.Ctx, only func(field string) bool) ([]dataservice.Upload, error) {
	if !IsMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		if only == nil || only(field) {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)
	var out []dataservice.Upload
	for _, field := range fields {
		for _, fh := range form.File[field] {
			u, err := read(field, fh)
			if err != nil {
				log.Warn().Err(err).Str("field", field).Str("file", fh.Filename).Msg("upload: failed to read file")
				return nil, err
			}
			out = append(out, u)
		}
	}
	return out, nil
}

// File returns the first file sent under field, or nil when there is none.
func File(c *fiber.Ctx, field string) (*dataservice.Upload, error) {
	if !IsMultipart(c) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	u, err := read(field, fh)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func read(field string, fh *multipart.FileHeader) (dataservice.Upload, error) {
	if fh.Size > MaxFileBytes {
		return dataservice.Upload{}, fiber.NewError(fiber.StatusRequestEntityTooLarge, "File too large")
	}
	f, err := fh.Open()
	if err != nil {
		return dataservice.Upload{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return dataservice.Upload{}, err
	}
	return dataservice.Upload{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

// WriteError answers a failed upload: fiber errors keep their status, anything else is a 400.
func WriteError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code, nil)
	}
	return response.BadRequest(c, "Invalid multipart form")
}
