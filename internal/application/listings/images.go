package listings

import (
	"path"
	"strings"

	"souk-backend/internal/domain"
)

// Bundled fallback images.
const (
	ChickenImage = "/assets/chicken.png"
	TurkeyImage  = "/assets/turkey.png"
)

// FallbackImage picks the bundled image matching category.
func FallbackImage(category string) string {
	if domain.IsTurkeyCategory(category) {
		return TurkeyImage
	}
	return ChickenImage
}

// ResolveImage clears blob: references and maps bundled placeholder names to asset paths.
// Embedded data URLs and remote URLs are returned untouched.
func ResolveImage(u string) string {
	u = strings.TrimSpace(u)
	switch {
	case u == "", strings.HasPrefix(u, "blob:"):
		return ""
	case strings.HasPrefix(u, "data:"), strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "https://"):
		return u
	}
	switch strings.ToLower(path.Base(u)) {
	case "chicken", "chicken.png", "chicken2.png":
		return ChickenImage
	case "turkey", "turkey.png":
		return TurkeyImage
	}
	return u
}

// normalize prepares a stored listing for readers. It never mutates l's slices.
func normalize(l domain.Listing) domain.Listing {
	if l.ID == "" {
		l.ID = l.LegacyID
	}
	if l.LegacyID == "" {
		l.LegacyID = l.ID
	}
	src := l.Images
	if len(src) == 0 && l.Image != "" {
		src = []string{l.Image}
	}
	images := make([]string, 0, len(src))
	for _, u := range src {
		if r := ResolveImage(u); r != "" {
			images = append(images, r)
		}
	}
	if len(images) == 0 {
		images = append(images, FallbackImage(l.Category))
	}
	l.Images = images
	l.Image = images[0]
	if l.SavedBy == nil {
		l.SavedBy = []string{}
	} else {
		l.SavedBy = append([]string{}, l.SavedBy...)
	}
	return l
}
