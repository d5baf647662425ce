package domain

import "strings"

// DefaultCategories are the categories offered when no custom list exists.
var DefaultCategories = []string{"Poulet", "Dinde"}

// KnownCategories is the full catalogue used by the dataset generator and normalization.
var KnownCategories = []string{
	"Poulet", "Dinde", "Oeufs", "Légumes", "Fruits", "Céréales",
	"Lait", "Fromage", "Miel", "Huile d'olive", "Dattes", "Amandes",
}

// NormalizeCategory trims the value, folds egg spellings to "Oeufs" and maps
// case-insensitive matches onto the canonical spelling. Unknown values are kept.
func NormalizeCategory(value string) string {
	v := strings.TrimSpace(value)
	switch strings.ToLower(v) {
	case "œufs", "oeufs", "oeuf", "œuf":
		return "Oeufs"
	}
	for _, c := range KnownCategories {
		if strings.EqualFold(c, v) {
			return c
		}
	}
	return v
}

// IsTurkeyCategory reports whether the category selects the turkey fallback image.
func IsTurkeyCategory(category string) bool {
	c := strings.ToLower(category)
	return strings.Contains(c, "dinde") || strings.Contains(c, "turkey")
}
