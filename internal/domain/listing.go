package domain

import "time"

const (
	ListingStatusPublished = "published"
	ListingStatusDraft     = "draft"
)

// Listing is a marketplace offer as persisted under the listings collection key.
type Listing struct {
	ID              string    `json:"id"`
	LegacyID        string    `json:"_id,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Price           float64   `json:"price"`
	PricePerKg      float64   `json:"pricePerKg"`
	Unit            string    `json:"unit"`
	Category        string    `json:"category"`
	Images          []string  `json:"images"`
	Image           string    `json:"image,omitempty"`
	Status          string    `json:"status"`
	Wilaya          string    `json:"wilaya"`
	Commune         string    `json:"commune"`
	Views           int       `json:"views"`
	Inquiries       int       `json:"inquiries"`
	ListingDate     string    `json:"listingDate,omitempty"`
	BreedingDate    string    `json:"breedingDate,omitempty"`
	PreparationDate string    `json:"preparationDate,omitempty"`
	TrainingType    string    `json:"trainingType,omitempty"`
	MedicationsUsed string    `json:"medicationsUsed,omitempty"`
	Vaccinated      bool      `json:"vaccinated"`
	Quantity        int       `json:"quantity"`
	Delivery        bool      `json:"delivery"`
	AverageWeight   float64   `json:"averageWeight"`
	CreatedBy       string    `json:"createdBy"`
	SavedBy         []string  `json:"savedBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IsValidListingStatus reports whether s is a status a listing may carry.
func IsValidListingStatus(s string) bool {
	return s == ListingStatusPublished || s == ListingStatusDraft
}

// IsSavedBy reports whether userID is in the listing's saved-by set.
func (l *Listing) IsSavedBy(userID string) bool {
	for _, id := range l.SavedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// MyListingEntry is the per-user index row kept alongside the listings collection.
type MyListingEntry struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	CreatedBy string `json:"createdBy"`
	Status    string `json:"status,omitempty"`
}
