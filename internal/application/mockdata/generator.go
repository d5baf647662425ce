package mockdata

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"souk-backend/internal/domain"
	"souk-backend/internal/pkg/clock"
	"souk-backend/internal/pkg/constants"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	generatorWilayas = []string{
		"Alger", "Oran", "Constantine", "Annaba", "Blida", "Batna", "Djelfa",
		"Sétif", "Sidi Bel Abbès", "Biskra", "Tébessa", "Tiaret", "Béjaïa",
		"Tlemcen", "Bordj Bou Arréridj", "Béchar", "Boumerdès", "El Tarf",
		"Tindouf", "Tissemsilt", "El Oued", "Khenchela", "Souk Ahras",
		"Tipaza", "Mila", "Aïn Defla", "Naâma", "Aïn Témouchent",
		"Ghardaïa", "Relizane", "Timimoun", "Bordj Badji Mokhtar",
		"Ouled Djellal", "Béni Abbès", "In Salah", "In Guezzam",
		"Touggourt", "Djanet", "El M'Ghair", "El Meniaa",
	}
	firstNames = []string{
		"Ahmed", "Mohamed", "Ali", "Omar", "Youssef", "Karim", "Said",
		"Fatima", "Aicha", "Khadija", "Zineb", "Salma", "Nour", "Lina",
		"Imad", "Bilal", "Amine", "Yacine", "Nassim", "Rachid",
	}
	lastNames = []string{
		"Benali", "Bensaid", "Bouaziz", "Boukhalfa", "Boumediene", "Bouhafs",
		"Bouazza", "Boukhari", "Bouazzaoui",
	}
	phonePrefixes = []string{"0550", "0551", "0552", "0553", "0554", "0555", "0556", "0557", "0558", "0559"}
	emailDomains  = []string{"gmail.com", "yahoo.com", "outlook.com", "hotmail.com", "live.com"}
	defaultRoles  = []string{constants.RoleUser, constants.RoleUser, constants.RoleUser, constants.RoleAdmin, constants.RoleSuperAdmin}
	actions       = []string{"view", "click", "search", "create", "update", "delete", "login", "logout"}
	resources     = []string{"listing", "user", "category", "settings", "page"}
)

const (
	chickenAsset = "/assets/chicken.png"
	turkeyAsset  = "/assets/turkey.png"
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Options sizes a generated dataset. Zero counts fall back to the defaults.
type Options struct {
	UserCount     int      `toml:"user_count" json:"userCount"`
	ListingCount  int      `toml:"listing_count" json:"listingCount"`
	OrderCount    int      `toml:"order_count" json:"orderCount"`
	InquiryCount  int      `toml:"inquiry_count" json:"inquiryCount"`
	ActivityCount int      `toml:"activity_count" json:"activityCount"`
	Roles         []string `toml:"roles" json:"roles,omitempty"`
	Seed          uint64   `toml:"seed" json:"seed,omitempty"`
}

// DefaultOptions is the demo dataset size.
func DefaultOptions() Options {
	return Options{UserCount: 20, ListingCount: 50, OrderCount: 30, InquiryCount: 40, ActivityCount: 100}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.UserCount <= 0 {
		o.UserCount = d.UserCount
	}
	if o.ListingCount <= 0 {
		o.ListingCount = d.ListingCount
	}
	if o.OrderCount <= 0 {
		o.OrderCount = d.OrderCount
	}
	if o.InquiryCount <= 0 {
		o.InquiryCount = d.InquiryCount
	}
	if o.ActivityCount <= 0 {
		o.ActivityCount = d.ActivityCount
	}
	return o
}

// LoadOptions reads a TOML seed profile.
func LoadOptions(path string) (Options, error) {
	var o Options
	data, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("read seed profile: %w", err)
	}
	if _, err := toml.Decode(string(data), &o); err != nil {
		return o, fmt.Errorf("parse seed profile %s: %w", path, err)
	}
	return o, nil
}

// Dataset is a complete generated demo dataset.
type Dataset struct {
	Users        []domain.User        `json:"users"`
	Listings     []domain.Listing     `json:"listings"`
	Orders       []domain.Order       `json:"orders"`
	Inquiries    []domain.Inquiry     `json:"inquiries"`
	ActivityLogs []domain.ActivityLog `json:"activityLogs"`
}

// Generator produces schema-valid random entities. It has no side effects.
type Generator struct {
	Rand  *rand.Rand
	Clock clock.Clock
}

// NewGenerator seeds a generator; seed 0 picks a random seed.
func NewGenerator(seed uint64, c clock.Clock) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	if c == nil {
		c = clock.RealClock{}
	}
	return &Generator{Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), Clock: c}
}

func (g *Generator) pick(list []string) string {
	return list[g.Rand.IntN(len(list))]
}

func (g *Generator) id() string {
	return "id-" + strconv.FormatInt(g.Clock.Now().UnixMilli(), 10) + "-" + strconv.FormatUint(g.Rand.Uint64()%(1<<45), 36)
}

// uuidV4 draws a version 4 UUID from the seeded source so datasets are reproducible.
func (g *Generator) uuidV4() string {
	id, err := uuid.NewRandomFromReader(randReader{g.Rand})
	if err != nil {
		return g.id()
	}
	return id.String()
}

type randReader struct{ r *rand.Rand }

func (rr randReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(rr.r.Uint32())
	}
	return len(p), nil
}

func (g *Generator) phone() string {
	n := strconv.Itoa(10000000 + g.Rand.IntN(90000000))
	return fmt.Sprintf("%s %s %s %s", g.pick(phonePrefixes), n[0:2], n[2:4], n[4:6])
}

func (g *Generator) email(first, last string) string {
	return fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), g.Rand.IntN(100), g.pick(emailDomains))
}

// date returns a moment within the last daysAgo days.
func (g *Generator) date(daysAgo int) time.Time {
	back := time.Duration(g.Rand.IntN(daysAgo))*24*time.Hour +
		time.Duration(g.Rand.IntN(24))*time.Hour +
		time.Duration(g.Rand.IntN(60))*time.Minute
	return g.Clock.Now().Add(-back).Truncate(time.Millisecond)
}

func (g *Generator) price(min, max int) int {
	return g.Rand.IntN(max-min+1) + min
}

// Users generates count users. Roles are drawn from roles, or from a weighted
// default (three users for each admin and super admin); 80% are verified and 90% active.
func (g *Generator) Users(count int, roles []string) []domain.User {
	if len(roles) == 0 {
		roles = defaultRoles
	}
	users := make([]domain.User, 0, count)
	for i := 0; i < count; i++ {
		first, last := g.pick(firstNames), g.pick(lastNames)
		users = append(users, domain.User{
			ID:        g.uuidV4(),
			Username:  fmt.Sprintf("%s%d", strings.ToLower(first), g.Rand.IntN(100)),
			Email:     g.email(first, last),
			FullName:  first + " " + last,
			Phone:     g.phone(),
			Wilaya:    g.pick(generatorWilayas),
			Role:      constants.NormalizeRole(g.pick(roles)),
			Verified:  g.Rand.Float64() > 0.2,
			IsActive:  g.Rand.Float64() > 0.1,
			CreatedAt: g.date(365),
		})
	}
	return users
}

// Listings generates count listings owned by random userIDs (or fresh ids).
func (g *Generator) Listings(count int, userIDs []string) []domain.Listing {
	listings := make([]domain.Listing, 0, count)
	for i := 0; i < count; i++ {
		category := g.pick(domain.KnownCategories)
		lower := strings.ToLower(category)
		image := chickenAsset
		if domain.IsTurkeyCategory(category) {
			image = turkeyAsset
		}
		createdBy := g.id()
		if len(userIDs) > 0 {
			createdBy = g.pick(userIDs)
		}
		status := domain.ListingStatusPublished
		if g.Rand.Float64() <= 0.1 {
			status = domain.ListingStatusDraft
		}
		trainingType := "Moderne"
		if g.Rand.Float64() > 0.5 {
			trainingType = "Traditionnel"
		}
		medications := "Vaccins standards"
		if g.Rand.Float64() > 0.7 {
			medications = "Aucun"
		}
		price := float64(g.price(500, 3000))
		id := g.id()
		listings = append(listings, domain.Listing{
			ID:              id,
			LegacyID:        id,
			Title:           fmt.Sprintf("%s - Lot de %d %s", category, g.Rand.IntN(50)+10, lower),
			Description:     fmt.Sprintf("Lot de %s de qualité supérieure, élevé dans les meilleures conditions. Disponible pour livraison ou retrait sur place.", lower),
			Price:           price,
			PricePerKg:      price,
			Unit:            "kg",
			Category:        category,
			Images:          []string{image},
			Image:           image,
			CreatedBy:       createdBy,
			CreatedAt:       g.date(60),
			UpdatedAt:       g.date(30),
			Status:          status,
			Wilaya:          g.pick(generatorWilayas),
			Commune:         fmt.Sprintf("Commune %d", g.Rand.IntN(20)+1),
			ListingDate:     clock.Millis(g.date(30)),
			BreedingDate:    clock.Millis(g.date(90)),
			PreparationDate: clock.Millis(g.date(7)),
			TrainingType:    trainingType,
			MedicationsUsed: medications,
			Vaccinated:      g.Rand.Float64() > 0.3,
			Views:           g.Rand.IntN(500),
			Inquiries:       g.Rand.IntN(20),
			Quantity:        g.Rand.IntN(100) + 10,
			Delivery:        g.Rand.Float64() > 0.4,
			AverageWeight:   float64(g.Rand.IntN(5) + 1),
			SavedBy:         []string{},
		})
	}
	return listings
}

// Orders generates count orders whose total is always quantity × price.
func (g *Generator) Orders(count int, userIDs, listingIDs []string) []domain.Order {
	orders := make([]domain.Order, 0, count)
	for i := 0; i < count; i++ {
		userID, listingID := g.id(), g.id()
		if len(userIDs) > 0 {
			userID = g.pick(userIDs)
		}
		if len(listingIDs) > 0 {
			listingID = g.pick(listingIDs)
		}
		qty := g.Rand.IntN(10) + 1
		price := decimal.NewFromInt(int64(g.price(500, 3000)))
		orders = append(orders, domain.Order{
			ID:        g.id(),
			UserID:    userID,
			ListingID: listingID,
			Quantity:  qty,
			Price:     price,
			Total:     domain.OrderTotal(price, qty),
			Status:    g.pick(domain.OrderStatuses),
			CreatedAt: g.date(90),
			UpdatedAt: g.date(30),
			ShippingAddress: domain.Address{
				Wilaya:  g.pick(generatorWilayas),
				Commune: fmt.Sprintf("Commune %d", g.Rand.IntN(20)+1),
				Street:  fmt.Sprintf("Rue %d", g.Rand.IntN(100)+1),
			},
		})
	}
	return orders
}

// Inquiries generates count inquiries. Without userIDs they come from visitors.
func (g *Generator) Inquiries(count int, userIDs, listingIDs []string) []domain.Inquiry {
	inquiries := make([]domain.Inquiry, 0, count)
	for i := 0; i < count; i++ {
		userID := ""
		if len(userIDs) > 0 {
			userID = g.pick(userIDs)
		}
		listingID := g.id()
		if len(listingIDs) > 0 {
			listingID = g.pick(listingIDs)
		}
		first, last := g.pick(firstNames), g.pick(lastNames)
		inquiries = append(inquiries, domain.Inquiry{
			ID:        g.id(),
			ListingID: listingID,
			UserID:    userID,
			Name:      first + " " + last,
			Email:     g.email(first, last),
			Phone:     g.phone(),
			Message:   "Bonjour, je suis intéressé par cette annonce. Pouvez-vous me donner plus d'informations ?",
			CreatedAt: g.date(30),
			UpdatedAt: g.date(30),
		})
	}
	return inquiries
}

// ActivityLogs generates count activity entries from the last week; 70% carry a user id.
func (g *Generator) ActivityLogs(count int) []domain.ActivityLog {
	logs := make([]domain.ActivityLog, 0, count)
	for i := 0; i < count; i++ {
		userID := ""
		if g.Rand.Float64() > 0.3 {
			userID = g.id()
		}
		logs = append(logs, domain.ActivityLog{
			ID:         g.id(),
			Action:     g.pick(actions),
			Resource:   g.pick(resources),
			ResourceID: g.id(),
			UserID:     userID,
			IP:         fmt.Sprintf("%d.%d.%d.%d", g.Rand.IntN(255), g.Rand.IntN(255), g.Rand.IntN(255), g.Rand.IntN(255)),
			UserAgent:  userAgent,
			CreatedAt:  g.date(7),
		})
	}
	return logs
}

// Dataset generates related users, listings, orders, inquiries and activity logs.
func (g *Generator) Dataset(o Options) Dataset {
	o = o.withDefaults()
	users := g.Users(o.UserCount, o.Roles)
	userIDs := make([]string, len(users))
	for i, u := range users {
		userIDs[i] = u.ID
	}
	listings := g.Listings(o.ListingCount, userIDs)
	listingIDs := make([]string, len(listings))
	for i, l := range listings {
		listingIDs[i] = l.ID
	}
	return Dataset{
		Users:        users,
		Listings:     listings,
		Orders:       g.Orders(o.OrderCount, userIDs, listingIDs),
		Inquiries:    g.Inquiries(o.InquiryCount, userIDs, listingIDs),
		ActivityLogs: g.ActivityLogs(o.ActivityCount),
	}
}
