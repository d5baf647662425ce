package domain

import "strings"

// Storage keys of the site settings singletons.
const (
	MovingHeaderKey = "site_moving_header_v1"
	HeroSlidesKey   = "site_hero_slides_v1"
	FooterKey       = "site_footer_settings_v1"
	LogoKey         = "site_logo_settings_v1"
	CTAKey          = "site_cta_settings_v1"
)

type FontConfig struct {
	FontFamily    string  `json:"fontFamily"`
	FontSize      int     `json:"fontSize"`
	FontWeight    string  `json:"fontWeight"`
	FontStyle     string  `json:"fontStyle"`
	LetterSpacing float64 `json:"letterSpacing"`
	WordSpacing   float64 `json:"wordSpacing"`
}

// DefaultFontConfig is the ticker font used until an admin picks another one.
var DefaultFontConfig = FontConfig{
	FontFamily:    "Inter",
	FontSize:      15,
	FontWeight:    "600",
	FontStyle:     "normal",
	LetterSpacing: 0.28,
	WordSpacing:   0.35,
}

type TickerItem struct {
	Wilaya  string  `json:"wilaya"`
	Price   float64 `json:"price"`
	Product string  `json:"product"`
	Unit    string  `json:"unit"`
}

// MovingHeader is the price ticker shown above every page.
type MovingHeader struct {
	Items             []TickerItem `json:"items"`
	FontConfig        FontConfig   `json:"fontConfig"`
	PrefixFr          string       `json:"prefixFr"`
	PrefixAr          string       `json:"prefixAr"`
	TextColor         string       `json:"textColor"`
	BackgroundColor   string       `json:"backgroundColor"`
	AnimationDuration int          `json:"animationDuration"`
	HeightPx          int          `json:"heightPx"`
	TranslateWilayaAr bool         `json:"translateWilayaAr"`
}

// DefaultMovingHeader lists every wilaya at 250 DA/kg of chicken.
func DefaultMovingHeader() MovingHeader {
	return MovingHeader{
		Items:             TickerItems(250, "Poulet", "kg"),
		FontConfig:        DefaultFontConfig,
		AnimationDuration: 25,
		HeightPx:          60,
		TranslateWilayaAr: true,
	}
}

// TickerItems builds one ticker entry per wilaya with the same price.
func TickerItems(price float64, product, unit string) []TickerItem {
	items := make([]TickerItem, 0, len(Wilayas))
	for _, w := range Wilayas {
		items = append(items, TickerItem{Wilaya: w, Price: price, Product: product, Unit: unit})
	}
	return items
}

type HeroSlide struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	DurationSeconds int    `json:"durationSeconds"`
	DurationMs      int    `json:"durationMs"`
}

// DefaultHeroSlides are the bundled farm photos.
func DefaultHeroSlides() []HeroSlide {
	return []HeroSlide{
		{ID: "hero-1", URL: "/assets/hero-1.jpg", DurationSeconds: 5, DurationMs: 5000},
		{ID: "hero-2", URL: "/assets/hero-2.jpg", DurationSeconds: 5, DurationMs: 5000},
		{ID: "hero-3", URL: "/assets/hero-3.jpg", DurationSeconds: 5, DurationMs: 5000},
	}
}

// NormalizeSlide fills whichever of the two durations is missing; 6 seconds when both are.
func NormalizeSlide(s HeroSlide) HeroSlide {
	switch {
	case s.DurationMs <= 0 && s.DurationSeconds > 0:
		s.DurationMs = s.DurationSeconds * 1000
	case s.DurationSeconds <= 0 && s.DurationMs > 0:
		s.DurationSeconds = s.DurationMs / 1000
	case s.DurationMs <= 0 && s.DurationSeconds <= 0:
		s.DurationSeconds, s.DurationMs = 6, 6000
	}
	return s
}

type FooterLink struct {
	LabelFr string `json:"labelFr"`
	LabelAr string `json:"labelAr"`
	Href    string `json:"href"`
}

type FooterColumn struct {
	TitleFr string       `json:"titleFr"`
	TitleAr string       `json:"titleAr"`
	Links   []FooterLink `json:"links"`
}

type Footer struct {
	AboutFr     string         `json:"aboutFr"`
	AboutAr     string         `json:"aboutAr"`
	CallCenters []string       `json:"callCenters"`
	Columns     []FooterColumn `json:"columns"`
}

func DefaultFooter() Footer {
	return Footer{
		AboutFr:     "Marche agricole digital, appui par centre d appel, et categories avec icones claires pour naviguer vite.",
		AboutAr:     "سوق رقمي للمنتجات الفلاحية مع مركز نداء وتصفح سريع بالايقونات.",
		CallCenters: []string{"+213 791 948 070", "+213 561 234 567", "+213 550 987 654"},
		Columns: []FooterColumn{{
			TitleFr: "Navigation",
			TitleAr: "روابط",
			Links: []FooterLink{
				{LabelFr: "Favoris", LabelAr: "المحفوظات", Href: "/saved"},
				{LabelFr: "Parametres", LabelAr: "الإعدادات", Href: "/settings"},
				{LabelFr: "Admin", LabelAr: "الادارة", Href: "/admin"},
			},
		}},
	}
}

type Logo struct {
	LogoLight string `json:"logoLight"`
	LogoDark  string `json:"logoDark"`
}

type CTA struct {
	ImageURL   string `json:"imageUrl"`
	TitleFr    string `json:"titleFr"`
	TitleAr    string `json:"titleAr"`
	SubtitleFr string `json:"subtitleFr"`
	SubtitleAr string `json:"subtitleAr"`
	ButtonFr   string `json:"buttonFr"`
	ButtonAr   string `json:"buttonAr"`
	Link       string `json:"link"`
}

func DefaultCTA() CTA {
	return CTA{
		TitleFr:    "Rejoignez le Souk",
		TitleAr:    "انضم إلى السوق",
		SubtitleFr: "Publiez vos lots, le centre d'appel gere les contacts.",
		SubtitleAr: "انشر منتجاتك وندير مكالمات المهتمين.",
		ButtonFr:   "Poster une annonce",
		ButtonAr:   "انشر منشور",
		Link:       "/create-listing",
	}
}

// StripBlobURL returns "" for session-scoped blob: URLs, which never survive a reload.
func StripBlobURL(u string) string {
	if strings.HasPrefix(u, "blob:") {
		return ""
	}
	return u
}
