package router

import (
	"souk-backend/bootstrap"
	healthsvc "souk-backend/internal/application/health"
	"souk-backend/internal/constants"
	adminhandler "souk-backend/internal/interfaces/handlers/admin"
	authhandler "souk-backend/internal/interfaces/handlers/auth"
	eventshandler "souk-backend/internal/interfaces/handlers/events"
	healthhandler "souk-backend/internal/interfaces/handlers/health"
	inqhandler "souk-backend/internal/interfaces/handlers/inquiries"
	listhandler "souk-backend/internal/interfaces/handlers/listings"
	orderhandler "souk-backend/internal/interfaces/handlers/orders"
	sitehandler "souk-backend/internal/interfaces/handlers/site"
	userhandler "souk-backend/internal/interfaces/handlers/user"
	"souk-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// CreateApp mounts every route over the wired data layer. Closing done ends open event streams.
func CreateApp(d *bootstrap.Deps, done <-chan struct{}) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               32 << 20,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	if d.Redis != nil {
		app.Use(middleware.HealthMarker(d.Redis))
	}
	app.Use(recover.New())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Identity())

	hh := &healthhandler.Handlers{
		Probes: healthsvc.Probes{
			Storage:       d.Store,
			StorageDriver: cfg.StorageDriver,
			Redis:         d.Redis,
			Bus:           d.Bus,
			SyncTransport: cfg.SyncTransport,
			Remote:        d.Remote,
		},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	svc := d.Service
	api := app.Group("/api/v1")

	eh := &eventshandler.Handlers{Bus: d.Bus, Done: done}
	api.Get("/events", eh.Stream)

	// Auth
	ah := &authhandler.Handlers{Service: svc}
	api.Post("/auth/register", ah.Register)
	api.Post("/auth/login", ah.Login)

	// Profile and orders
	uh := &userhandler.Handlers{Service: svc}
	oh := &orderhandler.Handlers{Service: svc}
	ug := api.Group("/user", middleware.RequireAuth())
	ug.Get("/profile", middleware.AuthorizePermission(constants.ViewProfile), uh.GetProfile)
	ug.Patch("/profile", middleware.AuthorizePermission(constants.EditOwnProfile), uh.UpdateProfile)
	ug.Get("/orders", middleware.AuthorizePermission(constants.ViewOrders), oh.Mine)
	api.Post("/orders", middleware.RequireAuth(), oh.Create)

	// Listings
	lh := &listhandler.Handlers{Service: svc}
	ih := &inqhandler.Handlers{Service: svc}
	api.Get("/listings", lh.List)
	api.Get("/listings/search", lh.Search)
	api.Get("/listings/mine", middleware.RequireAuth(), lh.Mine)
	api.Get("/listings/saved", middleware.RequireAuth(), lh.Saved)
	api.Get("/listings/:id", lh.Details)
	api.Post("/listings/:id/view", lh.RecordView)
	api.Post("/listings/:id/inquiries", ih.Create)
	api.Post("/listings", middleware.AuthorizePermission(constants.CreateListing), lh.Create)
	api.Put("/listings/:id", middleware.RequireAuth(), lh.Update)
	api.Delete("/listings/:id", middleware.RequireAuth(), lh.Delete)
	api.Patch("/listings/:id/status", middleware.RequireAuth(), lh.SetStatus)
	api.Post("/listings/:id/save", middleware.AuthorizePermission(constants.SaveListings), lh.ToggleSaved)

	// Public site settings
	site := &sitehandler.Handlers{Service: svc}
	sg := api.Group("/site")
	sg.Get("/moving-header", site.GetMovingHeader)
	sg.Get("/hero-slides", site.GetHeroSlides)
	sg.Get("/cta", site.GetCTA)
	sg.Get("/footer", site.GetFooter)
	sg.Get("/logo", site.GetLogo)

	// Admin
	adg := api.Group("/admin", middleware.AuthorizePermission(constants.AccessAdminPanel))
	adg.Get("/listings", middleware.AuthorizePermission(constants.ViewAllListings), lh.AdminList)
	adg.Patch("/listings/:id/status", middleware.AuthorizePermission(constants.ModerateListings), lh.AdminSetStatus)
	adg.Get("/inquiries", middleware.AuthorizePermission(constants.ViewAllListings), ih.AdminList)
	adg.Get("/orders", middleware.AuthorizePermission(constants.ViewAllListings), oh.AdminList)
	adg.Patch("/orders/:id/status", middleware.AuthorizePermission(constants.ModerateListings), oh.AdminSetStatus)

	adg.Get("/users", middleware.AuthorizePermission(constants.ViewAllUsers), uh.List)
	adg.Post("/users", middleware.AuthorizePermission(constants.CreateUser), uh.Create)
	adg.Patch("/users/:id", middleware.AuthorizePermission(constants.EditAnyUser), uh.Update)
	adg.Delete("/users/:id", middleware.AuthorizePermission(constants.DeleteUser), uh.Delete)

	adminSite := &sitehandler.Handlers{Service: svc, Admin: true}
	asg := adg.Group("/site")
	asg.Get("/moving-header", adminSite.GetMovingHeader)
	asg.Put("/moving-header", middleware.AuthorizePermission(constants.ManageMovingHead), adminSite.UpdateMovingHeader)
	asg.Get("/hero-slides", adminSite.GetHeroSlides)
	asg.Post("/hero-slides", middleware.AuthorizePermission(constants.ManageHeroSlides), adminSite.AddHeroSlide)
	asg.Put("/hero-slides", middleware.AuthorizePermission(constants.ManageHeroSlides), adminSite.UpdateHeroSlides)
	asg.Delete("/hero-slides/:id", middleware.AuthorizePermission(constants.ManageHeroSlides), adminSite.DeleteHeroSlide)
	asg.Get("/cta", adminSite.GetCTA)
	asg.Put("/cta", middleware.AuthorizePermission(constants.ManageCTA), adminSite.UpdateCTA)
	asg.Get("/footer", adminSite.GetFooter)
	asg.Put("/footer", middleware.AuthorizePermission(constants.ManageFooter), adminSite.UpdateFooter)
	asg.Get("/logo", adminSite.GetLogo)
	asg.Put("/logo", middleware.AuthorizePermission(constants.ManageLogo), adminSite.UpdateLogo)

	adh := &adminhandler.Handlers{Service: svc, State: d.State}
	adg.Get("/activity-logs", middleware.AuthorizePermission(constants.ViewActivityLogs), adh.ActivityLogs)
	manage := middleware.AuthorizePermission(constants.ManageSite)
	adg.Get("/modes", manage, adh.GetModes)
	adg.Put("/modes", manage, adh.SetModes)
	adg.Post("/mock-caches/clear", manage, adh.ClearMockCaches)
	adg.Post("/seed", manage, adh.Seed)
	adg.Get("/storage", manage, adh.StorageInfo)
	adg.Post("/storage/cleanup", manage, adh.CleanupStorage)
	adg.Get("/state/export", manage, adh.ExportState)
	adg.Post("/state/import", manage, adh.ImportState)
	adg.Post("/state/clear", manage, adh.ClearState)
	adg.Get("/state/stats", manage, adh.StateStats)

	return app
}
