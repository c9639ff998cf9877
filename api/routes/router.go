package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/poiquest/poiquest-backend/api/controllers"
	"github.com/poiquest/poiquest-backend/api/middleware"
	"github.com/poiquest/poiquest-backend/internal/analytics"
	"github.com/poiquest/poiquest-backend/internal/auth"
	"github.com/poiquest/poiquest-backend/internal/categories"
	"github.com/poiquest/poiquest-backend/internal/events"
	"github.com/poiquest/poiquest-backend/internal/media"
	"github.com/poiquest/poiquest-backend/internal/pois"
	"github.com/poiquest/poiquest-backend/internal/profiles"
	"github.com/poiquest/poiquest-backend/pkg/config"
	"github.com/poiquest/poiquest-backend/pkg/db"
	"github.com/poiquest/poiquest-backend/pkg/logger"
	"github.com/poiquest/poiquest-backend/pkg/redis"
	"github.com/poiquest/poiquest-backend/pkg/storage/minio"
)

// Services bundles the domain services the router exposes. Grouping them
// keeps the constructor signature stable as endpoints are added.
type Services struct {
	Auth       auth.Service
	Register   auth.RegisterService
	Profiles   profiles.Service
	Categories categories.Service
	Events     events.Service
	POIs       pois.Service
	Media      media.Service
	Analytics  analytics.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	storageP minio.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	requireAuth := middleware.Auth(cfg.JWT, svcs.Auth, logg)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, controllers.HealthPingers{
			DB:      dbP,
			Redis:   redisClient,
			Storage: storageP,
		}, logg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.With(requireAuth).Get("/api/ping", controllers.PrivatePing())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register-standard-user", controllers.AuthRegister(svcs.Register, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
			r.Post("/logout-all", controllers.AuthLogoutAll(svcs.Auth, logg))
			r.Post("/change-password", controllers.AuthChangePassword(svcs.Auth, logg))
			r.Get("/me", controllers.AuthMe(svcs.Auth, logg))
		})
	})

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", controllers.ListCategories(svcs.Categories, logg))
		r.Get("/{categoryID}", controllers.GetCategory(svcs.Categories, logg))
		r.Get("/{categoryID}/events", controllers.ListEventsByCategory(svcs.Events, logg))
	})

	r.Get("/api/v1/events/{eventID}", controllers.GetEvent(svcs.Events, logg))

	// QR resolution stays open so a scan works before the visitor signs in.
	r.Route("/api/v1/pois", func(r chi.Router) {
		r.Get("/", controllers.ListPOIs(svcs.POIs, logg))
		r.Get("/qr/{code}", controllers.GetPOIByQRCode(svcs.POIs, logg))
		r.Get("/{poiID}", controllers.GetPOI(svcs.POIs, logg))
	})

	r.Route("/api/v1/profile", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", controllers.ProfileGet(svcs.Profiles, logg))
		r.Patch("/", controllers.ProfileUpdate(svcs.Profiles, logg))
	})

	r.Route("/api/v1/files", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/presign-upload", controllers.PresignUpload(svcs.Media, logg))
		r.Get("/presign-download", controllers.PresignDownload(svcs.Media, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireRole("admin", logg))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/v1/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateCategory(svcs.Categories, logg))
			r.Patch("/{categoryID}", controllers.AdminUpdateCategory(svcs.Categories, logg))
			r.Delete("/{categoryID}", controllers.AdminDeleteCategory(svcs.Categories, logg))
		})

		r.Route("/v1/events", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateEvent(svcs.Events, logg))
			r.Patch("/{eventID}", controllers.AdminUpdateEvent(svcs.Events, logg))
			r.Delete("/{eventID}", controllers.AdminDeleteEvent(svcs.Events, logg))
		})

		r.Route("/v1/pois", func(r chi.Router) {
			r.Post("/", controllers.AdminCreatePOI(svcs.POIs, logg))
			r.Patch("/{poiID}", controllers.AdminUpdatePOI(svcs.POIs, logg))
			r.Delete("/{poiID}", controllers.AdminDeletePOI(svcs.POIs, logg))
		})

		r.Delete("/v1/files", controllers.AdminDeleteObject(svcs.Media, logg))

		r.Route("/v1/analytics", func(r chi.Router) {
			r.Get("/overview", controllers.AdminAnalyticsOverview(svcs.Analytics, logg))
			r.Get("/events-by-category", controllers.AdminAnalyticsEventsByCategory(svcs.Analytics, logg))
			r.Get("/registrations", controllers.AdminAnalyticsRegistrations(svcs.Analytics, logg))
		})
	})

	return r
}
