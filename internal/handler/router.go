package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/config"
)

// Instrumenter wraps handlers with request metrics and serves them.
type Instrumenter interface {
	Instrument(next http.Handler) http.Handler
	Handler() http.Handler
}

// Deps is everything the router needs.
type Deps struct {
	Auth     AuthService
	Profiles ProfileService
	Events   EventService
	Bookings BookingService
	Tokens   TokenParser
	Images   ObjectStore
	Metrics  Instrumenter
	Server   config.ServerConfig
	Log      logrus.FieldLogger
}

// NewRouter builds the chi router with the full middleware stack.
func NewRouter(d Deps) http.Handler {
	authH := NewAuthHandler(d.Auth, d.Log)
	profileH := NewProfileHandler(d.Profiles, d.Log)
	eventH := NewEventHandler(d.Events, d.Log)
	bookingH := NewBookingHandler(d.Bookings, d.Log)
	storageH := NewStorageHandler(d.Images, d.Log)

	timeout := d.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(d.Log))
	r.Use(CORS(d.Server.AllowedOrigins))
	r.Use(d.Metrics.Instrument)
	r.Use(chimiddleware.Timeout(timeout))
	r.Use(Authenticate(d.Tokens))

	r.Get("/health", HealthCheck)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(RateLimit(d.Server.AuthRatePerSec, d.Server.AuthRateBurst))
		r.Post("/signup", authH.SignUp)
		r.Post("/token", authH.SignIn)
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)
			r.Post("/logout", authH.SignOut)
			r.Get("/user", authH.User)
			r.Put("/user", authH.UpdateUser)
		})
	})

	r.Route("/profiles", func(r chi.Router) {
		r.Use(RequireAuth)
		r.Get("/{id}", profileH.Get)
		r.Patch("/{id}", profileH.Update)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventH.List)
		r.Get("/{id}", eventH.Get)
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)
			r.Post("/", eventH.Create)
			r.Get("/mine", eventH.Mine)
			r.Get("/stats", eventH.Stats)
			r.Patch("/{id}", eventH.Update)
			r.Delete("/{id}", eventH.Delete)
			r.Get("/{id}/bookings", eventH.Bookings)
		})
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Use(RequireAuth)
		r.Post("/", bookingH.Create)
		r.Get("/", bookingH.Mine)
		r.Get("/lookup", bookingH.Lookup)
	})

	bucket := d.Images.Name()
	r.With(RequireAuth).Post("/storage/"+bucket+"/*", storageH.Upload)
	r.Get("/storage/public/"+bucket+"/*", storageH.Public)

	return r
}
