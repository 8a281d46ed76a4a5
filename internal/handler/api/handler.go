// Package api serves the listing, shortlist, visitor, auth and admin endpoints over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go-firestore-estate/internal/auth"
	"go-firestore-estate/internal/listing"
	"go-firestore-estate/internal/model"
	propertyRepo "go-firestore-estate/internal/repository/property"
	userRepo "go-firestore-estate/internal/repository/user"
	"go-firestore-estate/internal/visitors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type ListingView interface {
	Snapshot() listing.Snapshot
	Find(id string) (model.Property, bool)
	Retry() error
}

type StatsView interface {
	Snapshot() visitors.StatsSnapshot
}

// TokenVerifier checks bearer tokens and revokes sessions. auth.Provider implements it.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (model.Identity, error)
	Revoke(ctx context.Context, uid string) error
}

var _ TokenVerifier = (*auth.Provider)(nil)

type Options struct {
	All        ListingView
	Featured   ListingView
	Properties propertyRepo.IRepository
	Users      userRepo.IRepository
	// Signer is optional. Without it sign-in answers 501.
	Signer        auth.PasswordSigner
	Tokens        TokenVerifier
	Recorder      *visitors.Recorder
	Migrator      *visitors.Migrator
	Stats         StatsView
	Validate      *validator.Validate
	SecureCookies bool
}

type Handler struct {
	all           ListingView
	featured      ListingView
	properties    propertyRepo.IRepository
	users         userRepo.IRepository
	signer        auth.PasswordSigner
	tokens        TokenVerifier
	recorder      *visitors.Recorder
	migrator      *visitors.Migrator
	stats         StatsView
	validate      *validator.Validate
	secureCookies bool
}

// NotBlankValidator rejects strings made of white space only.
var NotBlankValidator = func(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func New(o Options) (*Handler, error) {
	validate := o.Validate
	if validate == nil {
		validate = validator.New()
	}
	if err := validate.RegisterValidation("notblank", NotBlankValidator); err != nil {
		return nil, fmt.Errorf("register notblank validation: %w", err)
	}

	return &Handler{
		all:           o.All,
		featured:      o.Featured,
		properties:    o.Properties,
		users:         o.Users,
		signer:        o.Signer,
		tokens:        o.Tokens,
		recorder:      o.Recorder,
		migrator:      o.Migrator,
		stats:         o.Stats,
		validate:      validate,
		secureCookies: o.SecureCookies,
	}, nil
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Get("/featured", h.ListFeatured)
			r.Post("/retry", h.RetryListing)
			r.Get("/{id}", h.GetProperty)
		})

		r.Post("/visits", h.RecordVisit)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signin", h.SignIn)
			r.With(requireSignedIn).Post("/signout", h.SignOut)
			r.Get("/me", h.Me)
		})

		r.Route("/shortlist", func(r chi.Router) {
			r.Use(requireSignedIn)
			r.Get("/", h.ListShortlist)
			r.Get("/{id}", h.IsShortlisted)
			r.Put("/{id}", h.AddShortlist)
			r.Delete("/{id}", h.RemoveShortlist)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/properties/pending", h.ListPending)
			r.Post("/properties", h.CreateProperty)
			r.Put("/properties/{id}", h.UpdateProperty)
			r.Patch("/properties/{id}/approval", h.SetApproval)
			r.Delete("/properties/{id}", h.DeleteProperty)
			r.Get("/stats", h.GetStats)
			r.Post("/stats/reconcile", h.ReconcileStats)
			r.Post("/stats/migrate", h.MigrateStats)
			r.Delete("/stats/legacy", h.CleanupLegacyStats)
		})

		for _, path := range []string{"/contact", "/property-alerts"} {
			r.Get(path, h.NotImplemented)
			r.Post(path, h.NotImplemented)
		}
	})

	return r
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
