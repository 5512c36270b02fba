// Package router wires the school handlers into a chi router.
//
// Route table:
//
//	POST /api/schools  -> create a school (bearer token required when a secret is configured)
//	GET  /api/schools  -> list all schools, newest first
//	GET  /healthz      -> liveness check
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/schools-api/internal/blob"
	"github.com/aanand-mishra/schools-api/internal/http/handlers/school"
	"github.com/aanand-mishra/schools-api/internal/http/middleware"
	"github.com/aanand-mishra/schools-api/internal/storage"
	"github.com/aanand-mishra/schools-api/internal/validation"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Storage  storage.Storage
	Uploader blob.Uploader
	Schema   *validation.Schema
	Logger   *slog.Logger

	School    school.Options
	JWTSecret string
}

// New builds the HTTP handler for the whole API.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Schema == nil {
		d.Schema = validation.New()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/schools", func(r chi.Router) {
		r.Get("/", school.GetList(d.Storage))

		r.Group(func(r chi.Router) {
			if d.JWTSecret != "" {
				r.Use(middleware.RequireAuth([]byte(d.JWTSecret)))
			}
			r.Post("/", school.New(d.Storage, d.Uploader, d.Schema, d.School))
		})
	})

	return r
}
