// Package api provides the HTTP API server and handlers for the admin console.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vojaudio/voj-server/internal/service"
	"github.com/vojaudio/voj-server/internal/storage"
	"github.com/vojaudio/voj-server/internal/store"
	"github.com/vojaudio/voj-server/internal/validation"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Auth    *service.AuthService
	Book    *service.BookService
	Chapter *service.ChapterService
	Ingest  *service.IngestService
	Log     *service.LogService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     *store.Store
	services  Services
	storage   storage.Adapter
	validator *validation.Validator
	router    *chi.Mux
	api       huma.API
	logger    *slog.Logger
	version   string
	startedAt time.Time
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services Services, adapter storage.Adapter, version string, logger *slog.Logger) *Server {
	s := &Server{
		store:     st,
		services:  services,
		storage:   adapter,
		validator: validation.New(),
		router:    chi.NewRouter(),
		logger:    logger,
		version:   version,
		startedAt: time.Now(),
	}

	s.setupMiddleware()

	RegisterErrorHandler()
	config := huma.DefaultConfig("VOJ Admin API", version)
	config.DocsPath = "/api/v1/docs"
	s.api = humachi.New(s.router, config)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health checks.
	s.router.Get("/health", s.handleHealthCheck)
	s.router.Get("/health/detailed", s.handleDetailedHealth)

	// Auth endpoints go through huma for OpenAPI docs.
	s.registerAuthRoutes()

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Catalog (require auth).
		r.Route("/books", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateBook)
			r.Get("/", s.handleListBooks)
			r.Get("/{id}", s.handleGetBook)
			r.Patch("/{id}", s.handleUpdateBook)
			r.Delete("/{id}", s.handleDeleteBook)

			r.Route("/{id}/chapters", func(r chi.Router) {
				r.Post("/", s.handleUploadChapter)
				r.Get("/", s.handleListChapters)
				r.Put("/order", s.handleReorderChapters)
				r.Get("/{chapterID}", s.handleGetChapter)
				r.Delete("/{chapterID}", s.handleDeleteChapter)
				r.Get("/{chapterID}/stream", s.handleChapterStreamURL)
			})
		})

		// Upload dry runs (require auth).
		r.Route("/ingest", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/validate", s.handleValidateFiles)
			r.Post("/analyze", s.handleAnalyzeSeries)
			r.Post("/quick-check", s.handleQuickCheck)
		})

		// Client log backups (require auth).
		r.Route("/logs", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/backup", s.handleBackupLogs)
			r.Get("/", s.handleListLogBackups)
		})
	})

	// Local storage serves audio directly; S3 streams via presigned URLs.
	if local, ok := s.storage.(*storage.LocalAdapter); ok {
		fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(local.BasePath())))
		s.router.With(s.requireAuth).Get("/media/*", fileServer.ServeHTTP)
	}
}
