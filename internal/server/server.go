// Package server exposes the record grid contract over HTTP: listing,
// deleting and editing records, CSV export and batch uploads.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sheetscan/sheetscan/internal/observability"
	"github.com/sheetscan/sheetscan/internal/records"
	"github.com/sheetscan/sheetscan/internal/scan"
)

// Server hosts the HTTP API over one record store and batch service.
type Server struct {
	logger  *observability.Logger
	store   *records.Store
	service *scan.Service
	router  chi.Router
}

// NewServer creates the HTTP server.
func NewServer(logger *observability.Logger, store *records.Store, service *scan.Service, requestTimeout time.Duration) *Server {
	s := &Server{
		logger:  logger.WithComponent("server"),
		store:   store,
		service: service,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(chimiddleware.Timeout(requestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"sheetscan"}`))
	})

	r.Route("/records", func(r chi.Router) {
		r.Get("/", s.listRecords)
		r.Get("/export", s.exportCSV)
		r.Delete("/{id}", s.deleteRecord)
		r.Put("/{id}/fields", s.updateFields)
	})

	r.Post("/batches", s.runBatch)

	s.router = r
	return s
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
