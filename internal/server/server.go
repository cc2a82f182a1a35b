// Package server is the HTTP endpoint the editor loads images from and
// saves edits to.
package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/example/annotator/internal/blob"
	"github.com/example/annotator/internal/store"
)

// Server serves uploads and accepts edited versions of them.
type Server struct {
	uploads store.UploadStore
	blobs   blob.Store

	csrfToken  string
	csrfHeader string
	publicURL  string
	maxBody    int64
	origins    []string
	log        logrus.FieldLogger
}

// Option modifies a Server during creation.
type Option func(*Server)

// WithCSRF requires token in header on state-changing requests. An empty
// token disables the check.
func WithCSRF(token, header string) Option {
	return func(s *Server) {
		s.csrfToken = token
		if header != "" {
			s.csrfHeader = header
		}
	}
}

// WithPublicURL sets the absolute base used for URLs in responses.
func WithPublicURL(u string) Option {
	return func(s *Server) { s.publicURL = strings.TrimRight(u, "/") }
}

// WithMaxBodyBytes limits request bodies.
func WithMaxBodyBytes(n int64) Option { return func(s *Server) { s.maxBody = n } }

// WithAllowedOrigins adds CORS origins beyond localhost.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = append(s.origins, origins...) }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Server) { s.log = l } }

// New returns a Server over the given stores.
func New(uploads store.UploadStore, blobs blob.Store, opts ...Option) *Server {
	s := &Server{
		uploads:    uploads,
		blobs:      blobs,
		csrfHeader: "X-CSRFToken",
		maxBody:    32 << 20,
		log:        logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowOriginFunc:  s.allowOrigin,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", s.csrfHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/csrf", s.handleCSRF)
	r.Route("/uploads", func(r chi.Router) {
		r.With(s.requireCSRF).Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Get("/image", s.handleImage)
			r.Get("/original", s.handleOriginal)
			r.Group(func(r chi.Router) {
				r.Use(s.requireCSRF)
				r.Post("/save_image", s.handleSave)
				r.Post("/restore_original", s.handleRestore)
			})
		})
	})
	return r
}

func (s *Server) allowOrigin(r *http.Request, origin string) bool {
	if origin == "" {
		return false
	}
	for _, o := range s.origins {
		if o == origin {
			return true
		}
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch parsed.Scheme {
	case "http", "https":
		switch parsed.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
	}
	return false
}

func (s *Server) url(path string) string { return s.publicURL + path }
