package api

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/scramble/pkg/logger"
)

const defaultRequestTimeout = 10 * time.Second

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAllowedOrigins sets the CORS and WebSocket origin allow-list. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithRequestTimeout bounds request handling for non-streaming routes.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithRoutes mounts additional routes, such as API docs, on the router.
func WithRoutes(mount func(chi.Router)) Option {
	return func(s *Server) {
		if mount != nil {
			s.extra = append(s.extra, mount)
		}
	}
}
