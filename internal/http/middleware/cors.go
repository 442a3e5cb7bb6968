package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/shopscribe/internal/config"
)

// CORS lets the admin panel call the API from another origin. A nil config disables it.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   append([]string{requestIDHeader}, cfg.AllowedHeaders...),
		ExposedHeaders:   []string{traceIDHeader, requestIDHeader},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return c.Handler
}
