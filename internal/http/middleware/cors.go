package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/tokenmeter/internal/config"
)

// CORS applies the configured cross-origin policy. The chat front end calls
// the billing endpoints straight from the browser.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return c.Handler
}
