package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSConfig - разрешенные источники, методы и заголовки
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// CORSMiddleware ставит CORS заголовки для разрешенных источников.
// Cookie сессии передаются только явно перечисленным источникам: с "*" credentials выключены.
func CORSMiddleware(cfg CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: !hasWildcard(cfg.AllowedOrigins),
		MaxAge:           300,
	})
}

func hasWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
