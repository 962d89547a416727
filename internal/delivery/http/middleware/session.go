package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/frontandrew/triplog/internal/domain"
)

// SessionCookieName - имя cookie с токеном сессии администратора
const SessionCookieName = "admin_session"

// SessionValidator проверяет токен сессии
type SessionValidator interface {
	ValidateSession(token string) error
}

// SessionMiddleware пропускает только запросы с действующей сессией администратора
func SessionMiddleware(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				respondError(w, http.StatusUnauthorized, "Admin session required")
				return
			}

			if err := validator.ValidateSession(cookie.Value); err != nil {
				if errors.Is(err, domain.ErrSessionExpired) {
					respondError(w, http.StatusUnauthorized, "Session expired")
					return
				}
				respondError(w, http.StatusUnauthorized, "Invalid session")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// respondError отправляет JSON ответ с ошибкой
func respondError(w http.ResponseWriter, code int, message string) {
	body, _ := json.Marshal(map[string]interface{}{
		"success": false,
		"error":   message,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
