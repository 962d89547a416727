package http

import (
	"context"
	"net/http"
	"time"

	"github.com/frontandrew/triplog/internal/delivery/http/middleware"
	"github.com/frontandrew/triplog/internal/pkg/jwt"
	"github.com/frontandrew/triplog/internal/pkg/logger"
)

// AuthService определяет интерфейс для сервиса аутентификации
type AuthService interface {
	Authenticate(ctx context.Context, password string) (*jwt.Session, error)
	ValidateSession(token string) error
}

// AuthHandler выдает и снимает сессию администратора
type AuthHandler struct {
	authService  AuthService
	cookieSecure bool
	logger       logger.Logger
}

// NewAuthHandler создает новый auth handler
func NewAuthHandler(authService AuthService, cookieSecure bool, logger logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// Login проверяет пароль администратора и ставит cookie сессии
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	session, err := h.authService.Authenticate(r.Context(), r.PostFormValue("password"))
	if err != nil {
		respondServiceError(w, h.logger, err, "log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"expires_at": session.ExpiresAt,
	})
}

// Logout удаляет cookie сессии
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	respondSuccess(w, http.StatusOK, nil)
}
