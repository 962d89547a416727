package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer       = "triplog"
	adminSubject = "admin"
)

// Claims содержит payload токена сессии администратора
type Claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// SessionService выпускает и проверяет токены сессии администратора.
// Токен кладется в cookie целиком, серверного хранилища сессий нет.
type SessionService struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// Session - выпущенный токен и момент его истечения
type Session struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSessionService создает сервис токенов сессии
func NewSessionService(secretKey string, ttl time.Duration) *SessionService {
	return &SessionService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// TTL возвращает срок жизни сессии
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue выпускает новый токен сессии администратора
func (s *SessionService) Issue() (*Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   adminSubject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Validate проверяет подпись, срок действия и субъект токена
func (s *SessionService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithSubject(adminSubject),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrSessionExpired
		}
		return nil, domain.ErrInvalidSession
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Admin {
		return nil, domain.ErrInvalidSession
	}

	return claims, nil
}
