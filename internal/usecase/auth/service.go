package auth

import (
	"context"
	"fmt"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/hash"
	"github.com/frontandrew/triplog/internal/pkg/jwt"
	"github.com/frontandrew/triplog/internal/pkg/logger"
)

// Secrets - пароли, заданные оператором
type Secrets struct {
	AdminPassword  string
	DeletePassword string
	// Cost - стоимость bcrypt; 0 - hash.DefaultCost
	Cost int
}

// Service - пропуск в административный раздел и проверка пароля на удаление.
// Пароли хешируются один раз при создании сервиса.
type Service struct {
	adminHash    string
	deleteHash   string
	tokenService *jwt.SessionService
	logger       logger.Logger
}

// NewService создает новый экземпляр AuthService.
// Пустой пароль не является ошибкой здесь: соответствующая операция
// будет возвращать domain.ErrAuthNotConfigured.
func NewService(secrets Secrets, tokenService *jwt.SessionService, logger logger.Logger) (*Service, error) {
	cost := secrets.Cost
	if cost == 0 {
		cost = hash.DefaultCost
	}

	s := &Service{
		tokenService: tokenService,
		logger:       logger,
	}

	var err error
	if secrets.AdminPassword != "" {
		if s.adminHash, err = hash.HashPasswordWithCost(secrets.AdminPassword, cost); err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	}
	if secrets.DeletePassword != "" {
		if s.deleteHash, err = hash.HashPasswordWithCost(secrets.DeletePassword, cost); err != nil {
			return nil, fmt.Errorf("failed to hash delete password: %w", err)
		}
	}

	return s, nil
}

// Authenticate проверяет пароль администратора и выпускает сессию
func (s *Service) Authenticate(ctx context.Context, password string) (*jwt.Session, error) {
	if s.adminHash == "" {
		s.logger.Error("Admin password is not configured")
		return nil, domain.ErrAuthNotConfigured
	}

	if !hash.CheckPassword(s.adminHash, password) {
		s.logger.Warn("Invalid admin password")
		return nil, domain.ErrInvalidCredentials
	}

	session, err := s.tokenService.Issue()
	if err != nil {
		return nil, err
	}

	s.logger.Info("Admin session issued", map[string]interface{}{
		"expires_at": session.ExpiresAt,
	})

	return session, nil
}

// ValidateSession проверяет токен сессии из cookie
func (s *Service) ValidateSession(token string) error {
	if token == "" {
		return domain.ErrInvalidSession
	}
	_, err := s.tokenService.Validate(token)
	return err
}

// AuthorizeDelete проверяет пароль на удаление поездки
func (s *Service) AuthorizeDelete(ctx context.Context, password string) error {
	if s.deleteHash == "" {
		s.logger.Error("Delete password is not configured")
		return domain.ErrAuthNotConfigured
	}

	if !hash.CheckPassword(s.deleteHash, password) {
		return domain.ErrDeleteForbidden
	}

	return nil
}
