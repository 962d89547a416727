package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
)

// TestRespondServiceError тестирует перевод ошибок сервисов в HTTP статусы
func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "поездка не найдена", err: domain.ErrTripNotFound, expectedStatus: http.StatusNotFound},
		{name: "автомобиль не найден", err: domain.ErrVehicleNotFound, expectedStatus: http.StatusNotFound},
		{name: "филиал не найден", err: fmt.Errorf("dashboard: %w", domain.ErrBranchNotFound), expectedStatus: http.StatusNotFound},
		{name: "неверный пароль", err: domain.ErrInvalidCredentials, expectedStatus: http.StatusUnauthorized},
		{name: "удаление запрещено", err: domain.ErrDeleteForbidden, expectedStatus: http.StatusForbidden},
		{name: "ошибка валидации", err: domain.ErrInvalidOdometer, expectedStatus: http.StatusBadRequest},
		{name: "прочая ошибка", err: errors.New("connection reset"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			respondServiceError(rec, logger.NewNoop(), tt.err, "load")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			AssertError(t, decodeResponse(t, rec))
		})
	}
}
