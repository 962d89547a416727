package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/usecase/stats"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockStatsService мок для StatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Dashboard(ctx context.Context, req stats.DashboardRequest) (*stats.Dashboard, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stats.Dashboard), args.Error(1)
}

func (m *MockStatsService) MonthlyReport(ctx context.Context, branchCode, month string) ([]byte, error) {
	args := m.Called(ctx, branchCode, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockLedgerService мок для LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) RecomputeChain(ctx context.Context, vehicleID uuid.UUID) (int, error) {
	args := m.Called(ctx, vehicleID)
	return args.Int(0), args.Error(1)
}

func newTestAdminHandler(s *MockStatsService, l *MockLedgerService, now time.Time) *AdminHandler {
	h := NewAdminHandler(s, l, logger.NewNoop())
	h.now = func() time.Time { return now }
	return h
}

// TestAdminHandler_Dashboard тестирует разбор параметров панели
func TestAdminHandler_Dashboard(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		query          string
		mockSetup      func(*MockStatsService)
		expectedStatus int
	}{
		{
			name:  "по умолчанию текущий месяц",
			query: "",
			mockSetup: func(m *MockStatsService) {
				m.On("Dashboard", mock.Anything, stats.DashboardRequest{Range: domain.RangeMonth, Now: now}).
					Return(&stats.Dashboard{Range: domain.RangeMonth}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "филиал и 7 дней",
			query: "?branch=SEL&rt=7d",
			mockSetup: func(m *MockStatsService) {
				m.On("Dashboard", mock.Anything, stats.DashboardRequest{BranchCode: "SEL", Range: domain.RangeWeek, Now: now}).
					Return(&stats.Dashboard{BranchCode: "SEL", Range: domain.RangeWeek}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "неизвестный период",
			query:          "?rt=year",
			mockSetup:      func(m *MockStatsService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "неизвестный филиал",
			query: "?branch=XXX",
			mockSetup: func(m *MockStatsService) {
				m.On("Dashboard", mock.Anything, mock.Anything).Return(nil, domain.ErrBranchNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statsService := new(MockStatsService)
			tt.mockSetup(statsService)

			handler := newTestAdminHandler(statsService, new(MockLedgerService), now)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard"+tt.query, nil)
			rec := httptest.NewRecorder()

			handler.Dashboard(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			statsService.AssertExpectations(t)
		})
	}
}

// TestAdminHandler_MonthlyReport тестирует выгрузку отчета
func TestAdminHandler_MonthlyReport(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	t.Run("текущий месяц по умолчанию", func(t *testing.T) {
		statsService := new(MockStatsService)
		statsService.On("MonthlyReport", mock.Anything, "", "2024-03").Return([]byte("xlsx"), nil)

		handler := newTestAdminHandler(statsService, new(MockLedgerService), now)
		rec := httptest.NewRecorder()

		handler.MonthlyReport(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/reports/monthly", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="triplog-2024-03-all.xlsx"`)
		assert.Equal(t, "xlsx", rec.Body.String())
		statsService.AssertExpectations(t)
	})

	t.Run("неверный месяц", func(t *testing.T) {
		statsService := new(MockStatsService)
		statsService.On("MonthlyReport", mock.Anything, "SEL", "March").Return(nil, domain.ErrInvalidMonth)

		handler := newTestAdminHandler(statsService, new(MockLedgerService), now)
		rec := httptest.NewRecorder()

		handler.MonthlyReport(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/reports/monthly?branch=SEL&month=March", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		AssertError(t, decodeResponse(t, rec))
	})
}

func TestAdminHandler_RecomputeChain(t *testing.T) {
	vehicleID := uuid.New()

	tests := []struct {
		name           string
		mockSetup      func(*MockLedgerService)
		expectedStatus int
	}{
		{
			name: "цепочка исправлена",
			mockSetup: func(m *MockLedgerService) {
				m.On("RecomputeChain", mock.Anything, vehicleID).Return(3, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "автомобиль не найден",
			mockSetup: func(m *MockLedgerService) {
				m.On("RecomputeChain", mock.Anything, vehicleID).Return(0, domain.ErrVehicleNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledgerService := new(MockLedgerService)
			tt.mockSetup(ledgerService)

			handler := newTestAdminHandler(new(MockStatsService), ledgerService, time.Now())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/vehicles/"+vehicleID.String()+"/recompute", nil)
			req = withURLParams(req, map[string]string{"id": vehicleID.String()})
			rec := httptest.NewRecorder()

			handler.RecomputeChain(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				data := decodeResponse(t, rec)["data"].(map[string]interface{})
				assert.Equal(t, float64(3), data["changed"])
			}
			ledgerService.AssertExpectations(t)
		})
	}
}
