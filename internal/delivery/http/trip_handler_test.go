package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/frontandrew/triplog/internal/usecase/trip"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockTripService мок для TripService
type MockTripService struct {
	mock.Mock
}

func (m *MockTripService) CreateTrip(ctx context.Context, req *trip.CreateTripRequest) (*domain.Trip, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripService) UpdateTrip(ctx context.Context, id uuid.UUID, req *trip.UpdateTripRequest) (*domain.Trip, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripService) DeleteTrip(ctx context.Context, id uuid.UUID, password string) error {
	args := m.Called(ctx, id, password)
	return args.Error(0)
}

func (m *MockTripService) GetTrip(ctx context.Context, id uuid.UUID) (*domain.TripView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TripView), args.Error(1)
}

func (m *MockTripService) ListTrips(ctx context.Context, filter repository.TripFilter) ([]*domain.TripView, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TripView), args.Error(1)
}

func validTripForm(vehicleID uuid.UUID) url.Values {
	return url.Values{
		"date":          {"2024-03-01"},
		"vehicleId":     {vehicleID.String()},
		"driverName":    {"Kim"},
		"odoEnd":        {"12,345"},
		"evRemainPct":   {"80"},
		"hipassBalance": {"50000"},
		"note":          {"airport"},
	}
}

// TestTripHandler_CreateTrip тестирует запись поездки
func TestTripHandler_CreateTrip(t *testing.T) {
	vehicleID := uuid.New()
	tripID := uuid.New()

	tests := []struct {
		name           string
		form           func() url.Values
		mockSetup      func(*MockTripService)
		expectedStatus int
		checkResponse  func(*testing.T, map[string]interface{})
	}{
		{
			name: "успешная запись",
			form: func() url.Values { return validTripForm(vehicleID) },
			mockSetup: func(m *MockTripService) {
				m.On("CreateTrip", mock.Anything, mock.MatchedBy(func(req *trip.CreateTripRequest) bool {
					return req.VehicleID == vehicleID &&
						req.Date == "2024-03-01" &&
						req.DriverName == "Kim" &&
						req.OdoEnd == 12345 &&
						req.EVRemainPct == 80 &&
						req.HipassBalance == 50000 &&
						req.Note == "airport"
				})).Return(CreateTestTrip(tripID, vehicleID, domain.Int64Ptr(12300), 12345), nil)
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				AssertSuccess(t, resp)
				data := resp["data"].(map[string]interface{})
				assert.Equal(t, tripID.String(), data["id"])
				assert.Equal(t, float64(45), data["distance"])
			},
		},
		{
			name: "пустой баланс карты считается нулем",
			form: func() url.Values {
				f := validTripForm(vehicleID)
				f.Set("hipassBalance", "")
				return f
			},
			mockSetup: func(m *MockTripService) {
				m.On("CreateTrip", mock.Anything, mock.MatchedBy(func(req *trip.CreateTripRequest) bool {
					return req.HipassBalance == 0
				})).Return(CreateTestTrip(tripID, vehicleID, nil, 12345), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "нечисловой одометр",
			form: func() url.Values {
				f := validTripForm(vehicleID)
				f.Set("odoEnd", "abc")
				return f
			},
			mockSetup:      func(m *MockTripService) {},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				AssertError(t, resp)
				assert.Equal(t, domain.ErrInvalidOdometer.Error(), resp["error"])
			},
		},
		{
			name: "пустой заряд",
			form: func() url.Values {
				f := validTripForm(vehicleID)
				f.Del("evRemainPct")
				return f
			},
			mockSetup:      func(m *MockTripService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "неверный ID автомобиля",
			form: func() url.Values {
				f := validTripForm(vehicleID)
				f.Set("vehicleId", "not-a-uuid")
				return f
			},
			mockSetup:      func(m *MockTripService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "одометр меньше предыдущего",
			form: func() url.Values { return validTripForm(vehicleID) },
			mockSetup: func(m *MockTripService) {
				m.On("CreateTrip", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w (previous: %d km)", domain.ErrOdometerBelowPrevious, 13000))
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				AssertError(t, resp)
				assert.Contains(t, resp["error"], "previous: 13000 km")
			},
		},
		{
			name: "автомобиль не найден",
			form: func() url.Values { return validTripForm(vehicleID) },
			mockSetup: func(m *MockTripService) {
				m.On("CreateTrip", mock.Anything, mock.Anything).Return(nil, domain.ErrVehicleNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "ошибка хранилища",
			form: func() url.Values { return validTripForm(vehicleID) },
			mockSetup: func(m *MockTripService) {
				m.On("CreateTrip", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				AssertError(t, resp)
				assert.Equal(t, "Failed to create trip", resp["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTripService)
			tt.mockSetup(mockService)

			handler := NewTripHandler(mockService, logger.NewNoop())

			req := newFormRequest(http.MethodPost, "/api/v1/trips", tt.form())
			rec := httptest.NewRecorder()

			handler.CreateTrip(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, decodeResponse(t, rec))
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTripHandler_ListTrips тестирует разбор фильтров списка
func TestTripHandler_ListTrips(t *testing.T) {
	vehicleID := uuid.New()

	tests := []struct {
		name           string
		query          string
		mockSetup      func(*MockTripService)
		expectedStatus int
	}{
		{
			name:  "без фильтров",
			query: "",
			mockSetup: func(m *MockTripService) {
				m.On("ListTrips", mock.Anything, repository.TripFilter{}).Return([]*domain.TripView{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "по автомобилю с лимитом",
			query: "?vehicleId=" + vehicleID.String() + "&limit=10",
			mockSetup: func(m *MockTripService) {
				m.On("ListTrips", mock.Anything, repository.TripFilter{VehicleID: &vehicleID, Limit: 10}).
					Return([]*domain.TripView{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "неверный лимит",
			query:          "?limit=many",
			mockSetup:      func(m *MockTripService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "неверный ID автомобиля",
			query:          "?vehicleId=42",
			mockSetup:      func(m *MockTripService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTripService)
			tt.mockSetup(mockService)

			handler := NewTripHandler(mockService, logger.NewNoop())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/trips"+tt.query, nil)
			rec := httptest.NewRecorder()

			handler.ListTrips(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestTripHandler_UpdateTrip тестирует исправление показаний
func TestTripHandler_UpdateTrip(t *testing.T) {
	tripID := uuid.New()
	vehicleID := uuid.New()

	form := url.Values{
		"odoEnd":        {"130"},
		"evRemainPct":   {"60"},
		"hipassBalance": {"1000"},
	}

	tests := []struct {
		name           string
		id             string
		mockSetup      func(*MockTripService)
		expectedStatus int
	}{
		{
			name: "успешное исправление",
			id:   tripID.String(),
			mockSetup: func(m *MockTripService) {
				m.On("UpdateTrip", mock.Anything, tripID, &trip.UpdateTripRequest{
					OdoEnd:        130,
					EVRemainPct:   60,
					HipassBalance: 1000,
				}).Return(CreateTestTrip(tripID, vehicleID, domain.Int64Ptr(100), 130), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "неверный ID",
			id:             "bad",
			mockSetup:      func(m *MockTripService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "больше следующей поездки",
			id:   tripID.String(),
			mockSetup: func(m *MockTripService) {
				m.On("UpdateTrip", mock.Anything, tripID, mock.Anything).
					Return(nil, fmt.Errorf("%w (next: %d km)", domain.ErrOdometerAboveNext, 120))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "поездка не найдена",
			id:   tripID.String(),
			mockSetup: func(m *MockTripService) {
				m.On("UpdateTrip", mock.Anything, tripID, mock.Anything).Return(nil, domain.ErrTripNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTripService)
			tt.mockSetup(mockService)

			handler := NewTripHandler(mockService, logger.NewNoop())

			req := newFormRequest(http.MethodPut, "/api/v1/trips/"+tt.id, form)
			req = withURLParams(req, map[string]string{"id": tt.id})
			rec := httptest.NewRecorder()

			handler.UpdateTrip(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestTripHandler_DeleteTrip тестирует удаление по паролю
func TestTripHandler_DeleteTrip(t *testing.T) {
	tripID := uuid.New()

	tests := []struct {
		name           string
		password       string
		mockSetup      func(*MockTripService)
		expectedStatus int
	}{
		{
			name:     "успешное удаление",
			password: "del-secret",
			mockSetup: func(m *MockTripService) {
				m.On("DeleteTrip", mock.Anything, tripID, "del-secret").Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:     "неверный пароль",
			password: "wrong",
			mockSetup: func(m *MockTripService) {
				m.On("DeleteTrip", mock.Anything, tripID, "wrong").Return(domain.ErrDeleteForbidden)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:     "пароль удаления не настроен",
			password: "any",
			mockSetup: func(m *MockTripService) {
				m.On("DeleteTrip", mock.Anything, tripID, "any").Return(domain.ErrAuthNotConfigured)
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTripService)
			tt.mockSetup(mockService)

			handler := NewTripHandler(mockService, logger.NewNoop())

			req := newFormRequest(http.MethodPost, "/api/v1/trips/"+tripID.String()+"/delete",
				url.Values{"password": {tt.password}})
			req = withURLParams(req, map[string]string{"id": tripID.String()})
			rec := httptest.NewRecorder()

			handler.DeleteTrip(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{name: "простое число", raw: "120", want: 120},
		{name: "разделители разрядов", raw: " 12,345 ", want: 12345},
		{name: "пусто", raw: "", wantErr: true},
		{name: "дробное", raw: "12.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmount(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
