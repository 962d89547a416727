package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// CreateTestVehicle создает тестовый автомобиль
func CreateTestVehicle(id uuid.UUID, plate, branchCode string) *domain.Vehicle {
	return &domain.Vehicle{
		ID:         id,
		Plate:      plate,
		Model:      "Ioniq 5",
		BranchCode: branchCode,
		BranchName: "Test Branch",
		FuelType:   "EV",
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// CreateTestTrip создает тестовую поездку
func CreateTestTrip(id, vehicleID uuid.UUID, odoStart *int64, odoEnd int64) *domain.Trip {
	t := &domain.Trip{
		ID:          id,
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		VehicleID:   vehicleID,
		DriverID:    uuid.New(),
		OdoStart:    odoStart,
		OdoEnd:      odoEnd,
		EVRemainPct: 80,
	}
	if odoStart != nil {
		t.Distance = odoEnd - *odoStart
	}
	return t
}

// newFormRequest создает запрос с телом application/x-www-form-urlencoded
func newFormRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// withURLParams добавляет параметры пути chi в контекст запроса
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// decodeResponse разбирает JSON ответ
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// AssertSuccess проверяет успешный ответ API
func AssertSuccess(t *testing.T, response map[string]interface{}) {
	t.Helper()
	success, ok := response["success"].(bool)
	if !ok || !success {
		t.Errorf("Expected success=true, got %v", response)
	}
}

// AssertError проверяет ошибочный ответ API
func AssertError(t *testing.T, response map[string]interface{}) {
	t.Helper()
	success, ok := response["success"].(bool)
	if !ok || success {
		t.Errorf("Expected success=false, got %v", response)
	}
}
