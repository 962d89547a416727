package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/frontandrew/triplog/internal/usecase/trip"
	"github.com/google/uuid"
)

// TripService определяет интерфейс для сервиса поездок
type TripService interface {
	CreateTrip(ctx context.Context, req *trip.CreateTripRequest) (*domain.Trip, error)
	UpdateTrip(ctx context.Context, id uuid.UUID, req *trip.UpdateTripRequest) (*domain.Trip, error)
	DeleteTrip(ctx context.Context, id uuid.UUID, password string) error
	GetTrip(ctx context.Context, id uuid.UUID) (*domain.TripView, error)
	ListTrips(ctx context.Context, filter repository.TripFilter) ([]*domain.TripView, error)
}

// TripHandler обрабатывает запросы журнала поездок
type TripHandler struct {
	tripService TripService
	logger      logger.Logger
}

// NewTripHandler создает новый handler
func NewTripHandler(tripService TripService, logger logger.Logger) *TripHandler {
	return &TripHandler{
		tripService: tripService,
		logger:      logger,
	}
}

// CreateTrip записывает поездку из формы
// POST /api/v1/trips
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var vehicleID uuid.UUID
	if raw := r.PostFormValue("vehicleId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
			return
		}
		vehicleID = id
	}

	odoEnd, evRemainPct, hipassBalance, err := formReadings(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.tripService.CreateTrip(r.Context(), &trip.CreateTripRequest{
		Date:          r.PostFormValue("date"),
		VehicleID:     vehicleID,
		DriverName:    r.PostFormValue("driverName"),
		OdoEnd:        odoEnd,
		EVRemainPct:   evRemainPct,
		HipassBalance: hipassBalance,
		Note:          r.PostFormValue("note"),
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "create trip")
		return
	}

	respondSuccess(w, http.StatusCreated, t)
}

// ListTrips возвращает последние поездки
// GET /api/v1/trips?vehicleId=&limit=
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	var filter repository.TripFilter

	if raw := r.URL.Query().Get("vehicleId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
			return
		}
		filter.VehicleID = &id
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	trips, err := h.tripService.ListTrips(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "list trips")
		return
	}

	respondSuccess(w, http.StatusOK, trips)
}

// GetTrip возвращает поездку по ID
// GET /api/v1/trips/{id}
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	t, err := h.tripService.GetTrip(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get trip")
		return
	}

	respondSuccess(w, http.StatusOK, t)
}

// UpdateTrip исправляет показания поездки (только администратор)
// PUT /api/v1/trips/{id}
func (h *TripHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	odoEnd, evRemainPct, hipassBalance, err := formReadings(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.tripService.UpdateTrip(r.Context(), id, &trip.UpdateTripRequest{
		OdoEnd:        odoEnd,
		EVRemainPct:   evRemainPct,
		HipassBalance: hipassBalance,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "update trip")
		return
	}

	respondSuccess(w, http.StatusOK, t)
}

// DeleteTrip удаляет поездку по паролю на удаление
// POST /api/v1/trips/{id}/delete
func (h *TripHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	if err := h.tripService.DeleteTrip(r.Context(), id, r.PostFormValue("password")); err != nil {
		respondServiceError(w, h.logger, err, "delete trip")
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"id": id,
	})
}
