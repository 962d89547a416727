package http

import (
	"context"
	"net/http"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/google/uuid"
)

// VehicleService определяет интерфейс для справочника автомобилей
type VehicleService interface {
	ListBranches(ctx context.Context) ([]domain.Branch, error)
	ListVehicles(ctx context.Context, branchCode string) ([]*domain.Vehicle, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)
	ListDrivers(ctx context.Context) ([]*domain.Driver, error)
}

// VehicleHandler обрабатывает запросы справочника филиалов, автомобилей и водителей
type VehicleHandler struct {
	vehicleService VehicleService
	logger         logger.Logger
}

// NewVehicleHandler создает новый handler
func NewVehicleHandler(vehicleService VehicleService, logger logger.Logger) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
		logger:         logger,
	}
}

// ListBranches возвращает филиалы
// GET /api/v1/branches
func (h *VehicleHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.vehicleService.ListBranches(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list branches")
		return
	}

	respondSuccess(w, http.StatusOK, branches)
}

// ListBranchVehicles возвращает автомобили филиала
// GET /api/v1/branches/{code}/vehicles
func (h *VehicleHandler) ListBranchVehicles(w http.ResponseWriter, r *http.Request) {
	h.listVehicles(w, r, getPathParam(r, "code"))
}

// ListVehicles возвращает все автомобили
// GET /api/v1/vehicles
func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	h.listVehicles(w, r, "")
}

func (h *VehicleHandler) listVehicles(w http.ResponseWriter, r *http.Request, branchCode string) {
	vehicles, err := h.vehicleService.ListVehicles(r.Context(), branchCode)
	if err != nil {
		respondServiceError(w, h.logger, err, "list vehicles")
		return
	}

	respondSuccess(w, http.StatusOK, vehicles)
}

// GetVehicle возвращает автомобиль по ID
// GET /api/v1/vehicles/{id}
func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}

	v, err := h.vehicleService.GetVehicle(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get vehicle")
		return
	}

	respondSuccess(w, http.StatusOK, v)
}

// ListDrivers возвращает водителей
// GET /api/v1/drivers
func (h *VehicleHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.vehicleService.ListDrivers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list drivers")
		return
	}

	respondSuccess(w, http.StatusOK, drivers)
}
