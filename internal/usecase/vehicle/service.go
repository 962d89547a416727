package vehicle

import (
	"context"
	"fmt"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/google/uuid"
)

// Service - справочник филиалов, автомобилей и водителей
type Service struct {
	vehicleRepo repository.VehicleRepository
	driverRepo  repository.DriverRepository
	logger      logger.Logger
}

// NewService создает новый экземпляр VehicleService
func NewService(
	vehicleRepo repository.VehicleRepository,
	driverRepo repository.DriverRepository,
	logger logger.Logger,
) *Service {
	return &Service{
		vehicleRepo: vehicleRepo,
		driverRepo:  driverRepo,
		logger:      logger,
	}
}

// ListBranches возвращает филиалы
func (s *Service) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	return s.vehicleRepo.ListBranches(ctx)
}

// ListVehicles возвращает автомобили филиала; пустой код - все автомобили
func (s *Service) ListVehicles(ctx context.Context, branchCode string) ([]*domain.Vehicle, error) {
	vehicles, err := s.vehicleRepo.List(ctx, branchCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	if branchCode != "" && len(vehicles) == 0 {
		// филиал без автомобилей не существует: филиалы выводятся из автомобилей
		s.logger.Debug("Unknown branch requested", map[string]interface{}{
			"branch_code": branchCode,
		})
		return nil, domain.ErrBranchNotFound
	}

	return vehicles, nil
}

// GetVehicle возвращает автомобиль по ID
func (s *Service) GetVehicle(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	return s.vehicleRepo.GetByID(ctx, id)
}

// ListDrivers возвращает водителей по имени
func (s *Service) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.List(ctx)
}
