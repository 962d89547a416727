package ledger

import (
	"context"

	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/google/uuid"
)

// Service выполняет пересчет цепочки по запросу администратора
type Service struct {
	uow      repository.VehicleUnitOfWork
	vehicles repository.VehicleRepository
	logger   logger.Logger
}

// NewService создает новый ledger service
func NewService(uow repository.VehicleUnitOfWork, vehicles repository.VehicleRepository, log logger.Logger) *Service {
	return &Service{
		uow:      uow,
		vehicles: vehicles,
		logger:   log,
	}
}

// RecomputeChain пересчитывает всю цепочку автомобиля в одной транзакции.
// Повторный вызов безопасен и ничего не меняет.
func (s *Service) RecomputeChain(ctx context.Context, vehicleID uuid.UUID) (int, error) {
	if _, err := s.vehicles.GetByID(ctx, vehicleID); err != nil {
		return 0, err
	}

	var changed int
	err := s.uow.WithinVehicle(ctx, vehicleID, func(ctx context.Context, trips repository.TripRepository) error {
		n, err := Repair(ctx, trips, vehicleID)
		changed = n
		return err
	})
	if err != nil {
		s.logger.Error("Chain recompute failed", map[string]interface{}{
			"vehicle_id": vehicleID,
			"error":      err,
		})
		return 0, err
	}

	s.logger.Info("Chain recomputed", map[string]interface{}{
		"vehicle_id": vehicleID,
		"changed":    changed,
	})

	return changed, nil
}
