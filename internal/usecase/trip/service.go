package trip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/frontandrew/triplog/internal/usecase/ledger"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// CreateTripRequest - запрос на запись поездки
type CreateTripRequest struct {
	Date          string    `json:"date"`
	VehicleID     uuid.UUID `json:"vehicle_id"`
	DriverName    string    `json:"driver_name"`
	OdoEnd        int64     `json:"odo_end"`
	EVRemainPct   int       `json:"ev_remain_pct"`
	HipassBalance int64     `json:"hipass_balance"`
	Note          string    `json:"note,omitempty"`
}

// UpdateTripRequest - исправление показаний поездки.
// Дата, автомобиль и водитель не редактируются.
type UpdateTripRequest struct {
	OdoEnd        int64 `json:"odo_end"`
	EVRemainPct   int   `json:"ev_remain_pct"`
	HipassBalance int64 `json:"hipass_balance"`
}

// DriverResolver находит водителя по имени или создает нового
type DriverResolver interface {
	GetOrCreateByName(ctx context.Context, name string) (*domain.Driver, error)
}

// DeleteAuthorizer проверяет пароль на удаление
type DeleteAuthorizer interface {
	AuthorizeDelete(ctx context.Context, password string) error
}

// Service содержит бизнес-логику записи поездок
type Service struct {
	uow        repository.VehicleUnitOfWork
	views      repository.TripQueryRepository
	vehicles   repository.VehicleRepository
	drivers    DriverResolver
	authorizer DeleteAuthorizer
	logger     logger.Logger
}

// NewService создает новый экземпляр TripService
func NewService(
	uow repository.VehicleUnitOfWork,
	views repository.TripQueryRepository,
	vehicles repository.VehicleRepository,
	drivers DriverResolver,
	authorizer DeleteAuthorizer,
	logger logger.Logger,
) *Service {
	return &Service{
		uow:        uow,
		views:      views,
		vehicles:   vehicles,
		drivers:    drivers,
		authorizer: authorizer,
		logger:     logger,
	}
}

// CreateTrip записывает поездку и вычисляет odo_start, distance и toll_cost.
// Поездка задним числом вставляется в середину цепочки, после чего цепочка пересчитывается.
func (s *Service) CreateTrip(ctx context.Context, req *CreateTripRequest) (*domain.Trip, error) {
	driverName := domain.NormalizeDriverName(req.DriverName)
	if req.Date == "" || req.VehicleID == uuid.Nil || driverName == "" {
		return nil, domain.ErrMissingRequiredField
	}

	date, err := domain.ParseTripDate(req.Date)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateReadings(req.OdoEnd, req.EVRemainPct, req.HipassBalance); err != nil {
		return nil, err
	}

	s.logger.Info("Creating trip", map[string]interface{}{
		"vehicle_id": req.VehicleID,
		"date":       req.Date,
		"odo_end":    req.OdoEnd,
	})

	if _, err := s.vehicles.GetByID(ctx, req.VehicleID); err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	driver, err := s.drivers.GetOrCreateByName(ctx, driverName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve driver: %w", err)
	}

	trip := &domain.Trip{
		Date:          date,
		VehicleID:     req.VehicleID,
		DriverID:      driver.ID,
		OdoEnd:        req.OdoEnd,
		EVRemainPct:   req.EVRemainPct,
		HipassBalance: req.HipassBalance,
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		trip.Note = &note
	}

	var repaired int
	err = s.uow.WithinVehicle(ctx, req.VehicleID, func(ctx context.Context, trips repository.TripRepository) error {
		latest, err := trips.FindLatestForVehicle(ctx, req.VehicleID)
		switch {
		case errors.Is(err, domain.ErrTripNotFound):
			// первая поездка автомобиля
			return trips.Create(ctx, trip)
		case err != nil:
			return err
		case !date.Before(latest.Date):
			if err := checkAfter(latest, trip.OdoEnd); err != nil {
				return err
			}
			trip.SetDerived(ledger.Derive(latest, trip.OdoEnd, trip.HipassBalance))
			return trips.Create(ctx, trip)
		}

		chain, err := trips.FindForVehicle(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		prev, next := neighboursForDate(chain, date)
		if err := checkAfter(prev, trip.OdoEnd); err != nil {
			return err
		}
		if err := checkBefore(next, trip.OdoEnd); err != nil {
			return err
		}

		trip.SetDerived(ledger.Derive(prev, trip.OdoEnd, trip.HipassBalance))
		if err := trips.Create(ctx, trip); err != nil {
			return err
		}

		repaired, err = ledger.Repair(ctx, trips, req.VehicleID)
		return err
	})
	if err != nil {
		if domain.IsValidationError(err) {
			s.logger.Warn("Trip rejected", map[string]interface{}{
				"vehicle_id": req.VehicleID,
				"reason":     err.Error(),
			})
			return nil, err
		}
		s.logger.Error("Failed to create trip", map[string]interface{}{
			"vehicle_id": req.VehicleID,
			"error":      err,
		})
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	s.logger.Info("Trip created successfully", map[string]interface{}{
		"trip_id":  trip.ID,
		"distance": trip.Distance,
		"repaired": repaired,
	})

	return trip, nil
}

// UpdateTrip исправляет показания и пересчитывает цепочку автомобиля
func (s *Service) UpdateTrip(ctx context.Context, id uuid.UUID, req *UpdateTripRequest) (*domain.Trip, error) {
	if err := domain.ValidateReadings(req.OdoEnd, req.EVRemainPct, req.HipassBalance); err != nil {
		return nil, err
	}

	current, err := s.views.GetView(ctx, id)
	if err != nil {
		return nil, err
	}
	vehicleID := current.VehicleID

	var (
		updated  *domain.Trip
		repaired int
	)
	err = s.uow.WithinVehicle(ctx, vehicleID, func(ctx context.Context, trips repository.TripRepository) error {
		chain, err := trips.FindForVehicle(ctx, vehicleID)
		if err != nil {
			return err
		}

		idx := indexOf(chain, id)
		if idx < 0 {
			// удалена между чтением и блокировкой
			return domain.ErrTripNotFound
		}
		if idx > 0 {
			if err := checkAfter(chain[idx-1], req.OdoEnd); err != nil {
				return err
			}
		}
		if idx < len(chain)-1 {
			if err := checkBefore(chain[idx+1], req.OdoEnd); err != nil {
				return err
			}
		}

		if err := trips.UpdateReadings(ctx, id, req.OdoEnd, req.EVRemainPct, req.HipassBalance); err != nil {
			return err
		}

		if repaired, err = ledger.Repair(ctx, trips, vehicleID); err != nil {
			return err
		}

		updated, err = trips.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if domain.IsValidationError(err) || errors.Is(err, domain.ErrTripNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to update trip", map[string]interface{}{
			"trip_id": id,
			"error":   err,
		})
		return nil, fmt.Errorf("failed to update trip: %w", err)
	}

	s.logger.Info("Trip updated successfully", map[string]interface{}{
		"trip_id":  id,
		"repaired": repaired,
	})

	return updated, nil
}

// DeleteTrip удаляет поездку по паролю на удаление и пересчитывает цепочку
func (s *Service) DeleteTrip(ctx context.Context, id uuid.UUID, password string) error {
	if err := s.authorizer.AuthorizeDelete(ctx, password); err != nil {
		s.logger.Warn("Trip deletion denied", map[string]interface{}{
			"trip_id": id,
		})
		return err
	}

	current, err := s.views.GetView(ctx, id)
	if err != nil {
		return err
	}
	vehicleID := current.VehicleID

	var repaired int
	err = s.uow.WithinVehicle(ctx, vehicleID, func(ctx context.Context, trips repository.TripRepository) error {
		if err := trips.Delete(ctx, id); err != nil {
			return err
		}
		repaired, err = ledger.Repair(ctx, trips, vehicleID)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrTripNotFound) {
			return err
		}
		s.logger.Error("Failed to delete trip", map[string]interface{}{
			"trip_id": id,
			"error":   err,
		})
		return fmt.Errorf("failed to delete trip: %w", err)
	}

	s.logger.Info("Trip deleted", map[string]interface{}{
		"trip_id":    id,
		"vehicle_id": vehicleID,
		"repaired":   repaired,
	})

	return nil
}

// GetTrip возвращает поездку с номером, моделью и водителем
func (s *Service) GetTrip(ctx context.Context, id uuid.UUID) (*domain.TripView, error) {
	return s.views.GetView(ctx, id)
}

// ListTrips возвращает поездки от новых к старым
func (s *Service) ListTrips(ctx context.Context, filter repository.TripFilter) ([]*domain.TripView, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	filter.Ascending = false

	return s.views.ListViews(ctx, filter)
}

// checkAfter запрещает показания ниже предыдущей поездки
func checkAfter(prev *domain.Trip, odoEnd int64) error {
	if prev != nil && odoEnd < prev.OdoEnd {
		return fmt.Errorf("%w (previous: %d km)", domain.ErrOdometerBelowPrevious, prev.OdoEnd)
	}
	return nil
}

// checkBefore запрещает показания выше следующей поездки
func checkBefore(next *domain.Trip, odoEnd int64) error {
	if next != nil && odoEnd > next.OdoEnd {
		return fmt.Errorf("%w (next: %d km)", domain.ErrOdometerAboveNext, next.OdoEnd)
	}
	return nil
}

// neighboursForDate возвращает соседей новой поездки с датой date.
// Новая поездка создается позже всех существующих, поэтому встает после
// всех поездок той же даты.
func neighboursForDate(chain []*domain.Trip, date time.Time) (prev, next *domain.Trip) {
	for _, t := range chain {
		if t.Date.After(date) {
			return prev, t
		}
		prev = t
	}
	return prev, nil
}

func indexOf(chain []*domain.Trip, id uuid.UUID) int {
	for i, t := range chain {
		if t.ID == id {
			return i
		}
	}
	return -1
}
