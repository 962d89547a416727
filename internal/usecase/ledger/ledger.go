// Package ledger пересчитывает вычисляемые поля цепочки поездок автомобиля.
//
// Для автомобиля V поездки упорядочены по (date, created_at, id). У первой
// поездки odo_start = nil, distance = 0, toll_cost = 0. У каждой следующей:
//
//	odo_start = prev.odo_end
//	distance  = max(0, odo_end - prev.odo_end)
//	toll_cost = max(0, prev.hipass_balance - hipass_balance)
//
// Пересчет идемпотентен и записывает только изменившиеся строки.
package ledger

import (
	"context"
	"fmt"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/google/uuid"
)

// Derive вычисляет поля поездки по предыдущей поездке цепочки (prev == nil - первая).
// Отрицательные разности обнуляются: строки, измененные в обход API,
// не должны давать отрицательный пробег.
func Derive(prev *domain.Trip, odoEnd, hipassBalance int64) domain.DerivedFields {
	if prev == nil {
		return domain.DerivedFields{}
	}

	odoStart := prev.OdoEnd
	return domain.DerivedFields{
		OdoStart: &odoStart,
		Distance: max(0, odoEnd-prev.OdoEnd),
		TollCost: max(0, prev.HipassBalance-hipassBalance),
	}
}

// Recalculate проходит цепочку в переданном порядке, записывает вычисляемые
// поля на месте и возвращает только поездки, у которых они изменились.
// chain должен быть отсортирован по (date, created_at, id).
func Recalculate(chain []*domain.Trip) []*domain.Trip {
	var (
		prev    *domain.Trip
		changed []*domain.Trip
	)

	for _, trip := range chain {
		derived := Derive(prev, trip.OdoEnd, trip.HipassBalance)
		if !derived.Equal(trip.Derived()) {
			trip.SetDerived(derived)
			changed = append(changed, trip)
		}
		prev = trip
	}

	return changed
}

// Repair пересчитывает цепочку автомобиля внутри уже открытой транзакции
// и возвращает число перезаписанных поездок.
func Repair(ctx context.Context, trips repository.TripRepository, vehicleID uuid.UUID) (int, error) {
	chain, err := trips.FindForVehicle(ctx, vehicleID)
	if err != nil {
		return 0, fmt.Errorf("failed to load chain: %w", err)
	}

	changed := Recalculate(chain)
	if len(changed) == 0 {
		return 0, nil
	}

	updates := make([]domain.DerivedUpdate, 0, len(changed))
	for _, trip := range changed {
		updates = append(updates, domain.DerivedUpdate{TripID: trip.ID, DerivedFields: trip.Derived()})
	}

	if err := trips.BatchUpdateDerived(ctx, updates); err != nil {
		return 0, fmt.Errorf("failed to persist chain: %w", err)
	}

	return len(changed), nil
}
