package postgres

import (
	"context"
	"fmt"

	"github.com/frontandrew/triplog/internal/repository"
	"github.com/google/uuid"
)

type unitOfWork struct {
	db  TxStarter
	now Clock
}

// NewUnitOfWork создает транзакционную обертку над цепочкой автомобиля
func NewUnitOfWork(db TxStarter) repository.VehicleUnitOfWork {
	return &unitOfWork{db: db, now: defaultClock}
}

// WithinVehicle открывает транзакцию и берет advisory-блокировку по автомобилю.
// Блокировка снимается при COMMIT/ROLLBACK, поэтому два запроса по одному
// автомобилю выполняют чтение-пересчет-запись строго по очереди.
func (u *unitOfWork) WithinVehicle(
	ctx context.Context,
	vehicleID uuid.UUID,
	fn func(ctx context.Context, trips repository.TripRepository) error,
) (err error) {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, vehicleID.String()); err != nil {
		return fmt.Errorf("lock vehicle chain: %w", err)
	}

	if err = fn(ctx, &tripRepository{db: tx, now: u.now}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
