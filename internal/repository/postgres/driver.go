package postgres

import (
	"context"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/google/uuid"
)

type driverRepository struct {
	db DB
}

func NewDriverRepository(db DB) repository.DriverRepository {
	return &driverRepository{db: db}
}

// GetOrCreateByName - upsert по имени. DO UPDATE нужен, чтобы RETURNING
// вернул строку и для уже существующего водителя.
func (r *driverRepository) GetOrCreateByName(ctx context.Context, name string) (*domain.Driver, error) {
	query := `
		INSERT INTO drivers (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at
	`

	driver := &domain.Driver{}
	err := r.db.QueryRow(ctx, query, uuid.New(), name, defaultClock()).
		Scan(&driver.ID, &driver.Name, &driver.CreatedAt)
	if err != nil {
		return nil, err
	}

	return driver, nil
}

func (r *driverRepository) List(ctx context.Context) ([]*domain.Driver, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM drivers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drivers := []*domain.Driver{}
	for rows.Next() {
		d := &domain.Driver{}
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}

	return drivers, rows.Err()
}
