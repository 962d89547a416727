package postgres

import (
	"context"
	"errors"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const vehicleColumns = `id, plate, model, branch_code, branch_name, fuel_type, created_at`

type vehicleRepository struct {
	db DB
}

func NewVehicleRepository(db DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	vehicle, err := scanVehicle(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}

	return vehicle, nil
}

func (r *vehicleRepository) List(ctx context.Context, branchCode string) ([]*domain.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE ($1 = '' OR branch_code = $1)
		ORDER BY branch_code, plate
	`

	rows, err := r.db.Query(ctx, query, branchCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := []*domain.Vehicle{}
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}

	return vehicles, rows.Err()
}

func (r *vehicleRepository) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	query := `
		SELECT DISTINCT branch_code, branch_name
		FROM vehicles
		WHERE branch_code <> ''
		ORDER BY branch_code, branch_name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := []domain.Branch{}
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.Code, &b.Name); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}

	return branches, rows.Err()
}

func (r *vehicleRepository) Upsert(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, plate, model, branch_code, branch_name, fuel_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (plate) DO UPDATE
		SET model = EXCLUDED.model,
		    branch_code = EXCLUDED.branch_code,
		    branch_name = EXCLUDED.branch_name,
		    fuel_type = EXCLUDED.fuel_type
		RETURNING id, created_at
	`

	vehicle.Plate = domain.NormalizePlate(vehicle.Plate)
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}

	return r.db.QueryRow(ctx, query,
		vehicle.ID,
		vehicle.Plate,
		vehicle.Model,
		vehicle.BranchCode,
		vehicle.BranchName,
		vehicle.FuelType,
		defaultClock(),
	).Scan(&vehicle.ID, &vehicle.CreatedAt)
}

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{}
	err := row.Scan(
		&vehicle.ID,
		&vehicle.Plate,
		&vehicle.Model,
		&vehicle.BranchCode,
		&vehicle.BranchName,
		&vehicle.FuelType,
		&vehicle.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}
