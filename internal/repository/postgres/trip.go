package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tripColumns = `t.id, t.date, t.vehicle_id, t.driver_id, t.odo_start, t.odo_end, t.distance,
	t.ev_remain_pct, t.hipass_balance, t.toll_cost, t.note, t.created_at, t.updated_at`

const chainOrder = `t.date, t.created_at, t.id`

type tripRepository struct {
	db  DB
	now Clock
}

// TripStore - чтение и запись поездок вне транзакции
type TripStore interface {
	repository.TripRepository
	repository.TripQueryRepository
}

// NewTripRepository создает репозиторий поездок.
// Для изменений цепочки используйте UnitOfWork - вне транзакции записи
// разных запросов по одному автомобилю не сериализуются.
func NewTripRepository(db DB) TripStore {
	return &tripRepository{db: db, now: defaultClock}
}

func (r *tripRepository) FindForVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips t
		WHERE t.vehicle_id = $1
		ORDER BY ` + chainOrder

	rows, err := r.db.Query(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []*domain.Trip{}
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

func (r *tripRepository) FindLatestForVehicle(ctx context.Context, vehicleID uuid.UUID) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips t
		WHERE t.vehicle_id = $1
		ORDER BY t.date DESC, t.created_at DESC, t.id DESC
		LIMIT 1
	`

	trip, err := scanTrip(r.db.QueryRow(ctx, query, vehicleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}

	return trip, nil
}

func (r *tripRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips t WHERE t.id = $1`

	trip, err := scanTrip(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}

	return trip, nil
}

func (r *tripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, date, vehicle_id, driver_id, odo_start, odo_end, distance,
			ev_remain_pct, hipass_balance, toll_cost, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	trip.ID = uuid.New()
	trip.CreatedAt = r.now()
	trip.UpdatedAt = trip.CreatedAt

	_, err := r.db.Exec(ctx, query,
		trip.ID,
		trip.Date,
		trip.VehicleID,
		trip.DriverID,
		trip.OdoStart,
		trip.OdoEnd,
		trip.Distance,
		trip.EVRemainPct,
		trip.HipassBalance,
		trip.TollCost,
		trip.Note,
		trip.CreatedAt,
		trip.UpdatedAt,
	)
	return err
}

func (r *tripRepository) UpdateReadings(ctx context.Context, id uuid.UUID, odoEnd int64, evRemainPct int, hipassBalance int64) error {
	query := `
		UPDATE trips
		SET odo_end = $2, ev_remain_pct = $3, hipass_balance = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, odoEnd, evRemainPct, hipassBalance, r.now())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTripNotFound
	}

	return nil
}

func (r *tripRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTripNotFound
	}

	return nil
}

// BatchUpdateDerived записывает только переданные строки, по одному UPDATE на поездку.
// Вызывается внутри транзакции UnitOfWork.
func (r *tripRepository) BatchUpdateDerived(ctx context.Context, updates []domain.DerivedUpdate) error {
	query := `
		UPDATE trips
		SET odo_start = $2, distance = $3, toll_cost = $4, updated_at = $5
		WHERE id = $1
	`

	now := r.now()
	for _, u := range updates {
		result, err := r.db.Exec(ctx, query, u.TripID, u.OdoStart, u.Distance, u.TollCost, now)
		if err != nil {
			return fmt.Errorf("update trip %s: %w", u.TripID, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("update trip %s: %w", u.TripID, domain.ErrTripNotFound)
		}
	}

	return nil
}

const tripViewSelect = `
	SELECT ` + tripColumns + `,
		v.plate, v.model, v.branch_code, v.branch_name, d.name
	FROM trips t
	JOIN vehicles v ON v.id = t.vehicle_id
	JOIN drivers d ON d.id = t.driver_id
`

func (r *tripRepository) GetView(ctx context.Context, id uuid.UUID) (*domain.TripView, error) {
	view, err := scanTripView(r.db.QueryRow(ctx, tripViewSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}

	return view, nil
}

func (r *tripRepository) ListViews(ctx context.Context, filter repository.TripFilter) ([]*domain.TripView, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.VehicleID != nil {
		add("t.vehicle_id = $%d", *filter.VehicleID)
	}
	if filter.BranchCode != "" {
		add("v.branch_code = $%d", filter.BranchCode)
	}
	if filter.From != nil {
		add("t.date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("t.date < $%d", *filter.To)
	}

	var sb strings.Builder
	sb.WriteString(tripViewSelect)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	if filter.Ascending {
		sb.WriteString(" ORDER BY t.date, t.created_at, t.id")
	} else {
		sb.WriteString(" ORDER BY t.date DESC, t.created_at DESC, t.id DESC")
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []*domain.TripView{}
	for rows.Next() {
		view, err := scanTripView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, rows.Err()
}

func tripDest(trip *domain.Trip) []any {
	return []any{
		&trip.ID,
		&trip.Date,
		&trip.VehicleID,
		&trip.DriverID,
		&trip.OdoStart,
		&trip.OdoEnd,
		&trip.Distance,
		&trip.EVRemainPct,
		&trip.HipassBalance,
		&trip.TollCost,
		&trip.Note,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	}
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	trip := &domain.Trip{}
	if err := row.Scan(tripDest(trip)...); err != nil {
		return nil, err
	}
	trip.Date = domain.TruncateDay(trip.Date)
	return trip, nil
}

func scanTripView(row pgx.Row) (*domain.TripView, error) {
	view := &domain.TripView{Trip: &domain.Trip{}}
	dest := append(tripDest(view.Trip),
		&view.Plate,
		&view.Model,
		&view.BranchCode,
		&view.BranchName,
		&view.DriverName,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	view.Date = domain.TruncateDay(view.Date)
	return view, nil
}
