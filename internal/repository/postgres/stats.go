package postgres

import (
	"context"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/google/uuid"
)

type statsRepository struct {
	db DB
}

func NewStatsRepository(db DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

// SUM(bigint) в postgres возвращает numeric, поэтому суммы приводятся к BIGINT
const totalsSelect = `
	COUNT(*)::BIGINT,
	COALESCE(SUM(t.distance), 0)::BIGINT,
	COALESCE(SUM(t.toll_cost), 0)::BIGINT
`

func (r *statsRepository) Totals(ctx context.Context, branchCode string, period domain.Period) (domain.TripTotals, error) {
	query := `
		SELECT ` + totalsSelect + `
		FROM trips t
		JOIN vehicles v ON v.id = t.vehicle_id
		WHERE t.date >= $1 AND t.date < $2 AND ($3 = '' OR v.branch_code = $3)
	`

	var totals domain.TripTotals
	err := r.db.QueryRow(ctx, query, period.From, period.To, branchCode).
		Scan(&totals.Count, &totals.Distance, &totals.TollCost)
	return totals, err
}

func (r *statsRepository) TotalsByVehicle(ctx context.Context, branchCode string, period domain.Period) (map[uuid.UUID]domain.TripTotals, error) {
	query := `
		SELECT t.vehicle_id, ` + totalsSelect + `
		FROM trips t
		JOIN vehicles v ON v.id = t.vehicle_id
		WHERE t.date >= $1 AND t.date < $2 AND ($3 = '' OR v.branch_code = $3)
		GROUP BY t.vehicle_id
	`

	rows, err := r.db.Query(ctx, query, period.From, period.To, branchCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[uuid.UUID]domain.TripTotals)
	for rows.Next() {
		var (
			id     uuid.UUID
			totals domain.TripTotals
		)
		if err := rows.Scan(&id, &totals.Count, &totals.Distance, &totals.TollCost); err != nil {
			return nil, err
		}
		result[id] = totals
	}

	return result, rows.Err()
}

func (r *statsRepository) TotalsByBranch(ctx context.Context, period domain.Period) (map[string]domain.TripTotals, error) {
	query := `
		SELECT v.branch_code, ` + totalsSelect + `
		FROM trips t
		JOIN vehicles v ON v.id = t.vehicle_id
		WHERE t.date >= $1 AND t.date < $2
		GROUP BY v.branch_code
	`

	rows, err := r.db.Query(ctx, query, period.From, period.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.TripTotals)
	for rows.Next() {
		var (
			code   string
			totals domain.TripTotals
		)
		if err := rows.Scan(&code, &totals.Count, &totals.Distance, &totals.TollCost); err != nil {
			return nil, err
		}
		result[code] = totals
	}

	return result, rows.Err()
}

// LatestByVehicle берет последнюю поездку каждого автомобиля в порядке цепочки
func (r *statsRepository) LatestByVehicle(ctx context.Context, branchCode string) (map[uuid.UUID]domain.LatestReading, error) {
	query := `
		SELECT DISTINCT ON (t.vehicle_id)
			t.vehicle_id, t.date, t.ev_remain_pct, t.hipass_balance, t.odo_end
		FROM trips t
		JOIN vehicles v ON v.id = t.vehicle_id
		WHERE ($1 = '' OR v.branch_code = $1)
		ORDER BY t.vehicle_id, t.date DESC, t.created_at DESC, t.id DESC
	`

	rows, err := r.db.Query(ctx, query, branchCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[uuid.UUID]domain.LatestReading)
	for rows.Next() {
		var (
			id     uuid.UUID
			latest domain.LatestReading
		)
		if err := rows.Scan(&id, &latest.Date, &latest.EVRemainPct, &latest.HipassBalance, &latest.OdoEnd); err != nil {
			return nil, err
		}
		latest.Date = domain.TruncateDay(latest.Date)
		result[id] = latest
	}

	return result, rows.Err()
}
