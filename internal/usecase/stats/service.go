package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/repository"
)

// Options - пороги панели администратора
type Options struct {
	StaleDays   int // автомобиль без записей столько дней считается простаивающим
	RecentLimit int // размер ленты последних поездок
}

// DashboardRequest - запрос панели. Пустой BranchCode - все филиалы.
type DashboardRequest struct {
	BranchCode string
	Range      domain.RecentRange
	Now        time.Time
}

// Dashboard - сводка за текущий календарный месяц
type Dashboard struct {
	BranchCode   string                  `json:"branch_code,omitempty"`
	Period       domain.Period           `json:"period"`
	Range        domain.RecentRange      `json:"range"`
	Totals       domain.TripTotals       `json:"totals"`
	VehicleCount int                     `json:"vehicle_count"`
	StaleCount   int                     `json:"stale_count"`
	Vehicles     []domain.VehicleSummary `json:"vehicles"`
	Branches     []domain.BranchSummary  `json:"branches,omitempty"`
	Recent       []*domain.TripView      `json:"recent"`
}

// Service собирает агрегаты по филиалам и автомобилям
type Service struct {
	vehicleRepo repository.VehicleRepository
	statsRepo   repository.StatsRepository
	tripViews   repository.TripQueryRepository
	opts        Options
	now         func() time.Time
	logger      logger.Logger
}

// NewService создает новый экземпляр StatsService
func NewService(
	vehicleRepo repository.VehicleRepository,
	statsRepo repository.StatsRepository,
	tripViews repository.TripQueryRepository,
	opts Options,
	logger logger.Logger,
) *Service {
	if opts.StaleDays <= 0 {
		opts.StaleDays = 30
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 20
	}
	return &Service{
		vehicleRepo: vehicleRepo,
		statsRepo:   statsRepo,
		tripViews:   tripViews,
		opts:        opts,
		now:         time.Now,
		logger:      logger,
	}
}

// Dashboard возвращает сводку филиала (или всех филиалов) за месяц, содержащий req.Now
func (s *Service) Dashboard(ctx context.Context, req DashboardRequest) (*Dashboard, error) {
	now := req.Now
	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()

	rng := req.Range
	if rng == "" {
		rng = domain.RangeMonth
	}

	vehicles, err := s.vehiclesOf(ctx, req.BranchCode)
	if err != nil {
		return nil, err
	}

	period := domain.MonthPeriod(now)
	summaries, err := s.summarize(ctx, req.BranchCode, period, vehicles, now)
	if err != nil {
		return nil, err
	}

	totals, err := s.statsRepo.Totals(ctx, req.BranchCode, period)
	if err != nil {
		return nil, fmt.Errorf("failed to get totals: %w", err)
	}

	dashboard := &Dashboard{
		BranchCode:   req.BranchCode,
		Period:       period,
		Range:        rng,
		Totals:       totals,
		VehicleCount: len(vehicles),
		Vehicles:     summaries,
	}
	for _, summary := range summaries {
		if summary.Stale {
			dashboard.StaleCount++
		}
	}

	if req.BranchCode == "" {
		if dashboard.Branches, err = s.branchSummaries(ctx, period, summaries); err != nil {
			return nil, err
		}
	}

	filter := repository.TripFilter{BranchCode: req.BranchCode, Limit: s.opts.RecentLimit}
	switch rng {
	case domain.RangeMonth:
		filter.From, filter.To = &period.From, &period.To
	case domain.RangeWeek:
		from := domain.TruncateDay(now.AddDate(0, 0, -7))
		filter.From = &from
	}
	if dashboard.Recent, err = s.tripViews.ListViews(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to list recent trips: %w", err)
	}

	return dashboard, nil
}

func (s *Service) vehiclesOf(ctx context.Context, branchCode string) ([]*domain.Vehicle, error) {
	vehicles, err := s.vehicleRepo.List(ctx, branchCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	if branchCode != "" && len(vehicles) == 0 {
		return nil, domain.ErrBranchNotFound
	}
	return vehicles, nil
}

// summarize строит сводку по каждому автомобилю в порядке vehicles.
// Stale ставится только при известном числе дней с последней записи.
func (s *Service) summarize(
	ctx context.Context,
	branchCode string,
	period domain.Period,
	vehicles []*domain.Vehicle,
	now time.Time,
) ([]domain.VehicleSummary, error) {
	byVehicle, err := s.statsRepo.TotalsByVehicle(ctx, branchCode, period)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle totals: %w", err)
	}
	latest, err := s.statsRepo.LatestByVehicle(ctx, branchCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest readings: %w", err)
	}

	summaries := make([]domain.VehicleSummary, 0, len(vehicles))
	for _, v := range vehicles {
		summary := domain.VehicleSummary{
			Vehicle: v,
			Totals:  byVehicle[v.ID],
		}
		if reading, ok := latest[v.ID]; ok {
			days := domain.StaleDays(now, reading.Date)
			summary.Latest = &reading
			summary.StaleDays = &days
			summary.Stale = days >= s.opts.StaleDays
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (s *Service) branchSummaries(
	ctx context.Context,
	period domain.Period,
	summaries []domain.VehicleSummary,
) ([]domain.BranchSummary, error) {
	branches, err := s.vehicleRepo.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	byBranch, err := s.statsRepo.TotalsByBranch(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to get branch totals: %w", err)
	}

	index := make(map[string]int, len(branches))
	result := make([]domain.BranchSummary, len(branches))
	for i, b := range branches {
		index[b.Code] = i
		result[i] = domain.BranchSummary{Branch: b, Totals: byBranch[b.Code]}
	}

	for _, summary := range summaries {
		i, ok := index[summary.Vehicle.BranchCode]
		if !ok {
			continue
		}
		result[i].VehicleCount++
		// в сводке филиала автомобиль без записей тоже считается незаполненным
		if summary.Stale || summary.StaleDays == nil {
			result[i].StaleCount++
		}
	}

	return result, nil
}
