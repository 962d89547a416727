// Package memstoretest - тестовый двойник хранилища: данные в памяти с семантикой
// postgres-репозиториев. Только для тестов сервисов, в cmd/ не подключается.
// Чтения возвращают копии, а WithinVehicle откатывает все изменения, если fn вернула ошибку.
package memstoretest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/google/uuid"
)

// Store реализует репозитории автомобилей, водителей, поездок и статистики
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	vehicles map[uuid.UUID]*domain.Vehicle
	drivers  map[string]*domain.Driver
	trips    map[uuid.UUID]*domain.Trip
	clock    time.Time

	// FailBatch, если задана, возвращается из BatchUpdateDerived
	FailBatch error
	// BatchCalls - число строк, переданных в BatchUpdateDerived
	BatchCalls int
}

var (
	_ repository.VehicleRepository   = (*Store)(nil)
	_ repository.DriverRepository    = driverView{}
	_ repository.TripRepository      = tripView{}
	_ repository.TripQueryRepository = (*Store)(nil)
	_ repository.VehicleUnitOfWork   = (*Store)(nil)
	_ repository.StatsRepository     = (*Store)(nil)
)

// New создает пустое хранилище
func New() *Store {
	return &Store{
		vehicles: make(map[uuid.UUID]*domain.Vehicle),
		drivers:  make(map[string]*domain.Driver),
		trips:    make(map[uuid.UUID]*domain.Trip),
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick возвращает строго возрастающее время создания
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// AddVehicle добавляет автомобиль и возвращает его
func (s *Store) AddVehicle(plate, model, branchCode, branchName string) *domain.Vehicle {
	v := &domain.Vehicle{
		ID:         uuid.New(),
		Plate:      domain.NormalizePlate(plate),
		Model:      model,
		BranchCode: branchCode,
		BranchName: branchName,
		FuelType:   "EV",
	}
	_ = s.Upsert(context.Background(), v)
	return v
}

// PutTrip записывает поездку как есть, минуя пересчет (имитация правки в БД)
func (s *Store) PutTrip(trip *domain.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = s.tick()
	}
	c := *trip
	s.trips[c.ID] = &c
}

// Chain возвращает копию цепочки автомобиля в порядке (date, created_at, id)
func (s *Store) Chain(vehicleID uuid.UUID) []*domain.Trip {
	chain, _ := s.FindForVehicle(context.Background(), vehicleID)
	return chain
}

// Vehicles

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	c := *v
	return &c, nil
}

func (s *Store) List(ctx context.Context, branchCode string) ([]*domain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicles := []*domain.Vehicle{}
	for _, v := range s.vehicles {
		if branchCode == "" || v.BranchCode == branchCode {
			c := *v
			vehicles = append(vehicles, &c)
		}
	}
	sort.Slice(vehicles, func(i, j int) bool {
		if vehicles[i].BranchCode != vehicles[j].BranchCode {
			return vehicles[i].BranchCode < vehicles[j].BranchCode
		}
		return vehicles[i].Plate < vehicles[j].Plate
	})
	return vehicles, nil
}

func (s *Store) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[domain.Branch]bool{}
	branches := []domain.Branch{}
	for _, v := range s.vehicles {
		b := domain.Branch{Code: v.BranchCode, Name: v.BranchName}
		if b.Code == "" || seen[b] {
			continue
		}
		seen[b] = true
		branches = append(branches, b)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Code < branches[j].Code })
	return branches, nil
}

func (s *Store) Upsert(ctx context.Context, vehicle *domain.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicle.Plate = domain.NormalizePlate(vehicle.Plate)
	for _, existing := range s.vehicles {
		if existing.Plate == vehicle.Plate {
			vehicle.ID = existing.ID
			vehicle.CreatedAt = existing.CreatedAt
		}
	}
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = s.tick()
	}
	c := *vehicle
	s.vehicles[c.ID] = &c
	return nil
}

// Drivers

func (s *Store) GetOrCreateByName(ctx context.Context, name string) (*domain.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[name]
	if !ok {
		d = &domain.Driver{ID: uuid.New(), Name: name, CreatedAt: s.tick()}
		s.drivers[name] = d
	}
	c := *d
	return &c, nil
}

// driverView разводит List водителей и автомобилей
type driverView struct{ *Store }

func (v driverView) List(ctx context.Context) ([]*domain.Driver, error) {
	drivers := []*domain.Driver{}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, d := range v.drivers {
		c := *d
		drivers = append(drivers, &c)
	}
	sort.Slice(drivers, func(i, j int) bool { return drivers[i].Name < drivers[j].Name })
	return drivers, nil
}

// Drivers возвращает хранилище как DriverRepository
func (s *Store) Drivers() repository.DriverRepository {
	return driverView{s}
}

// Trips

func (s *Store) FindForVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chainLocked(vehicleID), nil
}

func (s *Store) chainLocked(vehicleID uuid.UUID) []*domain.Trip {
	chain := []*domain.Trip{}
	for _, t := range s.trips {
		if t.VehicleID == vehicleID {
			chain = append(chain, copyTrip(t))
		}
	}
	sort.Slice(chain, func(i, j int) bool { return chain[i].Before(chain[j]) })
	return chain
}

func (s *Store) FindLatestForVehicle(ctx context.Context, vehicleID uuid.UUID) (*domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.chainLocked(vehicleID)
	if len(chain) == 0 {
		return nil, domain.ErrTripNotFound
	}
	return chain[len(chain)-1], nil
}

func (s *Store) GetTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	return copyTrip(t), nil
}

func (s *Store) Create(ctx context.Context, trip *domain.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trip.ID = uuid.New()
	trip.CreatedAt = s.tick()
	trip.UpdatedAt = trip.CreatedAt
	s.trips[trip.ID] = copyTrip(trip)
	return nil
}

func (s *Store) UpdateReadings(ctx context.Context, id uuid.UUID, odoEnd int64, evRemainPct int, hipassBalance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return domain.ErrTripNotFound
	}
	t.OdoEnd = odoEnd
	t.EVRemainPct = evRemainPct
	t.HipassBalance = hipassBalance
	t.UpdatedAt = s.tick()
	return nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trips[id]; !ok {
		return domain.ErrTripNotFound
	}
	delete(s.trips, id)
	return nil
}

func (s *Store) BatchUpdateDerived(ctx context.Context, updates []domain.DerivedUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailBatch != nil {
		return s.FailBatch
	}
	s.BatchCalls += len(updates)
	for _, u := range updates {
		t, ok := s.trips[u.TripID]
		if !ok {
			return domain.ErrTripNotFound
		}
		var odoStart *int64
		if u.OdoStart != nil {
			odoStart = domain.Int64Ptr(*u.OdoStart)
		}
		t.SetDerived(domain.DerivedFields{OdoStart: odoStart, Distance: u.Distance, TollCost: u.TollCost})
	}
	return nil
}

// WithinVehicle выполняет fn с откатом состояния поездок при ошибке
func (s *Store) WithinVehicle(ctx context.Context, vehicleID uuid.UUID, fn func(ctx context.Context, trips repository.TripRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := make(map[uuid.UUID]*domain.Trip, len(s.trips))
	for id, t := range s.trips {
		snapshot[id] = copyTrip(t)
	}
	s.mu.Unlock()

	if err := fn(ctx, tripView{s}); err != nil {
		s.mu.Lock()
		s.trips = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// tripView разводит GetByID поездок и автомобилей
type tripView struct{ *Store }

func (v tripView) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	return v.GetTrip(ctx, id)
}

// Trips возвращает хранилище как TripRepository
func (s *Store) Trips() repository.TripRepository {
	return tripView{s}
}

// Views

func (s *Store) GetView(ctx context.Context, id uuid.UUID) (*domain.TripView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	return s.viewLocked(t), nil
}

func (s *Store) ListViews(ctx context.Context, filter repository.TripFilter) ([]*domain.TripView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := []*domain.TripView{}
	for _, t := range s.trips {
		v := s.viewLocked(t)
		if filter.VehicleID != nil && t.VehicleID != *filter.VehicleID {
			continue
		}
		if filter.BranchCode != "" && v.BranchCode != filter.BranchCode {
			continue
		}
		if filter.From != nil && t.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !t.Date.Before(*filter.To) {
			continue
		}
		views = append(views, v)
	}

	sort.Slice(views, func(i, j int) bool {
		if filter.Ascending {
			return views[i].Before(views[j].Trip)
		}
		return views[j].Before(views[i].Trip)
	})
	if filter.Limit > 0 && len(views) > filter.Limit {
		views = views[:filter.Limit]
	}
	return views, nil
}

func (s *Store) viewLocked(t *domain.Trip) *domain.TripView {
	view := &domain.TripView{Trip: copyTrip(t)}
	if v, ok := s.vehicles[t.VehicleID]; ok {
		view.Plate, view.Model = v.Plate, v.Model
		view.BranchCode, view.BranchName = v.BranchCode, v.BranchName
	}
	for _, d := range s.drivers {
		if d.ID == t.DriverID {
			view.DriverName = d.Name
		}
	}
	return view
}

// Stats

func (s *Store) Totals(ctx context.Context, branchCode string, period domain.Period) (domain.TripTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var totals domain.TripTotals
	for _, t := range s.tripsInLocked(branchCode, period) {
		addTotals(&totals, t)
	}
	return totals, nil
}

func (s *Store) TotalsByVehicle(ctx context.Context, branchCode string, period domain.Period) (map[uuid.UUID]domain.TripTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[uuid.UUID]domain.TripTotals)
	for _, t := range s.tripsInLocked(branchCode, period) {
		totals := result[t.VehicleID]
		addTotals(&totals, t)
		result[t.VehicleID] = totals
	}
	return result, nil
}

func (s *Store) TotalsByBranch(ctx context.Context, period domain.Period) (map[string]domain.TripTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]domain.TripTotals)
	for _, t := range s.tripsInLocked("", period) {
		code := s.vehicles[t.VehicleID].BranchCode
		totals := result[code]
		addTotals(&totals, t)
		result[code] = totals
	}
	return result, nil
}

func (s *Store) LatestByVehicle(ctx context.Context, branchCode string) (map[uuid.UUID]domain.LatestReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[uuid.UUID]domain.LatestReading)
	for id, v := range s.vehicles {
		if branchCode != "" && v.BranchCode != branchCode {
			continue
		}
		chain := s.chainLocked(id)
		if len(chain) == 0 {
			continue
		}
		last := chain[len(chain)-1]
		result[id] = domain.LatestReading{
			Date:          last.Date,
			EVRemainPct:   last.EVRemainPct,
			HipassBalance: last.HipassBalance,
			OdoEnd:        last.OdoEnd,
		}
	}
	return result, nil
}

func (s *Store) tripsInLocked(branchCode string, period domain.Period) []*domain.Trip {
	var trips []*domain.Trip
	for _, t := range s.trips {
		v, ok := s.vehicles[t.VehicleID]
		if !ok || (branchCode != "" && v.BranchCode != branchCode) {
			continue
		}
		if t.Date.Before(period.From) || !t.Date.Before(period.To) {
			continue
		}
		trips = append(trips, t)
	}
	return trips
}

func addTotals(totals *domain.TripTotals, t *domain.Trip) {
	totals.Count++
	totals.Distance += t.Distance
	totals.TollCost += t.TollCost
}

func copyTrip(t *domain.Trip) *domain.Trip {
	c := *t
	if t.OdoStart != nil {
		c.OdoStart = domain.Int64Ptr(*t.OdoStart)
	}
	if t.Note != nil {
		note := *t.Note
		c.Note = &note
	}
	return &c
}
