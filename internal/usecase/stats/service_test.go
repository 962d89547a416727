package stats

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/repository/memstoretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var now = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	store  *memstoretest.Store
	seoul1 *domain.Vehicle
	seoul2 *domain.Vehicle
	busan  *domain.Vehicle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstoretest.New()
	f := &fixture{
		store:  store,
		seoul1: store.AddVehicle("11가1111", "EV6", "01", "Seoul"),
		seoul2: store.AddVehicle("12가3456", "Ioniq 5", "01", "Seoul"),
		busan:  store.AddVehicle("34나5678", "EV3", "02", "Busan"),
	}
	driver, err := store.GetOrCreateByName(context.Background(), "홍길동")
	require.NoError(t, err)

	put := func(v *domain.Vehicle, date time.Time, odoEnd, distance, toll int64) {
		store.PutTrip(&domain.Trip{
			Date:          date,
			VehicleID:     v.ID,
			DriverID:      driver.ID,
			OdoEnd:        odoEnd,
			Distance:      distance,
			TollCost:      toll,
			EVRemainPct:   80,
			HipassBalance: 10000,
		})
	}

	// seoul1: активен в октябре
	put(f.seoul1, time.Date(2026, 9, 28, 0, 0, 0, 0, time.UTC), 1000, 0, 0)
	put(f.seoul1, time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), 1100, 100, 2000)
	put(f.seoul1, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), 1150, 50, 0)
	// seoul2: последняя запись ровно 30 дней назад
	put(f.seoul2, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), 500, 0, 0)
	// busan: без записей

	f.svc = NewService(store, store, store, Options{StaleDays: 30, RecentLimit: 20}, logger.NewNoop())
	f.svc.now = func() time.Time { return now }
	return f
}

func TestDashboard_AllBranches(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.Dashboard(context.Background(), DashboardRequest{Now: now})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), d.Period.From)
	assert.Equal(t, domain.RangeMonth, d.Range)
	assert.Equal(t, domain.TripTotals{Count: 2, Distance: 150, TollCost: 2000}, d.Totals)
	assert.Equal(t, 3, d.VehicleCount)
	assert.Equal(t, 1, d.StaleCount)

	require.Len(t, d.Vehicles, 3)
	byPlate := map[string]domain.VehicleSummary{}
	for _, v := range d.Vehicles {
		byPlate[v.Vehicle.Plate] = v
	}

	active := byPlate["11가1111"]
	assert.False(t, active.Stale)
	require.NotNil(t, active.StaleDays)
	assert.Equal(t, 3, *active.StaleDays)
	assert.Equal(t, int64(1150), active.Latest.OdoEnd)

	boundary := byPlate["12가3456"]
	assert.True(t, boundary.Stale)
	assert.Equal(t, 30, *boundary.StaleDays)

	empty := byPlate["34나5678"]
	assert.False(t, empty.Stale)
	assert.Nil(t, empty.StaleDays)
	assert.Nil(t, empty.Latest)

	require.Len(t, d.Branches, 2)
	assert.Equal(t, "01", d.Branches[0].Code)
	assert.Equal(t, 2, d.Branches[0].VehicleCount)
	assert.Equal(t, 1, d.Branches[0].StaleCount)
	assert.Equal(t, int64(150), d.Branches[0].Totals.Distance)
	assert.Equal(t, 1, d.Branches[1].StaleCount)

	require.Len(t, d.Recent, 2)
	assert.Equal(t, int64(1150), d.Recent[0].OdoEnd)
}

func TestDashboard_Branch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Dashboard(ctx, DashboardRequest{BranchCode: "02", Now: now})
	require.NoError(t, err)
	assert.Empty(t, d.Branches)
	assert.Zero(t, d.Totals.Count)
	assert.Zero(t, d.StaleCount)

	_, err = f.svc.Dashboard(ctx, DashboardRequest{BranchCode: "99", Now: now})
	assert.ErrorIs(t, err, domain.ErrBranchNotFound)
}

func TestDashboard_StaleFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name            string
		branch          string
		wantStale       int
		wantBranchStale []int
	}{
		{name: "все филиалы", branch: "", wantStale: 1, wantBranchStale: []int{1, 1}},
		{name: "филиал без записей", branch: "02", wantStale: 0},
		{name: "филиал с давней записью", branch: "01", wantStale: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := f.svc.Dashboard(ctx, DashboardRequest{BranchCode: tt.branch, Now: now})
			require.NoError(t, err)

			assert.Equal(t, tt.wantStale, d.StaleCount)
			for _, v := range d.Vehicles {
				if v.StaleDays == nil {
					assert.False(t, v.Stale, v.Vehicle.Plate)
				}
			}

			branchStale := make([]int, 0, len(d.Branches))
			for _, b := range d.Branches {
				branchStale = append(branchStale, b.StaleCount)
			}
			if tt.wantBranchStale == nil {
				assert.Empty(t, branchStale)
				return
			}
			assert.Equal(t, tt.wantBranchStale, branchStale)
		})
	}
}

func TestDashboard_RecentRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rng  domain.RecentRange
		want int
	}{
		{name: "текущий месяц", rng: domain.RangeMonth, want: 2},
		{name: "7 дней", rng: domain.RangeWeek, want: 1},
		{name: "все время", rng: domain.RangeAll, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := f.svc.Dashboard(ctx, DashboardRequest{Range: tt.rng, Now: now})
			require.NoError(t, err)
			assert.Len(t, d.Recent, tt.want)
		})
	}
}

func TestMonthlyReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	data, err := f.svc.MonthlyReport(ctx, "01", "2026-10")
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	vehicles, err := book.GetRows(vehiclesSheet)
	require.NoError(t, err)
	require.Len(t, vehicles, 3)
	assert.Equal(t, "Plate", vehicles[0][1])
	assert.Equal(t, "11가1111", vehicles[1][1])
	assert.Equal(t, "150", vehicles[1][4])
	assert.Equal(t, "2026-10-12", vehicles[1][6])

	trips, err := book.GetRows(tripsSheet)
	require.NoError(t, err)
	require.Len(t, trips, 3)
	assert.Equal(t, "2026-10-02", trips[1][0])
	assert.Equal(t, "홍길동", trips[1][4])

	t.Run("неверный месяц", func(t *testing.T) {
		_, err := f.svc.MonthlyReport(ctx, "", "10-2026")
		assert.ErrorIs(t, err, domain.ErrInvalidMonth)
	})

	t.Run("неизвестный филиал", func(t *testing.T) {
		_, err := f.svc.MonthlyReport(ctx, "99", "2026-10")
		assert.ErrorIs(t, err, domain.ErrBranchNotFound)
	})
}
