package domain

import "time"

// RecentRange - фильтр ленты последних поездок на панели
type RecentRange string

const (
	RangeMonth RecentRange = "month"
	RangeWeek  RecentRange = "7d"
	RangeAll   RecentRange = "all"
)

// ParseRecentRange разбирает параметр rt; пустое значение - текущий месяц
func ParseRecentRange(raw string) (RecentRange, error) {
	switch RecentRange(raw) {
	case "", RangeMonth:
		return RangeMonth, nil
	case RangeWeek, RangeAll:
		return RecentRange(raw), nil
	}
	return "", ErrInvalidRange
}

// Period - полуоткрытый интервал дат [From, To)
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// MonthPeriod возвращает календарный месяц, содержащий t
func MonthPeriod(t time.Time) Period {
	y, m, _ := t.Date()
	from := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return Period{From: from, To: from.AddDate(0, 1, 0)}
}

// ParseMonth разбирает месяц вида 2026-10
func ParseMonth(raw string) (Period, error) {
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return Period{}, ErrInvalidMonth
	}
	return MonthPeriod(t), nil
}

// TripTotals - количество поездок и суммы пробега и платы за проезд
type TripTotals struct {
	Count    int64 `json:"count"`
	Distance int64 `json:"distance"`
	TollCost int64 `json:"toll_cost"`
}

// LatestReading - последняя запись автомобиля
type LatestReading struct {
	Date          time.Time `json:"date"`
	EVRemainPct   int       `json:"ev_remain_pct"`
	HipassBalance int64     `json:"hipass_balance"`
	OdoEnd        int64     `json:"odo_end"`
}

// VehicleSummary - агрегаты одного автомобиля за период
type VehicleSummary struct {
	Vehicle   *Vehicle       `json:"vehicle"`
	Totals    TripTotals     `json:"totals"`
	Latest    *LatestReading `json:"latest,omitempty"`
	StaleDays *int           `json:"stale_days"`
	Stale     bool           `json:"stale"`
}

// BranchSummary - агрегаты филиала за период
type BranchSummary struct {
	Branch
	VehicleCount int        `json:"vehicle_count"`
	StaleCount   int        `json:"stale_count"`
	Totals       TripTotals `json:"totals"`
}

// StaleDays считает полные сутки между последней записью и now
func StaleDays(now, last time.Time) int {
	return int(now.Sub(last) / (24 * time.Hour))
}
