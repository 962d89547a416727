package domain

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// DateLayout - формат даты поездки в формах и отчетах
const DateLayout = "2006-01-02"

// AllowedEVRemainPct - допустимые значения остатка заряда, %
var AllowedEVRemainPct = []int{20, 40, 60, 80, 100}

// Trip - запись об использовании автомобиля за день.
//
// OdoStart, Distance и TollCost не вводятся пользователем: они вычисляются
// из предыдущей поездки того же автомобиля (см. пакет ledger).
type Trip struct {
	ID            uuid.UUID `json:"id"`
	Date          time.Time `json:"date"` // полночь UTC, время суток отброшено
	VehicleID     uuid.UUID `json:"vehicle_id"`
	DriverID      uuid.UUID `json:"driver_id"`
	OdoStart      *int64    `json:"odo_start"` // nil у первой поездки автомобиля
	OdoEnd        int64     `json:"odo_end"`
	Distance      int64     `json:"distance"`
	EVRemainPct   int       `json:"ev_remain_pct"`
	HipassBalance int64     `json:"hipass_balance"`
	TollCost      int64     `json:"toll_cost"`
	Note          *string   `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DerivedFields - вычисляемая часть поездки
type DerivedFields struct {
	OdoStart *int64
	Distance int64
	TollCost int64
}

// DerivedUpdate - пересчитанные поля одной поездки для пакетной записи
type DerivedUpdate struct {
	TripID uuid.UUID
	DerivedFields
}

// TripView - поездка с данными автомобиля и водителя для списков и отчетов
type TripView struct {
	*Trip
	Plate      string `json:"plate"`
	Model      string `json:"model"`
	BranchCode string `json:"branch_code,omitempty"`
	BranchName string `json:"branch_name,omitempty"`
	DriverName string `json:"driver_name"`
}

// Derived возвращает текущие вычисляемые поля
func (t *Trip) Derived() DerivedFields {
	return DerivedFields{OdoStart: t.OdoStart, Distance: t.Distance, TollCost: t.TollCost}
}

// SetDerived записывает вычисляемые поля
func (t *Trip) SetDerived(d DerivedFields) {
	t.OdoStart = d.OdoStart
	t.Distance = d.Distance
	t.TollCost = d.TollCost
}

// Equal сравнивает вычисляемые поля, включая nil у OdoStart
func (d DerivedFields) Equal(other DerivedFields) bool {
	if d.Distance != other.Distance || d.TollCost != other.TollCost {
		return false
	}
	if d.OdoStart == nil || other.OdoStart == nil {
		return d.OdoStart == nil && other.OdoStart == nil
	}
	return *d.OdoStart == *other.OdoStart
}

// Before задает порядок цепочки: (date, created_at, id) по возрастанию.
// id нужен только как последний разделитель, чтобы порядок был полным.
func (t *Trip) Before(other *Trip) bool {
	if !t.Date.Equal(other.Date) {
		return t.Date.Before(other.Date)
	}
	if !t.CreatedAt.Equal(other.CreatedAt) {
		return t.CreatedAt.Before(other.CreatedAt)
	}
	return bytes.Compare(t.ID[:], other.ID[:]) < 0
}

// ParseTripDate разбирает дату вида 2026-10-15 в полночь UTC
func ParseTripDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, ErrMissingRequiredField
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// TruncateDay отбрасывает время суток
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateEVRemainPct проверяет, что остаток заряда из допустимого набора
func ValidateEVRemainPct(pct int) error {
	for _, allowed := range AllowedEVRemainPct {
		if pct == allowed {
			return nil
		}
	}
	return ErrInvalidEVRemainPct
}

// ValidateReadings проверяет вводимые пользователем показания
func ValidateReadings(odoEnd int64, evRemainPct int, hipassBalance int64) error {
	if odoEnd < 0 {
		return ErrInvalidOdometer
	}
	if err := ValidateEVRemainPct(evRemainPct); err != nil {
		return err
	}
	if hipassBalance < 0 {
		return ErrInvalidHipassBalance
	}
	return nil
}

// Int64Ptr - вспомогательная функция для опциональных показаний
func Int64Ptr(v int64) *int64 {
	return &v
}
