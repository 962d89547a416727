package domain

import "errors"

// Доменные ошибки - используются во всех слоях приложения

// Vehicle errors
var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrBranchNotFound  = errors.New("branch not found")
)

// Trip errors
var (
	ErrTripNotFound = errors.New("trip not found")
)

// Ошибки валидации - исправимы пользователем, состояние не меняется.
// Текст ошибки показывается отправителю формы как есть.
var (
	ErrMissingRequiredField  = errors.New("required fields missing: date, vehicle and driver name")
	ErrInvalidDate           = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidOdometer       = errors.New("odometer reading must be a non-negative integer")
	ErrInvalidEVRemainPct    = errors.New("EV remaining charge must be one of 20/40/60/80/100")
	ErrInvalidHipassBalance  = errors.New("toll card balance must be a non-negative integer")
	ErrOdometerBelowPrevious = errors.New("odometer reading is lower than the previous record")
	ErrOdometerAboveNext     = errors.New("odometer reading is higher than the next record")
	ErrInvalidRange          = errors.New("unknown period, expected month, 7d or all")
	ErrInvalidMonth          = errors.New("month must be in YYYY-MM format")
)

// Authorization errors
var (
	ErrInvalidCredentials = errors.New("invalid password")
	ErrDeleteForbidden    = errors.New("invalid delete password")
	ErrInvalidSession     = errors.New("invalid session")
	ErrSessionExpired     = errors.New("session expired")
)

// ErrAuthNotConfigured - секрет не задан оператором.
// Отличается от неверного пароля: это 5xx, а не ошибка пользователя.
var ErrAuthNotConfigured = errors.New("authentication is not configured")

var validationErrors = []error{
	ErrMissingRequiredField,
	ErrInvalidDate,
	ErrInvalidOdometer,
	ErrInvalidEVRemainPct,
	ErrInvalidHipassBalance,
	ErrOdometerBelowPrevious,
	ErrOdometerAboveNext,
	ErrInvalidRange,
	ErrInvalidMonth,
}

// IsValidationError сообщает, является ли ошибка (в том числе обернутая) ошибкой валидации
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
