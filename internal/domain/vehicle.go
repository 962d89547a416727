package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vehicle - служебный автомобиль филиала.
// Создается только сидом, через API не изменяется.
type Vehicle struct {
	ID         uuid.UUID `json:"id"`
	Plate      string    `json:"plate"` // уникальный номер
	Model      string    `json:"model"`
	BranchCode string    `json:"branch_code,omitempty"`
	BranchName string    `json:"branch_name,omitempty"`
	FuelType   string    `json:"fuel_type,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Branch - филиал, группа автомобилей
type Branch struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// NormalizePlate убирает пробелы и дефисы и приводит номер к верхнему регистру
func NormalizePlate(plate string) string {
	plate = strings.ReplaceAll(plate, " ", "")
	plate = strings.ReplaceAll(plate, "-", "")
	return strings.ToUpper(plate)
}
