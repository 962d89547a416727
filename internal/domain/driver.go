package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Driver - водитель. Имя служит естественным ключом: при сохранении поездки
// водитель ищется по имени и создается, если не найден.
type Driver struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeDriverName схлопывает пробелы в имени водителя
func NormalizeDriverName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
