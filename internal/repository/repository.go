package repository

import (
	"context"
	"time"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/google/uuid"
)

// VehicleRepository определяет методы для работы с автомобилями
type VehicleRepository interface {
	// GetByID возвращает автомобиль по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)

	// List возвращает автомобили филиала (пустой код - все), по коду филиала и номеру
	List(ctx context.Context, branchCode string) ([]*domain.Vehicle, error)

	// ListBranches возвращает различные пары (код, название) филиалов
	ListBranches(ctx context.Context) ([]domain.Branch, error)

	// Upsert создает автомобиль или обновляет его по номеру (используется сидом)
	Upsert(ctx context.Context, vehicle *domain.Vehicle) error
}

// DriverRepository определяет методы для работы с водителями
type DriverRepository interface {
	// GetOrCreateByName возвращает водителя по имени, создавая его при отсутствии
	GetOrCreateByName(ctx context.Context, name string) (*domain.Driver, error)

	// List возвращает всех водителей по имени
	List(ctx context.Context) ([]*domain.Driver, error)
}

// TripRepository - хранилище поездок.
// Все методы чтения цепочки возвращают поездки одного автомобиля
// в порядке (date, created_at, id).
type TripRepository interface {
	// FindForVehicle возвращает всю цепочку автомобиля по возрастанию
	FindForVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*domain.Trip, error)

	// FindLatestForVehicle возвращает последнюю поездку автомобиля
	// или domain.ErrTripNotFound, если поездок нет
	FindLatestForVehicle(ctx context.Context, vehicleID uuid.UUID) (*domain.Trip, error)

	// GetByID возвращает поездку по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error)

	// Create сохраняет новую поездку; ID и CreatedAt заполняются хранилищем
	Create(ctx context.Context, trip *domain.Trip) error

	// UpdateReadings обновляет вводимые пользователем показания поездки
	UpdateReadings(ctx context.Context, id uuid.UUID, odoEnd int64, evRemainPct int, hipassBalance int64) error

	// Delete удаляет поездку
	Delete(ctx context.Context, id uuid.UUID) error

	// BatchUpdateDerived записывает пересчитанные поля
	BatchUpdateDerived(ctx context.Context, updates []domain.DerivedUpdate) error
}

// TripQueryRepository - чтение поездок с данными автомобиля и водителя
type TripQueryRepository interface {
	// GetView возвращает поездку с номером, моделью и водителем
	GetView(ctx context.Context, id uuid.UUID) (*domain.TripView, error)

	// ListViews возвращает поездки от новых к старым
	ListViews(ctx context.Context, filter TripFilter) ([]*domain.TripView, error)
}

// TripFilter - фильтр списка поездок
type TripFilter struct {
	VehicleID  *uuid.UUID
	BranchCode string
	From       *time.Time // включительно
	To         *time.Time // не включительно
	Limit      int        // 0 - без ограничения
	Ascending  bool
}

// VehicleUnitOfWork выполняет fn в транзакции, сериализованной по автомобилю.
// Все изменения внутри fn применяются целиком или не применяются вовсе.
type VehicleUnitOfWork interface {
	WithinVehicle(ctx context.Context, vehicleID uuid.UUID, fn func(ctx context.Context, trips TripRepository) error) error
}

// StatsRepository - агрегаты для панели администратора.
// Пустой branchCode означает все филиалы.
type StatsRepository interface {
	// Totals возвращает количество и суммы поездок за период
	Totals(ctx context.Context, branchCode string, period domain.Period) (domain.TripTotals, error)

	// TotalsByVehicle возвращает суммы за период по каждому автомобилю
	TotalsByVehicle(ctx context.Context, branchCode string, period domain.Period) (map[uuid.UUID]domain.TripTotals, error)

	// TotalsByBranch возвращает суммы за период по каждому филиалу
	TotalsByBranch(ctx context.Context, period domain.Period) (map[string]domain.TripTotals, error)

	// LatestByVehicle возвращает последнюю запись каждого автомобиля
	LatestByVehicle(ctx context.Context, branchCode string) (map[uuid.UUID]domain.LatestReading, error)
}
