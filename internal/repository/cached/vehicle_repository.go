package cached

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/pkg/redis"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/google/uuid"
)

const (
	vehicleCachePrefix = "vehicles:"
	vehicleCacheTTL    = 10 * time.Minute
)

// VehicleRepository добавляет кэширование справочника автомобилей.
// Справочник меняется только сидом, поэтому инвалидация - сброс всего префикса.
type VehicleRepository struct {
	repo   repository.VehicleRepository
	cache  *redis.Client
	logger logger.Logger
}

// NewVehicleRepository создает новый кэшируемый vehicle repository
func NewVehicleRepository(repo repository.VehicleRepository, cache *redis.Client, log logger.Logger) *VehicleRepository {
	return &VehicleRepository{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

// GetByID получает автомобиль по ID (с кэшированием)
func (r *VehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	var vehicle *domain.Vehicle
	err := r.readThrough(ctx, vehicleCachePrefix+"id:"+id.String(), &vehicle, func() (any, error) {
		v, err := r.repo.GetByID(ctx, id)
		vehicle = v
		return v, err
	})
	return vehicle, err
}

// List получает автомобили филиала (с кэшированием)
func (r *VehicleRepository) List(ctx context.Context, branchCode string) ([]*domain.Vehicle, error) {
	key := vehicleCachePrefix + "list:" + branchCode
	if branchCode == "" {
		key = vehicleCachePrefix + "list:*all"
	}

	var vehicles []*domain.Vehicle
	err := r.readThrough(ctx, key, &vehicles, func() (any, error) {
		v, err := r.repo.List(ctx, branchCode)
		vehicles = v
		return v, err
	})
	return vehicles, err
}

// ListBranches получает список филиалов (с кэшированием)
func (r *VehicleRepository) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	var branches []domain.Branch
	err := r.readThrough(ctx, vehicleCachePrefix+"branches", &branches, func() (any, error) {
		b, err := r.repo.ListBranches(ctx)
		branches = b
		return b, err
	})
	return branches, err
}

// Upsert сохраняет автомобиль и сбрасывает кэш справочника
func (r *VehicleRepository) Upsert(ctx context.Context, vehicle *domain.Vehicle) error {
	if err := r.repo.Upsert(ctx, vehicle); err != nil {
		return err
	}
	r.InvalidateAll(ctx)
	return nil
}

// InvalidateAll удаляет все ключи справочника. Ошибки кэша не критичны.
func (r *VehicleRepository) InvalidateAll(ctx context.Context) {
	n, err := r.cache.DelByPrefix(ctx, vehicleCachePrefix)
	if err != nil {
		r.logger.Warn("Failed to invalidate vehicle cache", map[string]interface{}{
			"error": err,
		})
		return
	}
	r.logger.Debug("Vehicle cache invalidated", map[string]interface{}{
		"keys": n,
	})
}

// readThrough читает dest из кэша, при промахе вызывает load и сохраняет результат.
// load сам заполняет dest; ошибки не кэшируются.
func (r *VehicleRepository) readThrough(ctx context.Context, key string, dest any, load func() (any, error)) error {
	// 1. Проверяем кэш
	raw, err := r.cache.Get(ctx, key)
	if err == nil {
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
		r.logger.Warn("Corrupted cache entry", map[string]interface{}{"key": key})
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		// Redis недоступен - работаем напрямую с БД
		r.logger.Warn("Cache read failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}

	// 2. Cache miss - идем в БД
	value, err := load()
	if err != nil {
		return err
	}

	// 3. Сохраняем результат в кэш
	payload, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	if err := r.cache.Set(ctx, key, payload, vehicleCacheTTL); err != nil {
		r.logger.Warn("Cache write failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}

	return nil
}
