// Команда seed заполняет справочник автомобилей филиалов и водителя по умолчанию.
// Повторный запуск безопасен: автомобили обновляются по номеру.
package main

import (
	"context"
	_ "embed"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/config"
	"github.com/frontandrew/triplog/internal/pkg/database"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/pkg/redis"
	"github.com/frontandrew/triplog/internal/repository/cached"
	"github.com/frontandrew/triplog/internal/repository/postgres"
)

// DefaultDriverName - водитель, который есть в справочнике всегда
const DefaultDriverName = "관리자"

//go:embed vehicles.tsv
var defaultRoster string

func main() {
	rosterPath := flag.String("file", "", "TSV roster: branch_code, branch_name, model, plate, fuel_type (embedded roster by default)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.Output)

	var src io.Reader = strings.NewReader(defaultRoster)
	if *rosterPath != "" {
		f, err := os.Open(*rosterPath)
		if err != nil {
			log.Fatal("Failed to open roster", map[string]interface{}{
				"file":  *rosterPath,
				"error": err,
			})
		}
		defer f.Close()
		src = f
	}

	vehicles, err := parseRoster(src)
	if err != nil {
		log.Fatal("Failed to parse roster", map[string]interface{}{
			"error": err,
		})
	}

	if _, err := database.Migrate(&cfg.Database); err != nil {
		log.Fatal("Failed to apply migrations", map[string]interface{}{
			"error": err,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err,
		})
	}
	defer database.Close(db)

	vehicleRepo := postgres.NewVehicleRepository(db)
	for _, v := range vehicles {
		if err := vehicleRepo.Upsert(ctx, v); err != nil {
			log.Fatal("Failed to upsert vehicle", map[string]interface{}{
				"plate": v.Plate,
				"error": err,
			})
		}
	}

	if _, err := postgres.NewDriverRepository(db).GetOrCreateByName(ctx, DefaultDriverName); err != nil {
		log.Fatal("Failed to create default driver", map[string]interface{}{
			"error": err,
		})
	}

	invalidateVehicleCache(ctx, cfg, log)

	log.Info("Seed completed", map[string]interface{}{
		"vehicles": len(vehicles),
	})
}

// invalidateVehicleCache сбрасывает кэш справочника у работающего API
func invalidateVehicleCache(ctx context.Context, cfg *config.Config, log logger.Logger) {
	if !cfg.Redis.Enabled {
		return
	}

	cache, err := redis.NewClient(ctx, redis.Config{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis is not available, vehicle cache not invalidated", map[string]interface{}{
			"error": err,
		})
		return
	}
	defer func() { _ = cache.Close() }()

	cached.NewVehicleRepository(nil, cache, log).InvalidateAll(ctx)
}

// parseRoster читает TSV со строками branch_code, branch_name, model, plate, fuel_type.
// Строки, начинающиеся с '#', пропускаются.
func parseRoster(r io.Reader) ([]*domain.Vehicle, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.Comment = '#'
	reader.FieldsPerRecord = 5
	reader.TrimLeadingSpace = true

	var vehicles []*domain.Vehicle
	seen := make(map[string]int)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read roster: %w", err)
		}

		plate := domain.NormalizePlate(record[3])
		if plate == "" {
			line, _ := reader.FieldPos(3)
			return nil, fmt.Errorf("empty plate on line %d", line)
		}
		if prev, ok := seen[plate]; ok {
			line, _ := reader.FieldPos(3)
			return nil, fmt.Errorf("duplicate plate %s on line %d (first on line %d)", plate, line, prev)
		}
		seen[plate], _ = reader.FieldPos(3)

		vehicles = append(vehicles, &domain.Vehicle{
			BranchCode: strings.TrimSpace(record[0]),
			BranchName: strings.TrimSpace(record[1]),
			Model:      strings.TrimSpace(record[2]),
			Plate:      plate,
			FuelType:   strings.TrimSpace(record[4]),
		})
	}

	return vehicles, nil
}
