package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go-bar-manager/internal/cache"
	"go-bar-manager/internal/config"
	"go-bar-manager/internal/model"
	"go-bar-manager/internal/repository"
	"go-bar-manager/pkg/database"
	applog "go-bar-manager/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loads the demo monthly sales snapshots for one bar.
// Usage: seed-stats -bar <bar uuid>
func main() {
	barFlag := flag.String("bar", "", "bar ID to seed")
	flag.Parse()
	barID, err := uuid.Parse(*barFlag)
	if err != nil {
		flag.Usage()
		log.Fatalf("❌ -bar must be a bar UUID: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	zlog := applog.New(applog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer zlog.Sync()

	db, err := database.ConnectDB(cfg.Database.PoolOptions(), applog.NewGormLogger(zlog, cfg.Database.LogLevel, time.Second))
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Auto migrate failed: %v", err)
	}

	ctx := context.Background()
	if _, err := repository.NewBarRepo(db).FindByID(ctx, barID); err != nil {
		log.Fatalf("❌ Bar %s not found: %v", barID, err)
	}

	statsRepo := repository.NewStatsRepo(db)
	for _, snapshot := range demoSnapshots(barID) {
		if err := statsRepo.Upsert(ctx, &snapshot); err != nil {
			log.Fatalf("❌ Failed to store %s: %v", snapshot.Month, err)
		}
		log.Printf("✅ %s seeded (total %s)", snapshot.Month, snapshot.Total.StringFixed(2))
	}

	// Drop the cached copy so the next read sees the new months
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisSnapshotCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer redisCache.Close()
		if err := redisCache.Delete(ctx, cache.SnapshotKey(barID.String())); err != nil {
			log.Printf("Warning: failed to invalidate stats cache: %v", err)
		}
	}
}

func demoSnapshots(barID uuid.UUID) []model.SalesSnapshot {
	line := func(name string, sales int64, qty int) model.ProductSales {
		return model.ProductSales{Name: name, Sales: decimal.NewFromInt(sales), Quantity: qty}
	}
	now := time.Now()
	return []model.SalesSnapshot{
		{
			BarID: barID,
			Month: "2023-04",
			Total: decimal.NewFromInt(4200),
			Products: []model.ProductSales{
				line("Bière blonde", 1100, 220),
				line("Vin rouge", 800, 130),
				line("Cocktail Mojito", 850, 95),
				line("Whisky", 700, 75),
				line("Plateau fromage", 550, 45),
				line("Chips", 400, 140),
			},
			UpdatedAt: now,
		},
		{
			BarID: barID,
			Month: "2023-05",
			Total: decimal.NewFromInt(4850),
			Products: []model.ProductSales{
				line("Bière blonde", 1200, 240),
				line("Vin rouge", 850, 140),
				line("Cocktail Mojito", 980, 110),
				line("Whisky", 750, 80),
				line("Plateau fromage", 620, 50),
				line("Chips", 450, 150),
			},
			UpdatedAt: now,
		},
	}
}
