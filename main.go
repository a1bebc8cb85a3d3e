package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-engine/internal/config"
	"auction-engine/internal/database"
	"auction-engine/internal/events"
	"auction-engine/internal/lifecycle"
	model "auction-engine/internal/models"
	"auction-engine/internal/payments"
	"auction-engine/internal/pricecache"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/utils"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := buildStore(ctx, cfg)
	cache := buildCache(cfg)
	defer cache.Close()
	publisher := buildPublisher(cfg)

	authorizer, err := payments.NewMercadoPagoAuthorizer(cfg.MercadoPagoToken)
	if err != nil {
		utils.Fatal("failed to initialize payment gateway", map[string]any{"error": err.Error()})
	}

	svc := lifecycle.NewService(store, authorizer, publisher, cache, cfg.AuthorizingTimeout)
	go svc.Run(ctx, cfg.SweepInterval)

	router := server.SetupRouter(svc)

	addr := ":" + cfg.Port
	fmt.Printf("Starting auction engine on %s...\n", addr)
	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// buildStore opens MySQL when configured, falling back to the in-memory
// store seeded with sample auctions for local development.
func buildStore(ctx context.Context, cfg config.Config) repository.AuctionStore {
	if cfg.DBHost == "" {
		utils.Info("DB_HOST not set, using in-memory store", nil)
		memStore := repository.NewMemoryStore()
		prepopulateAuctions(memStore)
		return memStore
	}

	db, err := database.Open(database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		utils.Fatal("failed to connect to MySQL", map[string]any{"error": err.Error()})
	}
	mysqlStore := repository.NewMySQLStore(db)
	if err := mysqlStore.Migrate(ctx); err != nil {
		utils.Fatal("failed to run migrations", map[string]any{"error": err.Error()})
	}
	return mysqlStore
}

// buildCache connects the Redis price cache when configured. A nil cache is
// valid and disables caching.
func buildCache(cfg config.Config) *pricecache.Cache {
	if cfg.RedisAddr == "" {
		return nil
	}
	cache, err := pricecache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		utils.Warn("price cache unavailable, continuing without it", map[string]any{"error": err.Error()})
		return nil
	}
	return cache
}

// buildPublisher connects RabbitMQ when configured, falling back to the
// in-memory recorder so event fan-out never blocks the bid flow.
func buildPublisher(cfg config.Config) events.Publisher {
	if cfg.RabbitURL == "" {
		utils.Info("RABBITMQ_URL not set, using in-memory event recorder", nil)
		return events.NewRecorder()
	}
	pub, err := events.NewRabbitPublisher(cfg.RabbitURL)
	if err != nil {
		utils.Warn("event broker unavailable, using in-memory recorder", map[string]any{"error": err.Error()})
		return events.NewRecorder()
	}
	return pub
}

// prepopulateAuctions adds sample auctions to the in-memory store
func prepopulateAuctions(store *repository.MemoryStore) {
	now := time.Now().UTC()
	reserve1 := 400.0
	reserve2 := 1500.0

	auctions := []model.Auction{
		{
			AuctionID:         "auction1",
			Title:             "Vintage Camera",
			StartingPrice:     1000,
			ReservePrice:      &reserve1,
			PriceDecrement:    100,
			DecrementInterval: model.IntervalHour,
			StartTime:         now,
			EndTime:           now.Add(24 * time.Hour),
			Status:            model.AuctionActive,
		},
		{
			AuctionID:         "auction2",
			Title:             "Signed First Edition",
			StartingPrice:     5000,
			ReservePrice:      &reserve2,
			PriceDecrement:    250,
			DecrementInterval: model.IntervalDay,
			StartTime:         now,
			EndTime:           now.Add(14 * 24 * time.Hour),
			Status:            model.AuctionActive,
		},
		{
			AuctionID:         "auction3",
			Title:             "Mechanical Keyboard",
			StartingPrice:     300,
			PriceDecrement:    20,
			DecrementInterval: model.IntervalHour,
			StartTime:         now,
			EndTime:           now.Add(12 * time.Hour),
			Status:            model.AuctionActive,
		},
	}

	for _, a := range auctions {
		if err := store.AddAuction(a); err != nil {
			utils.Warn("failed to seed auction", map[string]any{"auction_id": a.AuctionID, "error": err.Error()})
		}
	}
}
