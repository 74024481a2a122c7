package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfg "auction-engine/config"
	"auction-engine/internal/auction"
	"auction-engine/internal/broadcast"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/scheduler"
	"auction-engine/internal/server"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

func main() {

	conf := cfg.Load()

	store, err := openStore(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}

	hub := broadcast.NewHub()
	go hub.Run()

	auctionSvc := auction.NewAuctionService(store, hub)

	engine := scheduler.NewStatusEngine(store, hub, conf.SchedulerInterval, conf.SchedulerBatchSize)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go engine.Run(ctx)

	router := server.SetupRouter(auctionSvc, hub, []byte(conf.JWTSecret))

	utils.Info("starting auction server", map[string]any{"port": conf.Port})
	if err := router.Run(":" + conf.Port); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// openStore selects the MySQL store when a DSN is configured, falling back to
// the in-memory store (seeded with sample auctions) for development runs.
func openStore(conf cfg.Config) (repository.AuctionStore, error) {
	if conf.DatabaseDSN != "" {
		return repository.NewGormStore(conf.DatabaseDSN)
	}

	utils.Info("no DATABASE_DSN configured, using in-memory store", nil)
	store := repository.NewMemoryStore()
	prepopulateAuctions(store)
	return store, nil
}

// prepopulateAuctions adds sample auctions to the in-memory store
func prepopulateAuctions(store *repository.MemoryStore) {
	now := time.Now().UTC()
	auctions := []model.Auction{
		{
			AuctionID:     "auction1",
			ProductID:     "product1",
			SellerID:      "seller1",
			Title:         "Industrial lathe",
			Category:      "machinery",
			StartingPrice: decimal.NewFromInt(100),
			BidIncrement:  decimal.NewFromInt(10),
			CurrentBid:    decimal.NewFromInt(100),
			StartTime:     now.Add(-time.Hour),
			EndTime:       now.Add(24 * time.Hour),
			Status:        model.AuctionActive,
			CreatedAt:     now,
		},
		{
			AuctionID:     "auction2",
			ProductID:     "product2",
			SellerID:      "seller1",
			Title:         "Pallet racking, 40 bays",
			Category:      "warehousing",
			StartingPrice: decimal.NewFromInt(250),
			BidIncrement:  decimal.NewFromInt(25),
			CurrentBid:    decimal.NewFromInt(250),
			StartTime:     now.Add(time.Hour),
			EndTime:       now.Add(48 * time.Hour),
			Status:        model.AuctionScheduled,
			CreatedAt:     now,
		},
	}

	for _, a := range auctions {
		if err := store.CreateAuction(a); err != nil {
			utils.Warn("failed to seed auction", map[string]any{"auction_id": a.AuctionID, "error": err.Error()})
		}
	}
}
