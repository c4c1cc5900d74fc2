package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/draftline/auctioneer/app/auth"
	"github.com/draftline/auctioneer/app/eventbus"
	auctionservice "github.com/draftline/auctioneer/app/modules/auction/application"
	auctionutil "github.com/draftline/auctioneer/app/modules/auction/utils"
	"github.com/draftline/auctioneer/config"
	"github.com/draftline/auctioneer/db/bundb"
)

// App wires the settlement engine: config, database, event bus, and
// the service itself.
type App struct {
	Cfg        *config.Config
	db         *bundb.DBService
	EventBus   *eventbus.EventBus
	Settlement *auctionservice.SettlementService
	logger     *slog.Logger
}

// NewApp initializes the application with the necessary services and
// configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}
	if err := dbService.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	bus, err := eventbus.NewEventBus(cfg.NATS.URL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}

	key, err := cfg.Auction.BidKey()
	if err != nil {
		return nil, err
	}
	cipher, err := auctionutil.NewAESBidCipher(key)
	if err != nil {
		return nil, err
	}

	settlement := auctionservice.NewSettlementService(
		dbService.GetDB(),
		dbService.RoundDB,
		dbService.TiebreakerDB,
		dbService.BulkTiebreakerDB,
		dbService.AllocationDB,
		bus,
		logger,
		auth.NewOperatorAllowList(cfg.Auction.Operators),
		cipher,
		auctionservice.Config{
			TiebreakerWindow: cfg.Auction.TiebreakerWindow,
			BulkMaxWindow:    cfg.Auction.BulkMaxWindow,
		},
	)

	return &App{
		Cfg:        cfg,
		db:         dbService,
		EventBus:   bus,
		Settlement: settlement,
		logger:     logger,
	}, nil
}

// DB returns the database service.
func (app *App) DB() *bundb.DBService {
	return app.db
}

// Close releases the event bus; the database pool closes with the process.
func (app *App) Close() error {
	return app.EventBus.Close()
}
