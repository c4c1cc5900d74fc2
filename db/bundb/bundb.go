// db/bundb/bundb.go
package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	auctiondb "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories"
	auctionmigrations "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories/migrations"
	"github.com/draftline/auctioneer/config"
)

// DBService bundles the bun connection with the auction repositories.
type DBService struct {
	RoundDB          *auctiondb.RoundDBImpl
	TiebreakerDB     *auctiondb.TiebreakerDBImpl
	BulkTiebreakerDB *auctiondb.BulkTiebreakerDBImpl
	AllocationDB     *auctiondb.AllocationDBImpl
	db               *bun.DB
}

// GetDB returns the underlying database connection pool.
func (dbService *DBService) GetDB() *bun.DB {
	return dbService.db
}

// NewBunDBService initializes a new DBService with the provided
// Postgres configuration.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig) (*DBService, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	db.RegisterModel(
		(*auctiondb.Round)(nil),
		(*auctiondb.RoundPlayer)(nil),
		(*auctiondb.Bid)(nil),
		(*auctiondb.Team)(nil),
		(*auctiondb.RoundParticipant)(nil),
		(*auctiondb.Player)(nil),
		(*auctiondb.Tiebreaker)(nil),
		(*auctiondb.TeamTiebreaker)(nil),
		(*auctiondb.BulkTiebreaker)(nil),
		(*auctiondb.BulkTiebreakerTeam)(nil),
		(*auctiondb.PendingAllocation)(nil),
		(*auctiondb.Allocation)(nil),
		(*auctiondb.TransactionLog)(nil),
		(*auctiondb.AuditLog)(nil),
	)

	return &DBService{
		RoundDB:          &auctiondb.RoundDBImpl{},
		TiebreakerDB:     &auctiondb.TiebreakerDBImpl{},
		BulkTiebreakerDB: &auctiondb.BulkTiebreakerDBImpl{},
		AllocationDB:     &auctiondb.AllocationDBImpl{},
		db:               db,
	}, nil
}

// Migrate applies the auction schema migrations.
func (dbService *DBService) Migrate(ctx context.Context) error {
	migrator := migrate.NewMigrator(dbService.db, auctionmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return sqldb, nil
}
