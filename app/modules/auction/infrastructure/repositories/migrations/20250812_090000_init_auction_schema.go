package auctionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS rounds (
				id UUID PRIMARY KEY,
				season_id UUID NOT NULL,
				position TEXT NOT NULL,
				base_price NUMERIC NOT NULL,
				status TEXT NOT NULL,
				finalization_mode TEXT NOT NULL DEFAULT 'manual',
				bulk BOOLEAN NOT NULL DEFAULT FALSE,
				end_time TIMESTAMPTZ NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS round_players (
				id BIGSERIAL PRIMARY KEY,
				round_id UUID NOT NULL REFERENCES rounds(id),
				player_id UUID NOT NULL,
				player_name TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				winning_team_id UUID,
				final_price NUMERIC,
				UNIQUE(round_id, player_id)
			);

			CREATE TABLE IF NOT EXISTS bids (
				id UUID PRIMARY KEY,
				round_id UUID NOT NULL REFERENCES rounds(id),
				team_id UUID NOT NULL,
				player_id UUID NOT NULL,
				encrypted_amount BYTEA NOT NULL,
				submitted_at TIMESTAMPTZ NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				UNIQUE(round_id, team_id, player_id)
			);

			CREATE TABLE IF NOT EXISTS teams (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL,
				budget NUMERIC NOT NULL
			);

			CREATE TABLE IF NOT EXISTS round_participants (
				round_id UUID NOT NULL REFERENCES rounds(id),
				team_id UUID NOT NULL REFERENCES teams(id),
				team_name TEXT NOT NULL,
				slots_owed INT NOT NULL DEFAULT 1,
				PRIMARY KEY(round_id, team_id)
			);

			CREATE TABLE IF NOT EXISTS players (
				id UUID PRIMARY KEY,
				season_id UUID NOT NULL,
				name TEXT NOT NULL,
				position TEXT NOT NULL,
				sold BOOLEAN NOT NULL DEFAULT FALSE
			);

			CREATE TABLE IF NOT EXISTS tiebreakers (
				id UUID PRIMARY KEY,
				round_id UUID NOT NULL REFERENCES rounds(id),
				player_id UUID NOT NULL,
				original_amount NUMERIC NOT NULL,
				tied_teams JSONB NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				deadline TIMESTAMPTZ NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS team_tiebreakers (
				tiebreaker_id UUID NOT NULL REFERENCES tiebreakers(id),
				team_id UUID NOT NULL,
				submitted BOOLEAN NOT NULL DEFAULT FALSE,
				new_bid_amount NUMERIC,
				resolved BOOLEAN NOT NULL DEFAULT FALSE,
				PRIMARY KEY(tiebreaker_id, team_id)
			);

			CREATE TABLE IF NOT EXISTS bulk_tiebreakers (
				id UUID PRIMARY KEY,
				bulk_round_id UUID NOT NULL REFERENCES rounds(id),
				player_id UUID NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				current_highest_bid NUMERIC NOT NULL,
				current_highest_team_id UUID,
				teams_remaining INT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				last_activity_time TIMESTAMPTZ NOT NULL,
				max_end_time TIMESTAMPTZ NOT NULL,
				resolved_at TIMESTAMPTZ
			);

			CREATE TABLE IF NOT EXISTS bulk_tiebreaker_teams (
				tiebreaker_id UUID NOT NULL REFERENCES bulk_tiebreakers(id),
				team_id UUID NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				current_bid NUMERIC NOT NULL,
				PRIMARY KEY(tiebreaker_id, team_id)
			);

			CREATE TABLE IF NOT EXISTS pending_allocations (
				id BIGSERIAL PRIMARY KEY,
				round_id UUID NOT NULL REFERENCES rounds(id),
				team_id UUID NOT NULL,
				player_id UUID NOT NULL,
				amount NUMERIC NOT NULL,
				bid_id UUID,
				phase TEXT NOT NULL,
				note TEXT
			);

			CREATE TABLE IF NOT EXISTS allocations (
				id BIGSERIAL PRIMARY KEY,
				round_id UUID NOT NULL REFERENCES rounds(id),
				team_id UUID NOT NULL,
				player_id UUID NOT NULL,
				amount NUMERIC NOT NULL,
				phase TEXT NOT NULL,
				note TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE(round_id, player_id)
			);

			CREATE TABLE IF NOT EXISTS transaction_log (
				id BIGSERIAL PRIMARY KEY,
				team_id UUID NOT NULL,
				round_id UUID NOT NULL,
				amount NUMERIC NOT NULL,
				reason TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS audit_log (
				id BIGSERIAL PRIMARY KEY,
				operator_id TEXT NOT NULL,
				action TEXT NOT NULL,
				round_id UUID NOT NULL,
				allocation_count INT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_bids_round ON bids(round_id);
			CREATE INDEX IF NOT EXISTS idx_pending_allocations_round ON pending_allocations(round_id);
			CREATE INDEX IF NOT EXISTS idx_tiebreakers_round ON tiebreakers(round_id, status);
			CREATE INDEX IF NOT EXISTS idx_bulk_tiebreakers_round ON bulk_tiebreakers(bulk_round_id, status);
		`)
		if err != nil {
			return fmt.Errorf("failed to create auction schema: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS audit_log;
			DROP TABLE IF EXISTS transaction_log;
			DROP TABLE IF EXISTS allocations;
			DROP TABLE IF EXISTS pending_allocations;
			DROP TABLE IF EXISTS bulk_tiebreaker_teams;
			DROP TABLE IF EXISTS bulk_tiebreakers;
			DROP TABLE IF EXISTS team_tiebreakers;
			DROP TABLE IF EXISTS tiebreakers;
			DROP TABLE IF EXISTS players;
			DROP TABLE IF EXISTS round_participants;
			DROP TABLE IF EXISTS teams;
			DROP TABLE IF EXISTS bids;
			DROP TABLE IF EXISTS round_players;
			DROP TABLE IF EXISTS rounds;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop auction schema: %w", err)
		}
		return nil
	})
}
