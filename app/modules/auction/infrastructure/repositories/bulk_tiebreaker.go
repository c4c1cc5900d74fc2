package auctiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
)

// BulkTiebreakerDBImpl is the concrete implementation of the
// BulkTiebreakerDB interface using bun.
type BulkTiebreakerDBImpl struct{}

func (b *BulkTiebreakerDBImpl) CreateBulkTiebreaker(ctx context.Context, db bun.IDB, tb *BulkTiebreaker, teams []BulkTiebreakerTeam) error {
	if _, err := db.NewInsert().Model(tb).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create bulk tiebreaker: %w", err)
	}
	if len(teams) > 0 {
		if _, err := db.NewInsert().Model(&teams).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create bulk tiebreaker team rows: %w", err)
		}
	}
	slog.InfoContext(ctx, "Bulk tiebreaker created",
		slog.String("tiebreaker_id", tb.ID.String()),
		slog.String("round_id", tb.BulkRoundID.String()),
		slog.String("player_id", tb.PlayerID.String()),
		slog.Int("teams_remaining", tb.TeamsRemaining),
	)
	return nil
}

func (b *BulkTiebreakerDBImpl) GetBulkTiebreaker(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID) (*BulkTiebreaker, error) {
	tb := new(BulkTiebreaker)
	err := db.NewSelect().
		Model(tb).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bulk tiebreaker: %w", err)
	}
	return tb, nil
}

func (b *BulkTiebreakerDBImpl) ListBulkTeams(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID) ([]BulkTiebreakerTeam, error) {
	var teams []BulkTiebreakerTeam
	err := db.NewSelect().
		Model(&teams).
		Where("tiebreaker_id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bulk tiebreaker teams: %w", err)
	}
	return teams, nil
}

// RaiseBid installs a new highest bid. The guard on the stored highest
// means two concurrent raises serialize: the lower one matches no rows.
// The EXISTS guard keeps a raise racing the same team's withdraw from
// installing a withdrawn team as the leader.
func (b *BulkTiebreakerDBImpl) RaiseBid(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, amount decimal.Decimal, now time.Time) error {
	res, err := db.NewUpdate().
		Model((*BulkTiebreaker)(nil)).
		Set("current_highest_bid = ?", amount).
		Set("current_highest_team_id = ?", teamID).
		Set("last_activity_time = ?", now).
		Where("id = ?", id).
		Where("status = ?", auctiontypes.BulkTiebreakerActive).
		Where("current_highest_bid < ?", amount).
		Where("EXISTS (SELECT 1 FROM bulk_tiebreaker_teams AS btt WHERE btt.tiebreaker_id = ? AND btt.team_id = ? AND btt.status = ?)",
			id, teamID, auctiontypes.BulkTeamActive).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to raise bulk bid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrConditionFailed
	}
	if _, err := db.NewUpdate().
		Model((*BulkTiebreakerTeam)(nil)).
		Set("current_bid = ?", amount).
		Where("tiebreaker_id = ?", id).
		Where("team_id = ?", teamID).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to record team bid: %w", err)
	}
	return nil
}

func (b *BulkTiebreakerDBImpl) MarkTeamOut(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, status auctiontypes.BulkTeamStatus, now time.Time) (int, error) {
	res, err := db.NewUpdate().
		Model((*BulkTiebreakerTeam)(nil)).
		Set("status = ?", status).
		Where("tiebreaker_id = ?", id).
		Where("team_id = ?", teamID).
		Where("status = ?", auctiontypes.BulkTeamActive).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to mark team out: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return 0, ErrConditionFailed
	}

	// teams_remaining only ever decrements, and only for a row we just
	// flipped out of active, so it can never go below zero.
	var remaining int
	err = db.NewUpdate().
		Model((*BulkTiebreaker)(nil)).
		Set("teams_remaining = teams_remaining - 1").
		Set("last_activity_time = ?", now).
		Where("id = ?", id).
		Returning("teams_remaining").
		Scan(ctx, &remaining)
	if err != nil {
		return 0, fmt.Errorf("failed to decrement teams_remaining: %w", err)
	}
	return remaining, nil
}

// ResolveIfDone is the one conditional update that terminates the
// auction. teams_remaining <= 1 covers the race where the last two teams
// withdraw concurrently; whichever caller wins this flip picks the
// winner, so two teams can never both be declared last standing.
func (b *BulkTiebreakerDBImpl) ResolveIfDone(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID, now time.Time) (bool, error) {
	res, err := db.NewUpdate().
		Model((*BulkTiebreaker)(nil)).
		Set("status = ?", auctiontypes.BulkTiebreakerResolved).
		Set("resolved_at = ?", now).
		Where("id = ?", id).
		Where("status = ?", auctiontypes.BulkTiebreakerActive).
		Where("teams_remaining <= 1").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to resolve bulk tiebreaker: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

func (b *BulkTiebreakerDBImpl) SetBulkWinner(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, amount decimal.Decimal) error {
	_, err := db.NewUpdate().
		Model((*BulkTiebreaker)(nil)).
		Set("current_highest_team_id = ?", teamID).
		Set("current_highest_bid = ?", amount).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set bulk winner: %w", err)
	}
	return nil
}

func (b *BulkTiebreakerDBImpl) CountActiveForRound(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) (int, error) {
	count, err := db.NewSelect().
		Model((*BulkTiebreaker)(nil)).
		Where("bulk_round_id = ?", roundID).
		Where("status = ?", auctiontypes.BulkTiebreakerActive).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bulk tiebreakers: %w", err)
	}
	return count, nil
}
