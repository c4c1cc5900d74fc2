package auctiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
)

// TiebreakerDBImpl is the concrete implementation of the TiebreakerDB
// interface using bun.
type TiebreakerDBImpl struct{}

func (t *TiebreakerDBImpl) CreateTiebreaker(ctx context.Context, db bun.IDB, tb *Tiebreaker, teams []TeamTiebreaker) error {
	if _, err := db.NewInsert().Model(tb).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create tiebreaker: %w", err)
	}
	if len(teams) > 0 {
		if _, err := db.NewInsert().Model(&teams).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create team tiebreaker rows: %w", err)
		}
	}
	slog.InfoContext(ctx, "Tiebreaker created",
		slog.String("tiebreaker_id", tb.ID.String()),
		slog.String("round_id", tb.RoundID.String()),
		slog.String("player_id", tb.PlayerID.String()),
		slog.Int("tied_teams", len(teams)),
	)
	return nil
}

func (t *TiebreakerDBImpl) GetTiebreaker(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID) (*Tiebreaker, error) {
	tb := new(Tiebreaker)
	err := db.NewSelect().
		Model(tb).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tiebreaker: %w", err)
	}
	return tb, nil
}

func (t *TiebreakerDBImpl) GetOpenTiebreakerForPlayer(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, playerID auctiontypes.PlayerID) (*Tiebreaker, error) {
	tb := new(Tiebreaker)
	err := db.NewSelect().
		Model(tb).
		Where("round_id = ?", roundID).
		Where("player_id = ?", playerID).
		Where("status != ?", auctiontypes.TiebreakerResolved).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open tiebreaker: %w", err)
	}
	return tb, nil
}

func (t *TiebreakerDBImpl) ListTeamTiebreakers(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID) ([]TeamTiebreaker, error) {
	var teams []TeamTiebreaker
	err := db.NewSelect().
		Model(&teams).
		Where("tiebreaker_id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list team tiebreakers: %w", err)
	}
	return teams, nil
}

// SubmitTeamBid is one-shot: the update only matches while the team has
// not submitted yet, so a second submission fails instead of silently
// replacing the first.
func (t *TiebreakerDBImpl) SubmitTeamBid(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, amount decimal.Decimal) error {
	res, err := db.NewUpdate().
		Model((*TeamTiebreaker)(nil)).
		Set("submitted = true").
		Set("new_bid_amount = ?", amount).
		Where("tiebreaker_id = ?", id).
		Where("team_id = ?", teamID).
		Where("submitted = false").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to submit tiebreaker bid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (t *TiebreakerDBImpl) ResolveTiebreaker(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID) error {
	res, err := db.NewUpdate().
		Model((*Tiebreaker)(nil)).
		Set("status = ?", auctiontypes.TiebreakerResolved).
		Where("id = ?", id).
		Where("status != ?", auctiontypes.TiebreakerResolved).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve tiebreaker: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrConditionFailed
	}
	if _, err := db.NewUpdate().
		Model((*TeamTiebreaker)(nil)).
		Set("resolved = true").
		Where("tiebreaker_id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to resolve team tiebreaker rows: %w", err)
	}
	return nil
}

func (t *TiebreakerDBImpl) CountUnresolvedForRound(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) (int, error) {
	count, err := db.NewSelect().
		Model((*Tiebreaker)(nil)).
		Where("round_id = ?", roundID).
		Where("status != ?", auctiontypes.TiebreakerResolved).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count unresolved tiebreakers: %w", err)
	}
	return count, nil
}
