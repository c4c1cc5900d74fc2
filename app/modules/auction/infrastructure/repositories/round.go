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

// RoundDBImpl is the concrete implementation of the RoundDB interface
// using bun. It is stateless; the connection or transaction comes in as
// bun.IDB on every call.
type RoundDBImpl struct{}

func (r *RoundDBImpl) GetRound(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) (*Round, error) {
	round := new(Round)
	err := db.NewSelect().
		Model(round).
		Where("id = ?", roundID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch round: %w", err)
	}
	return round, nil
}

// UpdateRoundStatus is the compare-and-swap gate every settlement
// operation relies on. Two operators racing on the same round agree on
// a single winner here, not in application code.
func (r *RoundDBImpl) UpdateRoundStatus(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, from, to auctiontypes.RoundStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("illegal round transition %s -> %s: %w", from, to, ErrConditionFailed)
	}
	res, err := db.NewUpdate().
		Model((*Round)(nil)).
		Set("status = ?", to).
		Set("updated_at = current_timestamp").
		Where("id = ?", roundID).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update round status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrConditionFailed
	}
	slog.DebugContext(ctx, "Round status updated",
		slog.String("round_id", roundID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	return nil
}

func (r *RoundDBImpl) ListBids(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) ([]Bid, error) {
	var bids []Bid
	err := db.NewSelect().
		Model(&bids).
		Where("round_id = ?", roundID).
		Order("submitted_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return bids, nil
}

func (r *RoundDBImpl) MarkBidStatuses(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, won []auctiontypes.BidID) error {
	if len(won) > 0 {
		_, err := db.NewUpdate().
			Model((*Bid)(nil)).
			Set("status = ?", auctiontypes.BidStatusWon).
			Where("round_id = ?", roundID).
			Where("id IN (?)", bun.In(won)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark winning bids: %w", err)
		}
	}
	_, err := db.NewUpdate().
		Model((*Bid)(nil)).
		Set("status = ?", auctiontypes.BidStatusLost).
		Where("round_id = ?", roundID).
		Where("status = ?", auctiontypes.BidStatusActive).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark losing bids: %w", err)
	}
	return nil
}

func (r *RoundDBImpl) ListRoundPlayers(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) ([]RoundPlayer, error) {
	var players []RoundPlayer
	err := db.NewSelect().
		Model(&players).
		Where("round_id = ?", roundID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list round players: %w", err)
	}
	return players, nil
}

func (r *RoundDBImpl) SetRoundPlayerStatus(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, playerID auctiontypes.PlayerID, status auctiontypes.RoundPlayerStatus) error {
	res, err := db.NewUpdate().
		Model((*RoundPlayer)(nil)).
		Set("status = ?", status).
		Where("round_id = ?", roundID).
		Where("player_id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set round player status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RoundDBImpl) SetRoundPlayerWinner(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, playerID auctiontypes.PlayerID, teamID auctiontypes.TeamID, price decimal.Decimal) error {
	res, err := db.NewUpdate().
		Model((*RoundPlayer)(nil)).
		Set("status = ?", auctiontypes.RoundPlayerAllocated).
		Set("winning_team_id = ?", teamID).
		Set("final_price = ?", price).
		Where("round_id = ?", roundID).
		Where("player_id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set round player winner: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Round player allocated",
		slog.String("round_id", roundID.String()),
		slog.String("player_id", playerID.String()),
		slog.String("team_id", teamID.String()),
	)
	return nil
}

func (r *RoundDBImpl) ListParticipants(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) ([]RoundParticipant, error) {
	var participants []RoundParticipant
	err := db.NewSelect().
		Model(&participants).
		Where("round_id = ?", roundID).
		Order("team_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list round participants: %w", err)
	}
	return participants, nil
}

func (r *RoundDBImpl) ListUnsoldPlayers(ctx context.Context, db bun.IDB, seasonID auctiontypes.SeasonID, position auctiontypes.Position) ([]Player, error) {
	var players []Player
	err := db.NewSelect().
		Model(&players).
		Where("season_id = ?", seasonID).
		Where("position = ?", position).
		Where("sold = false").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsold players: %w", err)
	}
	return players, nil
}

func (r *RoundDBImpl) MarkPlayerSold(ctx context.Context, db bun.IDB, playerID auctiontypes.PlayerID) error {
	_, err := db.NewUpdate().
		Model((*Player)(nil)).
		Set("sold = true").
		Where("id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark player sold: %w", err)
	}
	return nil
}

func (r *RoundDBImpl) LatestBidOutsideRound(ctx context.Context, db bun.IDB, teamID auctiontypes.TeamID, playerID auctiontypes.PlayerID, excludeRound auctiontypes.RoundID) (*Bid, error) {
	bid := new(Bid)
	err := db.NewSelect().
		Model(bid).
		Where("team_id = ?", teamID).
		Where("player_id = ?", playerID).
		Where("round_id != ?", excludeRound).
		Order("submitted_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch out-of-round bid: %w", err)
	}
	return bid, nil
}
