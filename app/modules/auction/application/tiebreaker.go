package auctionservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	auctionevents "github.com/draftline/auctioneer/app/modules/auction/domain/events"
	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
	auctiondb "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories"
)

// openTiebreakers creates one single-player tiebreaker per tie. A
// player with an unresolved tiebreaker never gets a second one.
func (s *SettlementService) openTiebreakers(ctx context.Context, round *auctiondb.Round, ties []auctiontypes.PlayerTie) ([]auctiontypes.TiebreakerID, error) {
	var ids []auctiontypes.TiebreakerID
	for _, tie := range ties {
		if len(tie.Teams) < 2 {
			return nil, &InsufficientDataError{PlayerID: tie.PlayerID, BidCount: len(tie.Teams)}
		}
		existing, err := s.tiebreakerDB.GetOpenTiebreakerForPlayer(ctx, s.db, round.ID, tie.PlayerID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			ids = append(ids, existing.ID)
			continue
		}

		id, err := s.createTiebreaker(ctx, round.ID, tie)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// createTiebreaker opens a fixed-window secondary round among exactly
// the tied teams, floored at the tied amount.
func (s *SettlementService) createTiebreaker(ctx context.Context, roundID auctiontypes.RoundID, tie auctiontypes.PlayerTie) (auctiontypes.TiebreakerID, error) {
	now := s.clock()
	tb := &auctiondb.Tiebreaker{
		ID:             auctiontypes.TiebreakerID(s.newID()),
		RoundID:        roundID,
		PlayerID:       tie.PlayerID,
		OriginalAmount: tie.Amount,
		TiedTeams:      tie.Teams,
		Status:         auctiontypes.TiebreakerActive,
		Deadline:       now.Add(s.cfg.TiebreakerWindow),
		CreatedAt:      now,
	}
	teams := make([]auctiondb.TeamTiebreaker, len(tie.Teams))
	for i, team := range tie.Teams {
		teams[i] = auctiondb.TeamTiebreaker{TiebreakerID: tb.ID, TeamID: team.TeamID}
	}
	if err := s.tiebreakerDB.CreateTiebreaker(ctx, s.db, tb, teams); err != nil {
		return auctiontypes.TiebreakerID{}, err
	}
	if err := s.roundDB.SetRoundPlayerStatus(ctx, s.db, roundID, tie.PlayerID, auctiontypes.RoundPlayerTiebreaker); err != nil {
		return auctiontypes.TiebreakerID{}, err
	}

	s.publishEvent(ctx, auctionevents.TiebreakerCreated, auctionevents.TiebreakerCreatedPayload{
		TiebreakerID:   tb.ID,
		RoundID:        roundID,
		PlayerID:       tie.PlayerID,
		OriginalAmount: tie.Amount,
		TiedTeams:      tie.Teams,
		Deadline:       tb.Deadline,
	})
	return tb.ID, nil
}

// SubmitTiebreakerBid records a tied team's single sealed raise. The
// bid must be strictly above the original tied amount.
func (s *SettlementService) SubmitTiebreakerBid(ctx context.Context, teamID auctiontypes.TeamID, tiebreakerID auctiontypes.TiebreakerID, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	tb, err := s.tiebreakerDB.GetTiebreaker(ctx, s.db, tiebreakerID)
	if errors.Is(err, auctiondb.ErrNotFound) {
		return fmt.Errorf("tiebreaker %s: %w", tiebreakerID, ErrTiebreakerNotFound)
	}
	if err != nil {
		return err
	}
	if tb.Status == auctiontypes.TiebreakerResolved || s.clock().After(tb.Deadline) {
		return ErrTiebreakerClosed
	}
	if !tiedTeamsContain(tb.TiedTeams, teamID) {
		return ErrNotParticipant
	}
	if amount.LessThanOrEqual(tb.OriginalAmount) {
		return fmt.Errorf("bid %s against floor %s: %w", amount, tb.OriginalAmount, ErrBidTooLow)
	}

	err = s.tiebreakerDB.SubmitTeamBid(ctx, s.db, tiebreakerID, teamID, amount)
	if errors.Is(err, auctiondb.ErrConditionFailed) {
		return ErrAlreadySubmitted
	}
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Tiebreaker bid submitted",
		slog.String("tiebreaker_id", tiebreakerID.String()),
		slog.String("team_id", teamID.String()),
	)
	return nil
}

// ResolveTiebreaker settles a single tiebreaker by the same
// single-winner rule as the main round, over just the tied pool. A
// fresh tie spawns a recursive tiebreaker at the higher floor.
func (s *SettlementService) ResolveTiebreaker(ctx context.Context, operatorID string, tiebreakerID auctiontypes.TiebreakerID) (*TiebreakerOutcome, error) {
	if err := s.requireOperator(ctx, operatorID); err != nil {
		return nil, err
	}
	tb, err := s.tiebreakerDB.GetTiebreaker(ctx, s.db, tiebreakerID)
	if errors.Is(err, auctiondb.ErrNotFound) {
		return nil, fmt.Errorf("tiebreaker %s: %w", tiebreakerID, ErrTiebreakerNotFound)
	}
	if err != nil {
		return nil, err
	}
	if tb.Status == auctiontypes.TiebreakerResolved {
		return nil, ErrTiebreakerClosed
	}

	teams, err := s.tiebreakerDB.ListTeamTiebreakers(ctx, s.db, tiebreakerID)
	if err != nil {
		return nil, err
	}
	submitted := 0
	for _, t := range teams {
		if t.Submitted {
			submitted++
		}
	}
	if submitted < len(teams) && s.clock().Before(tb.Deadline) {
		return nil, ErrTiebreakerStillOpen
	}

	winnerTeam, winAmount, rematch := pickTiebreakerWinner(tb, teams)

	if len(rematch) >= 2 {
		// The raised bids tied again; open a new tiebreaker at the new
		// floor and keep the player parked.
		newTie := auctiontypes.PlayerTie{PlayerID: tb.PlayerID, Amount: winAmount, Teams: rematch}
		if err := s.tiebreakerDB.ResolveTiebreaker(ctx, s.db, tiebreakerID); err != nil {
			return nil, err
		}
		newID, err := s.createTiebreaker(ctx, tb.RoundID, newTie)
		if err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "Tiebreaker re-tied",
			slog.String("tiebreaker_id", tiebreakerID.String()),
			slog.String("new_tiebreaker_id", newID.String()),
		)
		return &TiebreakerOutcome{NewTiebreakerID: &newID}, nil
	}

	if err := s.tiebreakerDB.ResolveTiebreaker(ctx, s.db, tiebreakerID); err != nil {
		if errors.Is(err, auctiondb.ErrConditionFailed) {
			return nil, ErrTiebreakerClosed
		}
		return nil, err
	}
	if err := s.roundDB.SetRoundPlayerWinner(ctx, s.db, tb.RoundID, tb.PlayerID, winnerTeam, winAmount); err != nil {
		return nil, err
	}
	if err := s.maybeReopenRound(ctx, tb.RoundID); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Tiebreaker resolved",
		slog.String("tiebreaker_id", tiebreakerID.String()),
		slog.String("winner_team_id", winnerTeam.String()),
	)
	return &TiebreakerOutcome{Winner: &winnerTeam, WinningAmount: winAmount}, nil
}

// pickTiebreakerWinner applies the single-winner rule to the submitted
// raises. With no submissions at all, the first team in original bid
// order wins at the floor. Returns the rematch set when the maximum is
// shared.
func pickTiebreakerWinner(tb *auctiondb.Tiebreaker, teams []auctiondb.TeamTiebreaker) (auctiontypes.TeamID, decimal.Decimal, []auctiontypes.TiedTeam) {
	byTeam := make(map[auctiontypes.TeamID]auctiondb.TeamTiebreaker, len(teams))
	for _, t := range teams {
		byTeam[t.TeamID] = t
	}

	max := decimal.Zero
	for _, t := range teams {
		if t.Submitted && t.NewBidAmount != nil && t.NewBidAmount.GreaterThan(max) {
			max = *t.NewBidAmount
		}
	}
	if max.IsZero() {
		return tb.TiedTeams[0].TeamID, tb.OriginalAmount, nil
	}

	// Walk tied_teams so the rematch keeps original submission order.
	var top []auctiontypes.TiedTeam
	for _, tied := range tb.TiedTeams {
		t, ok := byTeam[tied.TeamID]
		if ok && t.Submitted && t.NewBidAmount != nil && t.NewBidAmount.Equal(max) {
			top = append(top, tied)
		}
	}
	if len(top) == 1 {
		return top[0].TeamID, max, nil
	}
	return auctiontypes.TeamID{}, max, top
}

func tiedTeamsContain(teams []auctiontypes.TiedTeam, teamID auctiontypes.TeamID) bool {
	for _, t := range teams {
		if t.TeamID == teamID {
			return true
		}
	}
	return false
}
