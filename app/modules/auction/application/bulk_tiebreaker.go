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

// openBulkTiebreakers seeds one Last Person Standing auction per
// contested player in a bulk round.
func (s *SettlementService) openBulkTiebreakers(ctx context.Context, round *auctiondb.Round, ties []auctiontypes.PlayerTie) ([]auctiontypes.TiebreakerID, error) {
	now := s.clock()
	var ids []auctiontypes.TiebreakerID
	for _, tie := range ties {
		if len(tie.Teams) < 2 {
			return nil, &InsufficientDataError{PlayerID: tie.PlayerID, BidCount: len(tie.Teams)}
		}

		tb := &auctiondb.BulkTiebreaker{
			ID:                auctiontypes.TiebreakerID(s.newID()),
			BulkRoundID:       round.ID,
			PlayerID:          tie.PlayerID,
			Status:            auctiontypes.BulkTiebreakerActive,
			CurrentHighestBid: tie.Amount,
			TeamsRemaining:    len(tie.Teams),
			StartTime:         now,
			LastActivityTime:  now,
			MaxEndTime:        now.Add(s.cfg.BulkMaxWindow),
		}
		teams := make([]auctiondb.BulkTiebreakerTeam, len(tie.Teams))
		for i, team := range tie.Teams {
			teams[i] = auctiondb.BulkTiebreakerTeam{
				TiebreakerID: tb.ID,
				TeamID:       team.TeamID,
				Status:       auctiontypes.BulkTeamActive,
				CurrentBid:   tie.Amount,
			}
		}
		if err := s.bulkDB.CreateBulkTiebreaker(ctx, s.db, tb, teams); err != nil {
			return nil, err
		}
		if err := s.roundDB.SetRoundPlayerStatus(ctx, s.db, round.ID, tie.PlayerID, auctiontypes.RoundPlayerTiebreaker); err != nil {
			return nil, err
		}

		s.publishEvent(ctx, auctionevents.BulkTiebreakerCreated, auctionevents.BulkTiebreakerCreatedPayload{
			TiebreakerID: tb.ID,
			RoundID:      round.ID,
			PlayerID:     tie.PlayerID,
			OpeningBid:   tie.Amount,
			TiedTeams:    tie.Teams,
			MaxEndTime:   tb.MaxEndTime,
		})
		ids = append(ids, tb.ID)
	}
	return ids, nil
}

// RaiseBulkBid keeps a team standing by raising strictly above the
// current highest. The conditional update in the repository is the
// arbiter when two teams raise at once.
func (s *SettlementService) RaiseBulkBid(ctx context.Context, teamID auctiontypes.TeamID, tiebreakerID auctiontypes.TiebreakerID, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	tb, team, err := s.getBulkParticipant(ctx, tiebreakerID, teamID)
	if err != nil {
		return err
	}
	if tb.Status != auctiontypes.BulkTiebreakerActive || s.clock().After(tb.MaxEndTime) {
		return ErrTiebreakerClosed
	}
	if team.Status != auctiontypes.BulkTeamActive {
		return ErrTeamOut
	}

	err = s.bulkDB.RaiseBid(ctx, s.db, tiebreakerID, teamID, amount, s.clock())
	if errors.Is(err, auctiondb.ErrConditionFailed) {
		return fmt.Errorf("raise to %s rejected: %w", amount, ErrBidTooLow)
	}
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Bulk tiebreaker bid raised",
		slog.String("tiebreaker_id", tiebreakerID.String()),
		slog.String("team_id", teamID.String()),
	)
	return nil
}

// WithdrawBulkTeam drops a team out of the auction. The instant one
// team remains, the auction resolves.
func (s *SettlementService) WithdrawBulkTeam(ctx context.Context, teamID auctiontypes.TeamID, tiebreakerID auctiontypes.TiebreakerID) error {
	tb, team, err := s.getBulkParticipant(ctx, tiebreakerID, teamID)
	if err != nil {
		return err
	}
	if tb.Status != auctiontypes.BulkTiebreakerActive {
		return ErrTiebreakerClosed
	}
	if team.Status != auctiontypes.BulkTeamActive {
		return ErrTeamOut
	}

	remaining, err := s.bulkDB.MarkTeamOut(ctx, s.db, tiebreakerID, teamID, auctiontypes.BulkTeamWithdrawn, s.clock())
	if errors.Is(err, auctiondb.ErrConditionFailed) {
		return ErrTeamOut
	}
	if err != nil {
		return err
	}
	if remaining <= 1 {
		return s.finalizeBulk(ctx, tiebreakerID)
	}
	return nil
}

// ForceResolveBulk is for the external scheduler or an operator acting
// on an inactive auction: every team except the current leader is
// eliminated and the auction resolves.
func (s *SettlementService) ForceResolveBulk(ctx context.Context, operatorID string, tiebreakerID auctiontypes.TiebreakerID) error {
	if err := s.requireOperator(ctx, operatorID); err != nil {
		return err
	}
	tb, err := s.bulkDB.GetBulkTiebreaker(ctx, s.db, tiebreakerID)
	if errors.Is(err, auctiondb.ErrNotFound) {
		return fmt.Errorf("bulk tiebreaker %s: %w", tiebreakerID, ErrTiebreakerNotFound)
	}
	if err != nil {
		return err
	}
	if tb.Status != auctiontypes.BulkTiebreakerActive {
		return ErrTiebreakerClosed
	}

	teams, err := s.bulkDB.ListBulkTeams(ctx, s.db, tiebreakerID)
	if err != nil {
		return err
	}
	survivor := bulkLeader(tb, teams)
	for _, team := range teams {
		if team.Status != auctiontypes.BulkTeamActive || team.TeamID == survivor {
			continue
		}
		_, err := s.bulkDB.MarkTeamOut(ctx, s.db, tiebreakerID, team.TeamID, auctiontypes.BulkTeamEliminated, s.clock())
		if err != nil && !errors.Is(err, auctiondb.ErrConditionFailed) {
			return err
		}
	}
	return s.finalizeBulk(ctx, tiebreakerID)
}

// finalizeBulk attempts the single conditional resolve. Only the caller
// that wins the flip picks the winner, so a concurrent withdraw race
// can never crown two teams.
func (s *SettlementService) finalizeBulk(ctx context.Context, tiebreakerID auctiontypes.TiebreakerID) error {
	won, err := s.bulkDB.ResolveIfDone(ctx, s.db, tiebreakerID, s.clock())
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	tb, err := s.bulkDB.GetBulkTiebreaker(ctx, s.db, tiebreakerID)
	if err != nil {
		return err
	}
	teams, err := s.bulkDB.ListBulkTeams(ctx, s.db, tiebreakerID)
	if err != nil {
		return err
	}

	winner, amount := bulkWinner(teams)
	if err := s.bulkDB.SetBulkWinner(ctx, s.db, tiebreakerID, winner, amount); err != nil {
		return err
	}
	if err := s.roundDB.SetRoundPlayerWinner(ctx, s.db, tb.BulkRoundID, tb.PlayerID, winner, amount); err != nil {
		return err
	}
	if err := s.maybeReopenRound(ctx, tb.BulkRoundID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Bulk tiebreaker resolved",
		slog.String("tiebreaker_id", tiebreakerID.String()),
		slog.String("winner_team_id", winner.String()),
	)
	s.publishEvent(ctx, auctionevents.BulkTiebreakerResolved, auctionevents.BulkTiebreakerResolvedPayload{
		TiebreakerID: tiebreakerID,
		RoundID:      tb.BulkRoundID,
		PlayerID:     tb.PlayerID,
		WinnerTeamID: winner,
		WinningBid:   amount,
	})
	return nil
}

// bulkWinner picks the sole standing team, or, when every team dropped
// out in the same instant, the highest last bid among them.
func bulkWinner(teams []auctiondb.BulkTiebreakerTeam) (auctiontypes.TeamID, decimal.Decimal) {
	var winner auctiontypes.TeamID
	amount := decimal.Zero
	found := false
	for _, team := range teams {
		if team.Status == auctiontypes.BulkTeamActive {
			return team.TeamID, team.CurrentBid
		}
		if !found || team.CurrentBid.GreaterThan(amount) {
			winner, amount, found = team.TeamID, team.CurrentBid, true
		}
	}
	return winner, amount
}

// bulkLeader is the team ForceResolve keeps: the current highest bidder
// while it is still standing, otherwise the highest standing last bid.
// A withdrawn ex-leader must never survive the force-resolve.
func bulkLeader(tb *auctiondb.BulkTiebreaker, teams []auctiondb.BulkTiebreakerTeam) auctiontypes.TeamID {
	if tb.CurrentHighestTeamID != nil {
		for _, team := range teams {
			if team.TeamID == *tb.CurrentHighestTeamID && team.Status == auctiontypes.BulkTeamActive {
				return team.TeamID
			}
		}
	}
	var leader auctiontypes.TeamID
	amount := decimal.Zero
	found := false
	for _, team := range teams {
		if team.Status != auctiontypes.BulkTeamActive {
			continue
		}
		if !found || team.CurrentBid.GreaterThan(amount) {
			leader, amount, found = team.TeamID, team.CurrentBid, true
		}
	}
	return leader
}

func (s *SettlementService) getBulkParticipant(ctx context.Context, tiebreakerID auctiontypes.TiebreakerID, teamID auctiontypes.TeamID) (*auctiondb.BulkTiebreaker, *auctiondb.BulkTiebreakerTeam, error) {
	tb, err := s.bulkDB.GetBulkTiebreaker(ctx, s.db, tiebreakerID)
	if errors.Is(err, auctiondb.ErrNotFound) {
		return nil, nil, fmt.Errorf("bulk tiebreaker %s: %w", tiebreakerID, ErrTiebreakerNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	teams, err := s.bulkDB.ListBulkTeams(ctx, s.db, tiebreakerID)
	if err != nil {
		return nil, nil, err
	}
	for i := range teams {
		if teams[i].TeamID == teamID {
			return tb, &teams[i], nil
		}
	}
	return nil, nil, ErrNotParticipant
}
