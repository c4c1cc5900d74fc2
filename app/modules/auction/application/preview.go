package auctionservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	auctionevents "github.com/draftline/auctioneer/app/modules/auction/domain/events"
	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
	auctiondb "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories"
)

// PreviewRound runs settlement read-only and stages the computed
// allocations for operator review. Budgets and rosters are never
// touched here; only pending_allocations and the round status change.
func (s *SettlementService) PreviewRound(ctx context.Context, operatorID string, roundID auctiontypes.RoundID) ([]auctiondb.PendingAllocation, error) {
	if err := s.requireOperator(ctx, operatorID); err != nil {
		return nil, err
	}
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.FinalizationMode != auctiontypes.FinalizationManual {
		return nil, fmt.Errorf("round %s settles automatically: %w", roundID, ErrManualRoundOnly)
	}
	return s.preview(ctx, operatorID, round)
}

func (s *SettlementService) getRound(ctx context.Context, roundID auctiontypes.RoundID) (*auctiondb.Round, error) {
	round, err := s.roundDB.GetRound(ctx, s.db, roundID)
	if errors.Is(err, auctiondb.ErrNotFound) {
		return nil, fmt.Errorf("round %s: %w", roundID, ErrRoundNotFound)
	}
	if err != nil {
		return nil, err
	}
	return round, nil
}

func (s *SettlementService) preview(ctx context.Context, operatorID string, round *auctiondb.Round) ([]auctiondb.PendingAllocation, error) {
	if err := s.ensureExpired(ctx, round); err != nil {
		return nil, err
	}
	if err := s.guardPreview(round); err != nil {
		return nil, err
	}

	players, err := s.roundDB.ListRoundPlayers(ctx, s.db, round.ID)
	if err != nil {
		return nil, err
	}
	bids, err := s.roundDB.ListBids(ctx, s.db, round.ID)
	if err != nil {
		return nil, err
	}
	bids, err = s.decryptBids(bids)
	if err != nil {
		return nil, err
	}
	participants, err := s.roundDB.ListParticipants(ctx, s.db, round.ID)
	if err != nil {
		return nil, err
	}
	teamNames := make(map[auctiontypes.TeamID]string, len(participants))
	for _, p := range participants {
		teamNames[p.TeamID] = p.TeamName
	}

	res := s.resolveWinners(ctx, players, bids, teamNames)

	if len(res.ties) > 0 {
		return nil, s.haltOnTies(ctx, operatorID, round, res.ties)
	}

	staged := s.stageResolved(round, players, res)
	staged, err = s.planFallbacks(ctx, round, participants, bids, res.unbid, staged)
	if err != nil {
		return nil, err
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.allocationDB.ReplacePending(ctx, tx, round.ID, staged); err != nil {
			return err
		}
		if err := s.roundDB.UpdateRoundStatus(ctx, tx, round.ID,
			auctiontypes.RoundStatusExpiredPendingFinal, auctiontypes.RoundStatusPendingFinalization); err != nil {
			return err
		}
		return s.allocationDB.InsertAuditLog(ctx, tx, &auctiondb.AuditLog{
			OperatorID:      operatorID,
			Action:          "preview",
			RoundID:         round.ID,
			AllocationCount: len(staged),
		})
	})
	if errors.Is(err, auctiondb.ErrConditionFailed) {
		return nil, &StateConflictError{
			RoundID: round.ID,
			Current: round.Status,
			Hint:    "round status changed while staging; re-read and retry",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stage allocations: %w", err)
	}

	s.logger.InfoContext(ctx, "Round previewed",
		slog.String("round_id", round.ID.String()),
		slog.String("operator_id", operatorID),
		slog.Int("allocations", len(staged)),
	)
	s.publishEvent(ctx, auctionevents.RoundPreviewed, auctionevents.RoundPreviewedPayload{
		RoundID:         round.ID,
		OperatorID:      operatorID,
		AllocationCount: len(staged),
	})
	return staged, nil
}

// haltOnTies opens the relevant tiebreakers, parks the round in
// tiebreaker_pending, and returns the structured TieDetected outcome.
// A tie anywhere blocks finalizing the whole round.
func (s *SettlementService) haltOnTies(ctx context.Context, operatorID string, round *auctiondb.Round, ties []auctiontypes.PlayerTie) error {
	var ids []auctiontypes.TiebreakerID
	var err error
	if round.Bulk {
		ids, err = s.openBulkTiebreakers(ctx, round, ties)
	} else {
		ids, err = s.openTiebreakers(ctx, round, ties)
	}
	if err != nil {
		return err
	}

	err = s.roundDB.UpdateRoundStatus(ctx, s.db, round.ID,
		auctiontypes.RoundStatusExpiredPendingFinal, auctiontypes.RoundStatusTiebreakerPending)
	if err != nil && !errors.Is(err, auctiondb.ErrConditionFailed) {
		return fmt.Errorf("failed to park round for tiebreakers: %w", err)
	}

	s.writeAudit(ctx, s.db, &auctiondb.AuditLog{
		OperatorID:      operatorID,
		Action:          "preview_tie_detected",
		RoundID:         round.ID,
		AllocationCount: 0,
	})
	s.logger.InfoContext(ctx, "Settlement halted on ties",
		slog.String("round_id", round.ID.String()),
		slog.Int("tied_players", len(ties)),
	)
	return &TieDetectedError{RoundID: round.ID, Ties: ties, TiebreakerIDs: ids}
}

// stageResolved builds staging rows for players already settled by a
// tiebreaker and for this scan's regular winners. Row order is stable:
// tiebreaker results first, then regular winners in player order.
func (s *SettlementService) stageResolved(round *auctiondb.Round, players []auctiondb.RoundPlayer, res *resolution) []auctiondb.PendingAllocation {
	var staged []auctiondb.PendingAllocation
	for _, player := range players {
		if player.Status != auctiontypes.RoundPlayerAllocated || player.WinningTeamID == nil || player.FinalPrice == nil {
			continue
		}
		staged = append(staged, auctiondb.PendingAllocation{
			RoundID:  round.ID,
			TeamID:   *player.WinningTeamID,
			PlayerID: player.PlayerID,
			Amount:   *player.FinalPrice,
			Phase:    auctiontypes.PhaseTiebreaker,
		})
	}
	for _, player := range players {
		bid, ok := res.winners[player.PlayerID]
		if !ok {
			continue
		}
		bidID := bid.ID
		staged = append(staged, auctiondb.PendingAllocation{
			RoundID:  round.ID,
			TeamID:   bid.TeamID,
			PlayerID: player.PlayerID,
			Amount:   bid.DecryptedAmount,
			BidID:    &bidID,
			Phase:    auctiontypes.PhaseRegular,
		})
	}
	return staged
}
