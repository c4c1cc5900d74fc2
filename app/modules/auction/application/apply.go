package auctionservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	auctionevents "github.com/draftline/auctioneer/app/modules/auction/domain/events"
	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
	auctiondb "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories"
)

// ApplyRound commits the staged allocations: budget debits, roster
// assignments, bid statuses, and the audit trail, all inside one
// transaction. A failure anywhere rolls the whole round back and leaves
// it in pending_finalization, so Apply is safe to retry.
func (s *SettlementService) ApplyRound(ctx context.Context, operatorID string, roundID auctiontypes.RoundID) (int, error) {
	if err := s.requireOperator(ctx, operatorID); err != nil {
		return 0, err
	}
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return 0, err
	}
	if err := s.guardApply(round); err != nil {
		return 0, err
	}

	applied := 0
	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// The compare-and-swap comes first: whichever of two concurrent
		// Apply calls loses it matches no rows and aborts with no writes.
		if err := s.roundDB.UpdateRoundStatus(ctx, tx, roundID,
			auctiontypes.RoundStatusPendingFinalization, auctiontypes.RoundStatusCompleted); err != nil {
			return err
		}

		rows, err := s.allocationDB.ListPending(ctx, tx, roundID)
		if err != nil {
			return err
		}

		var won []auctiontypes.BidID
		for _, row := range rows {
			reason := fmt.Sprintf("player purchase (%s phase)", row.Phase)
			if err := s.allocationDB.DebitBudget(ctx, tx, row.TeamID, roundID, row.Amount, reason); err != nil {
				return err
			}
			if err := s.allocationDB.InsertAllocation(ctx, tx, &auctiondb.Allocation{
				RoundID:  row.RoundID,
				TeamID:   row.TeamID,
				PlayerID: row.PlayerID,
				Amount:   row.Amount,
				Phase:    row.Phase,
				Note:     row.Note,
			}); err != nil {
				return err
			}
			// Synthetic players come from outside the round's player list.
			if row.Phase != auctiontypes.PhaseSynthetic {
				if err := s.roundDB.SetRoundPlayerWinner(ctx, tx, roundID, row.PlayerID, row.TeamID, row.Amount); err != nil {
					return err
				}
			}
			if err := s.roundDB.MarkPlayerSold(ctx, tx, row.PlayerID); err != nil {
				return err
			}
			if row.BidID != nil {
				won = append(won, *row.BidID)
			}
		}

		if err := s.roundDB.MarkBidStatuses(ctx, tx, roundID, won); err != nil {
			return err
		}
		// Staged rows are deleted only inside the committing transaction;
		// a retry after a failed Apply still finds them.
		if err := s.allocationDB.DeletePending(ctx, tx, roundID); err != nil {
			return err
		}
		if err := s.allocationDB.InsertAuditLog(ctx, tx, &auctiondb.AuditLog{
			OperatorID:      operatorID,
			Action:          "apply",
			RoundID:         roundID,
			AllocationCount: len(rows),
		}); err != nil {
			return err
		}
		applied = len(rows)
		return nil
	})
	if errors.Is(err, auctiondb.ErrConditionFailed) {
		return 0, &StateConflictError{
			RoundID: roundID,
			Current: round.Status,
			Hint:    "round was applied or cancelled concurrently",
		}
	}
	if err != nil {
		return 0, fmt.Errorf("apply failed and was rolled back: %w", err)
	}

	s.logger.InfoContext(ctx, "Round finalized",
		slog.String("round_id", roundID.String()),
		slog.String("operator_id", operatorID),
		slog.Int("allocations", applied),
	)
	s.publishEvent(ctx, auctionevents.RoundFinalized, auctionevents.RoundFinalizedPayload{
		RoundID:         roundID,
		OperatorID:      operatorID,
		AllocationCount: applied,
	})
	return applied, nil
}

// CancelPreview discards the staged allocations and reverts the round so
// a fresh Preview can run.
func (s *SettlementService) CancelPreview(ctx context.Context, operatorID string, roundID auctiontypes.RoundID) error {
	if err := s.requireOperator(ctx, operatorID); err != nil {
		return err
	}
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return err
	}
	if round.Status != auctiontypes.RoundStatusPendingFinalization {
		return &StateConflictError{
			RoundID: roundID,
			Current: round.Status,
			Hint:    "nothing staged to cancel",
		}
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.roundDB.UpdateRoundStatus(ctx, tx, roundID,
			auctiontypes.RoundStatusPendingFinalization, auctiontypes.RoundStatusExpiredPendingFinal); err != nil {
			return err
		}
		return s.allocationDB.DeletePending(ctx, tx, roundID)
	})
	if errors.Is(err, auctiondb.ErrConditionFailed) {
		return &StateConflictError{
			RoundID: roundID,
			Current: round.Status,
			Hint:    "round status changed concurrently",
		}
	}
	if err != nil {
		return fmt.Errorf("failed to cancel preview: %w", err)
	}

	s.logger.InfoContext(ctx, "Preview cancelled",
		slog.String("round_id", roundID.String()),
		slog.String("operator_id", operatorID),
	)
	s.publishEvent(ctx, auctionevents.PreviewCancelled, auctionevents.PreviewCancelledPayload{
		RoundID:    roundID,
		OperatorID: operatorID,
	})
	return nil
}

// FinalizeAutomatic settles an automatic-mode round in one operator
// call: preview then apply. Ties still halt it like any other round.
func (s *SettlementService) FinalizeAutomatic(ctx context.Context, operatorID string, roundID auctiontypes.RoundID) (int, error) {
	if err := s.requireOperator(ctx, operatorID); err != nil {
		return 0, err
	}
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return 0, err
	}
	if round.FinalizationMode != auctiontypes.FinalizationAutomatic {
		return 0, fmt.Errorf("round %s requires manual preview and apply: %w", roundID, ErrManualRoundOnly)
	}
	if _, err := s.preview(ctx, operatorID, round); err != nil {
		return 0, err
	}
	return s.ApplyRound(ctx, operatorID, roundID)
}
