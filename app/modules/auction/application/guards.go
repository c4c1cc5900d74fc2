package auctionservice

import (
	"context"
	"errors"
	"fmt"

	auctiondb "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories"
	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
)

// ensureExpired materializes the lazy active -> expired transition.
// Expiry is decided by comparing end_time to the wall clock on every
// request, never by trusting cached state or a timer.
func (s *SettlementService) ensureExpired(ctx context.Context, round *auctiondb.Round) error {
	if round.Status != auctiontypes.RoundStatusActive {
		return nil
	}
	if s.clock().Before(round.EndTime) {
		return &StateConflictError{
			RoundID: round.ID,
			Current: round.Status,
			Hint:    "round has not expired yet",
		}
	}
	err := s.roundDB.UpdateRoundStatus(ctx, s.db, round.ID,
		auctiontypes.RoundStatusActive, auctiontypes.RoundStatusExpiredPendingFinal)
	if errors.Is(err, auctiondb.ErrConditionFailed) {
		// Another caller materialized the expiry first; re-read and
		// let the status guard below decide.
		fresh, getErr := s.roundDB.GetRound(ctx, s.db, round.ID)
		if getErr != nil {
			return fmt.Errorf("failed to re-read round after expiry race: %w", getErr)
		}
		*round = *fresh
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to expire round: %w", err)
	}
	round.Status = auctiontypes.RoundStatusExpiredPendingFinal
	return nil
}

// guardPreview enforces the preview legality rules from the round
// lifecycle: the round must be expired and not already staged.
func (s *SettlementService) guardPreview(round *auctiondb.Round) error {
	switch round.Status {
	case auctiontypes.RoundStatusExpiredPendingFinal:
		return nil
	case auctiontypes.RoundStatusPendingFinalization:
		// Re-preview would silently discard a pending decision.
		return &StateConflictError{
			RoundID: round.ID,
			Current: round.Status,
			Hint:    "cancel the staged allocations before previewing again",
		}
	case auctiontypes.RoundStatusTiebreakerPending:
		return &StateConflictError{
			RoundID: round.ID,
			Current: round.Status,
			Hint:    "resolve pending tiebreakers before previewing",
		}
	default:
		return &StateConflictError{RoundID: round.ID, Current: round.Status}
	}
}

// guardApply allows Apply only from pending_finalization; Apply is the
// sole operation permitted to mutate budgets and rosters for a round.
func (s *SettlementService) guardApply(round *auctiondb.Round) error {
	if round.Status != auctiontypes.RoundStatusPendingFinalization {
		return &StateConflictError{
			RoundID: round.ID,
			Current: round.Status,
			Hint:    "apply requires staged allocations awaiting confirmation",
		}
	}
	return nil
}

// maybeReopenRound flips the round back to expired_pending_finalization
// once the last tiebreaker in it resolves, so Preview can run again.
// Losing the CAS just means another resolver got there first.
func (s *SettlementService) maybeReopenRound(ctx context.Context, roundID auctiontypes.RoundID) error {
	single, err := s.tiebreakerDB.CountUnresolvedForRound(ctx, s.db, roundID)
	if err != nil {
		return err
	}
	bulk, err := s.bulkDB.CountActiveForRound(ctx, s.db, roundID)
	if err != nil {
		return err
	}
	if single > 0 || bulk > 0 {
		return nil
	}
	err = s.roundDB.UpdateRoundStatus(ctx, s.db, roundID,
		auctiontypes.RoundStatusTiebreakerPending, auctiontypes.RoundStatusExpiredPendingFinal)
	if err != nil && !errors.Is(err, auctiondb.ErrConditionFailed) {
		return err
	}
	return nil
}
