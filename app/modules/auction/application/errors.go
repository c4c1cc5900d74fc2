package auctionservice

import (
	"errors"
	"fmt"

	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
)

// Domain errors for the settlement service. Validation and state
// conflicts are surfaced synchronously with enough detail to retry
// correctly; none of them leave side effects behind.
var (
	// ErrRoundNotFound indicates the round does not exist.
	ErrRoundNotFound = errors.New("round not found")

	// ErrTiebreakerNotFound indicates the tiebreaker does not exist.
	ErrTiebreakerNotFound = errors.New("tiebreaker not found")

	// ErrUnauthorized indicates the caller does not hold the operator
	// role. Authorization fails closed.
	ErrUnauthorized = errors.New("operator authorization required")

	// ErrInvalidAmount indicates a missing, zero, or negative bid amount.
	ErrInvalidAmount = errors.New("invalid bid amount")

	// ErrBidTooLow indicates a tiebreaker bid at or below the current floor.
	ErrBidTooLow = errors.New("bid must be strictly above the current amount")

	// ErrAlreadySubmitted indicates the team already used its single
	// tiebreaker submission.
	ErrAlreadySubmitted = errors.New("team has already submitted a tiebreaker bid")

	// ErrNotParticipant indicates the team is not part of the tiebreaker.
	ErrNotParticipant = errors.New("team is not a participant in this tiebreaker")

	// ErrTiebreakerClosed indicates the tiebreaker deadline passed or it
	// has already been resolved.
	ErrTiebreakerClosed = errors.New("tiebreaker is closed")

	// ErrTiebreakerStillOpen indicates resolution was attempted before
	// the deadline with submissions outstanding.
	ErrTiebreakerStillOpen = errors.New("tiebreaker window is still open")

	// ErrTeamOut indicates the team already withdrew or was eliminated.
	ErrTeamOut = errors.New("team is no longer standing in this tiebreaker")

	// ErrManualRoundOnly indicates automatic finalization was requested
	// for a manual round or vice versa.
	ErrManualRoundOnly = errors.New("operation not allowed for this finalization mode")
)

// StateConflictError reports an operation attempted while Round.status
// forbids it, carrying the current status so the caller can decide to
// cancel and retry.
type StateConflictError struct {
	RoundID auctiontypes.RoundID
	Current auctiontypes.RoundStatus
	Hint    string
}

func (e *StateConflictError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("round %s is %s: %s", e.RoundID, e.Current, e.Hint)
	}
	return fmt.Sprintf("round %s is %s", e.RoundID, e.Current)
}

// TieDetectedError is not a failure: it is the structured alternate
// outcome of Preview that halts settlement for the whole round until
// every tie is resolved.
type TieDetectedError struct {
	RoundID       auctiontypes.RoundID
	Ties          []auctiontypes.PlayerTie
	TiebreakerIDs []auctiontypes.TiebreakerID
}

func (e *TieDetectedError) Error() string {
	return fmt.Sprintf("settlement halted: %d tied player(s) in round %s", len(e.Ties), e.RoundID)
}

// InsufficientDataError guards tiebreaker creation against a supposed
// tie with fewer than two bids.
type InsufficientDataError struct {
	PlayerID auctiontypes.PlayerID
	BidCount int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("player %s: %d bid(s) is not enough for a tiebreaker", e.PlayerID, e.BidCount)
}
