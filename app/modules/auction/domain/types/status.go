package auctiontypes

// RoundStatus is the single source of truth for which settlement
// operations are legal on a round.
type RoundStatus string

const (
	RoundStatusActive              RoundStatus = "active"
	RoundStatusExpiredPendingFinal RoundStatus = "expired_pending_finalization"
	RoundStatusTiebreakerPending   RoundStatus = "tiebreaker_pending"
	RoundStatusPendingFinalization RoundStatus = "pending_finalization"
	RoundStatusCompleted           RoundStatus = "completed"
)

// roundTransitions is the closed transition table. Anything not listed
// here is an illegal transition.
var roundTransitions = map[RoundStatus][]RoundStatus{
	RoundStatusActive:              {RoundStatusExpiredPendingFinal},
	RoundStatusExpiredPendingFinal: {RoundStatusTiebreakerPending, RoundStatusPendingFinalization},
	RoundStatusTiebreakerPending:   {RoundStatusExpiredPendingFinal},
	RoundStatusPendingFinalization: {RoundStatusCompleted, RoundStatusExpiredPendingFinal},
	RoundStatusCompleted:           {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s RoundStatus) CanTransitionTo(next RoundStatus) bool {
	for _, allowed := range roundTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the round can never change status again.
func (s RoundStatus) Terminal() bool { return len(roundTransitions[s]) == 0 }

// RoundPlayerStatus tracks a player's progress through settlement.
type RoundPlayerStatus string

const (
	RoundPlayerPending    RoundPlayerStatus = "pending"
	RoundPlayerTiebreaker RoundPlayerStatus = "tiebreaker"
	RoundPlayerAllocated  RoundPlayerStatus = "allocated"
)

// BidStatus is assigned when a round settles; bids stay active until then.
type BidStatus string

const (
	BidStatusActive BidStatus = "active"
	BidStatusWon    BidStatus = "won"
	BidStatusLost   BidStatus = "lost"
)

// TiebreakerStatus is the lifecycle of a single-player tiebreaker.
type TiebreakerStatus string

const (
	TiebreakerPending  TiebreakerStatus = "pending"
	TiebreakerActive   TiebreakerStatus = "active"
	TiebreakerResolved TiebreakerStatus = "resolved"
)

// BulkTiebreakerStatus is the lifecycle of a Last Person Standing auction.
type BulkTiebreakerStatus string

const (
	BulkTiebreakerActive   BulkTiebreakerStatus = "active"
	BulkTiebreakerResolved BulkTiebreakerStatus = "resolved"
)

// BulkTeamStatus is a participant's state inside a Last Person Standing
// auction.
type BulkTeamStatus string

const (
	BulkTeamActive     BulkTeamStatus = "active"
	BulkTeamEliminated BulkTeamStatus = "eliminated"
	BulkTeamWithdrawn  BulkTeamStatus = "withdrawn"
)

// AllocationPhase records how an allocation was produced.
type AllocationPhase string

const (
	PhaseRegular    AllocationPhase = "regular"
	PhaseTiebreaker AllocationPhase = "tiebreaker"
	PhaseIncomplete AllocationPhase = "incomplete"
	PhaseSynthetic  AllocationPhase = "synthetic"
)
