package auctionevents

import (
	"time"

	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
)

// Topics published by the settlement engine. Delivery is best-effort;
// settlement never rolls back because a publish failed.
const (
	TiebreakerCreated      = "auction.tiebreaker.created"
	BulkTiebreakerCreated  = "auction.bulk_tiebreaker.created"
	BulkTiebreakerResolved = "auction.bulk_tiebreaker.resolved"
	RoundPreviewed         = "auction.round.previewed"
	RoundFinalized         = "auction.round.finalized"
	PreviewCancelled       = "auction.preview.cancelled"
)

// TiebreakerCreatedPayload is published when a tie interrupts settlement
// and a secondary bidding round is opened.
type TiebreakerCreatedPayload struct {
	TiebreakerID   auctiontypes.TiebreakerID `json:"tiebreaker_id"`
	RoundID        auctiontypes.RoundID      `json:"round_id"`
	PlayerID       auctiontypes.PlayerID     `json:"player_id"`
	OriginalAmount auctiontypes.Money        `json:"original_amount"`
	TiedTeams      []auctiontypes.TiedTeam   `json:"tied_teams"`
	Deadline       time.Time                 `json:"deadline"`
}

// BulkTiebreakerCreatedPayload is published when a Last Person Standing
// auction opens for a player contested in a bulk round.
type BulkTiebreakerCreatedPayload struct {
	TiebreakerID auctiontypes.TiebreakerID `json:"tiebreaker_id"`
	RoundID      auctiontypes.RoundID      `json:"round_id"`
	PlayerID     auctiontypes.PlayerID     `json:"player_id"`
	OpeningBid   auctiontypes.Money        `json:"opening_bid"`
	TiedTeams    []auctiontypes.TiedTeam   `json:"tied_teams"`
	MaxEndTime   time.Time                 `json:"max_end_time"`
}

// BulkTiebreakerResolvedPayload is published exactly once, when a Last
// Person Standing auction reaches its terminal state.
type BulkTiebreakerResolvedPayload struct {
	TiebreakerID auctiontypes.TiebreakerID `json:"tiebreaker_id"`
	RoundID      auctiontypes.RoundID      `json:"round_id"`
	PlayerID     auctiontypes.PlayerID     `json:"player_id"`
	WinnerTeamID auctiontypes.TeamID       `json:"winner_team_id"`
	WinningBid   auctiontypes.Money        `json:"winning_bid"`
}

// RoundPreviewedPayload is published after allocations are staged for
// operator review.
type RoundPreviewedPayload struct {
	RoundID         auctiontypes.RoundID `json:"round_id"`
	OperatorID      string               `json:"operator_id"`
	AllocationCount int                  `json:"allocation_count"`
}

// RoundFinalizedPayload is published after Apply commits a round.
type RoundFinalizedPayload struct {
	RoundID         auctiontypes.RoundID `json:"round_id"`
	OperatorID      string               `json:"operator_id"`
	AllocationCount int                  `json:"allocation_count"`
}

// PreviewCancelledPayload is published when staged allocations are
// discarded so the round can be re-previewed.
type PreviewCancelledPayload struct {
	RoundID    auctiontypes.RoundID `json:"round_id"`
	OperatorID string               `json:"operator_id"`
}
