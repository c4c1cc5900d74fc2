package auctionservice

import (
	"context"

	"github.com/shopspring/decimal"

	auctiondb "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories"
	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
)

// Service defines the settlement engine operations.
type Service interface {
	// Preview/Apply workflow
	PreviewRound(ctx context.Context, operatorID string, roundID auctiontypes.RoundID) ([]auctiondb.PendingAllocation, error)
	ApplyRound(ctx context.Context, operatorID string, roundID auctiontypes.RoundID) (int, error)
	CancelPreview(ctx context.Context, operatorID string, roundID auctiontypes.RoundID) error
	FinalizeAutomatic(ctx context.Context, operatorID string, roundID auctiontypes.RoundID) (int, error)

	// Single tiebreaker
	SubmitTiebreakerBid(ctx context.Context, teamID auctiontypes.TeamID, tiebreakerID auctiontypes.TiebreakerID, amount decimal.Decimal) error
	ResolveTiebreaker(ctx context.Context, operatorID string, tiebreakerID auctiontypes.TiebreakerID) (*TiebreakerOutcome, error)

	// Bulk tiebreaker (Last Person Standing)
	RaiseBulkBid(ctx context.Context, teamID auctiontypes.TeamID, tiebreakerID auctiontypes.TiebreakerID, amount decimal.Decimal) error
	WithdrawBulkTeam(ctx context.Context, teamID auctiontypes.TeamID, tiebreakerID auctiontypes.TiebreakerID) error
	ForceResolveBulk(ctx context.Context, operatorID string, tiebreakerID auctiontypes.TiebreakerID) error
}

// TiebreakerOutcome reports how a single tiebreaker resolved. Exactly
// one of Winner or NewTiebreakerID is set: a fresh tie among the raised
// bids spawns a recursive tiebreaker instead of a winner.
type TiebreakerOutcome struct {
	Winner          *auctiontypes.TeamID
	WinningAmount   decimal.Decimal
	NewTiebreakerID *auctiontypes.TiebreakerID
}
