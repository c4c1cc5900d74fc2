package auctiondb

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
)

// Every method takes a bun.IDB so callers can scope a group of writes to
// one transaction via db.RunInTx.

// RoundDB covers rounds, round players, participants, and the bid ledger.
type RoundDB interface {
	GetRound(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) (*Round, error)
	// UpdateRoundStatus performs a guarded compare-and-swap on the stored
	// status. Returns ErrConditionFailed when the round is no longer in
	// the expected status.
	UpdateRoundStatus(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, from, to auctiontypes.RoundStatus) error
	ListBids(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) ([]Bid, error)
	// MarkBidStatuses marks the given bids won and every other still
	// active bid in the round lost.
	MarkBidStatuses(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, won []auctiontypes.BidID) error
	ListRoundPlayers(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) ([]RoundPlayer, error)
	SetRoundPlayerStatus(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, playerID auctiontypes.PlayerID, status auctiontypes.RoundPlayerStatus) error
	// SetRoundPlayerWinner transitions the player to allocated with the
	// winning team and final price.
	SetRoundPlayerWinner(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, playerID auctiontypes.PlayerID, teamID auctiontypes.TeamID, price decimal.Decimal) error
	ListParticipants(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) ([]RoundParticipant, error)
	ListUnsoldPlayers(ctx context.Context, db bun.IDB, seasonID auctiontypes.SeasonID, position auctiontypes.Position) ([]Player, error)
	MarkPlayerSold(ctx context.Context, db bun.IDB, playerID auctiontypes.PlayerID) error
	// LatestBidOutsideRound returns the team's most recent bid amount for
	// the player in any other round, decrypted by the caller. Nil when
	// none exists.
	LatestBidOutsideRound(ctx context.Context, db bun.IDB, teamID auctiontypes.TeamID, playerID auctiontypes.PlayerID, excludeRound auctiontypes.RoundID) (*Bid, error)
}

// TiebreakerDB covers single-player tiebreakers and their team rows.
type TiebreakerDB interface {
	CreateTiebreaker(ctx context.Context, db bun.IDB, tb *Tiebreaker, teams []TeamTiebreaker) error
	GetTiebreaker(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID) (*Tiebreaker, error)
	GetOpenTiebreakerForPlayer(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, playerID auctiontypes.PlayerID) (*Tiebreaker, error)
	ListTeamTiebreakers(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID) ([]TeamTiebreaker, error)
	// SubmitTeamBid records a team's single sealed raise. Returns
	// ErrConditionFailed when the team already submitted.
	SubmitTeamBid(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, amount decimal.Decimal) error
	// ResolveTiebreaker flips the tiebreaker to resolved and marks all of
	// its team rows resolved.
	ResolveTiebreaker(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID) error
	CountUnresolvedForRound(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) (int, error)
}

// BulkTiebreakerDB covers Last Person Standing auctions.
type BulkTiebreakerDB interface {
	CreateBulkTiebreaker(ctx context.Context, db bun.IDB, tb *BulkTiebreaker, teams []BulkTiebreakerTeam) error
	GetBulkTiebreaker(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID) (*BulkTiebreaker, error)
	ListBulkTeams(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID) ([]BulkTiebreakerTeam, error)
	// RaiseBid conditionally installs a new highest bid; the update only
	// matches while the auction is active and amount is strictly above
	// the stored highest. Returns ErrConditionFailed otherwise.
	RaiseBid(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, amount decimal.Decimal, now time.Time) error
	// MarkTeamOut flips an active participant to eliminated/withdrawn and
	// atomically decrements teams_remaining, returning the new count.
	MarkTeamOut(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, status auctiontypes.BulkTeamStatus, now time.Time) (int, error)
	// ResolveIfDone is the single conditional update that decides the
	// auction: it flips status to resolved only while teams_remaining <= 1
	// and status is still active. Returns true iff this call won the flip.
	ResolveIfDone(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID, now time.Time) (bool, error)
	SetBulkWinner(ctx context.Context, db bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, amount decimal.Decimal) error
	CountActiveForRound(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) (int, error)
}

// AllocationDB covers staging, durable allocations, the ledger writer,
// and the audit log.
type AllocationDB interface {
	// ReplacePending deletes any staged rows for the round and inserts
	// the new set, keeping re-preview idempotent.
	ReplacePending(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, rows []PendingAllocation) error
	// ListPending returns staged rows in insertion order.
	ListPending(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) ([]PendingAllocation, error)
	DeletePending(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) error
	InsertAllocation(ctx context.Context, db bun.IDB, alloc *Allocation) error
	// DebitBudget decrements the team budget in place and writes the
	// paired transaction-log entry.
	DebitBudget(ctx context.Context, db bun.IDB, teamID auctiontypes.TeamID, roundID auctiontypes.RoundID, amount decimal.Decimal, reason string) error
	InsertAuditLog(ctx context.Context, db bun.IDB, entry *AuditLog) error
}
