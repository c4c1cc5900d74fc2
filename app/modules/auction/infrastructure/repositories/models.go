package auctiondb

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
)

// Round is a timed bidding window for one position pool.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	ID               auctiontypes.RoundID          `bun:"id,pk,type:uuid"`
	SeasonID         auctiontypes.SeasonID         `bun:"season_id,notnull,type:uuid"`
	Position         auctiontypes.Position         `bun:"position,notnull"`
	BasePrice        decimal.Decimal               `bun:"base_price,notnull,type:numeric"`
	Status           auctiontypes.RoundStatus      `bun:"status,notnull"`
	FinalizationMode auctiontypes.FinalizationMode `bun:"finalization_mode,notnull,default:'manual'"`
	Bulk             bool                          `bun:"bulk,notnull,default:false"`
	EndTime          time.Time                     `bun:"end_time,notnull"`
	CreatedAt        time.Time                     `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time                     `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// RoundPlayer is a player eligible in a round.
type RoundPlayer struct {
	bun.BaseModel `bun:"table:round_players,alias:rp"`

	ID            int64                          `bun:"id,pk,autoincrement"`
	RoundID       auctiontypes.RoundID           `bun:"round_id,notnull,type:uuid"`
	PlayerID      auctiontypes.PlayerID          `bun:"player_id,notnull,type:uuid"`
	PlayerName    string                         `bun:"player_name,notnull"`
	Status        auctiontypes.RoundPlayerStatus `bun:"status,notnull,default:'pending'"`
	WinningTeamID *auctiontypes.TeamID           `bun:"winning_team_id,nullzero,type:uuid"`
	FinalPrice    *decimal.Decimal               `bun:"final_price,nullzero,type:numeric"`
}

// Bid is a team's sealed offer for one player in one round. The amount
// is stored encrypted and decrypted only after round close.
type Bid struct {
	bun.BaseModel `bun:"table:bids,alias:b"`

	ID              auctiontypes.BidID     `bun:"id,pk,type:uuid"`
	RoundID         auctiontypes.RoundID   `bun:"round_id,notnull,type:uuid"`
	TeamID          auctiontypes.TeamID    `bun:"team_id,notnull,type:uuid"`
	PlayerID        auctiontypes.PlayerID  `bun:"player_id,notnull,type:uuid"`
	EncryptedAmount []byte                 `bun:"encrypted_amount,notnull"`
	SubmittedAt     time.Time              `bun:"submitted_at,notnull"`
	Status          auctiontypes.BidStatus `bun:"status,notnull,default:'active'"`

	// DecryptedAmount is derived after round close; never persisted.
	DecryptedAmount decimal.Decimal `bun:"-"`
}

// Team holds the budget the ledger writer debits on Apply.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID     auctiontypes.TeamID `bun:"id,pk,type:uuid"`
	Name   string              `bun:"name,notnull"`
	Budget decimal.Decimal     `bun:"budget,notnull,type:numeric"`
}

// RoundParticipant registers a team in a round with the number of
// roster slots it still owes for the round's position.
type RoundParticipant struct {
	bun.BaseModel `bun:"table:round_participants,alias:rpt"`

	RoundID   auctiontypes.RoundID `bun:"round_id,pk,type:uuid"`
	TeamID    auctiontypes.TeamID  `bun:"team_id,pk,type:uuid"`
	TeamName  string               `bun:"team_name,notnull"`
	SlotsOwed int                  `bun:"slots_owed,notnull,default:1"`
}

// Player is the league-wide player record; Sold flips when any round
// allocates the player.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID       auctiontypes.PlayerID `bun:"id,pk,type:uuid"`
	SeasonID auctiontypes.SeasonID `bun:"season_id,notnull,type:uuid"`
	Name     string                `bun:"name,notnull"`
	Position auctiontypes.Position `bun:"position,notnull"`
	Sold     bool                  `bun:"sold,notnull,default:false"`
}

// Tiebreaker is a secondary fixed-window sealed round among exactly the
// teams that tied for a player.
type Tiebreaker struct {
	bun.BaseModel `bun:"table:tiebreakers,alias:tb"`

	ID             auctiontypes.TiebreakerID     `bun:"id,pk,type:uuid"`
	RoundID        auctiontypes.RoundID          `bun:"round_id,notnull,type:uuid"`
	PlayerID       auctiontypes.PlayerID         `bun:"player_id,notnull,type:uuid"`
	OriginalAmount decimal.Decimal               `bun:"original_amount,notnull,type:numeric"`
	TiedTeams      []auctiontypes.TiedTeam       `bun:"tied_teams,notnull,type:jsonb"`
	Status         auctiontypes.TiebreakerStatus `bun:"status,notnull,default:'pending'"`
	Deadline       time.Time                     `bun:"deadline,notnull"`
	CreatedAt      time.Time                     `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// TeamTiebreaker is one team's single-shot entry in a Tiebreaker.
type TeamTiebreaker struct {
	bun.BaseModel `bun:"table:team_tiebreakers,alias:ttb"`

	TiebreakerID auctiontypes.TiebreakerID `bun:"tiebreaker_id,pk,type:uuid"`
	TeamID       auctiontypes.TeamID       `bun:"team_id,pk,type:uuid"`
	Submitted    bool                      `bun:"submitted,notnull,default:false"`
	NewBidAmount *decimal.Decimal          `bun:"new_bid_amount,nullzero,type:numeric"`
	Resolved     bool                      `bun:"resolved,notnull,default:false"`
}

// BulkTiebreaker is a running Last Person Standing auction. Terminal
// state is reached the instant TeamsRemaining == 1.
type BulkTiebreaker struct {
	bun.BaseModel `bun:"table:bulk_tiebreakers,alias:btb"`

	ID                   auctiontypes.TiebreakerID         `bun:"id,pk,type:uuid"`
	BulkRoundID          auctiontypes.RoundID              `bun:"bulk_round_id,notnull,type:uuid"`
	PlayerID             auctiontypes.PlayerID             `bun:"player_id,notnull,type:uuid"`
	Status               auctiontypes.BulkTiebreakerStatus `bun:"status,notnull,default:'active'"`
	CurrentHighestBid    decimal.Decimal                   `bun:"current_highest_bid,notnull,type:numeric"`
	CurrentHighestTeamID *auctiontypes.TeamID              `bun:"current_highest_team_id,nullzero,type:uuid"`
	TeamsRemaining       int                               `bun:"teams_remaining,notnull"`
	StartTime            time.Time                         `bun:"start_time,notnull"`
	LastActivityTime     time.Time                         `bun:"last_activity_time,notnull"`
	MaxEndTime           time.Time                         `bun:"max_end_time,notnull"`
	ResolvedAt           *time.Time                        `bun:"resolved_at,nullzero"`
}

// BulkTiebreakerTeam is a participant row owned exclusively by its
// BulkTiebreaker; resolving the tiebreaker finalizes all of them.
type BulkTiebreakerTeam struct {
	bun.BaseModel `bun:"table:bulk_tiebreaker_teams,alias:btt"`

	TiebreakerID auctiontypes.TiebreakerID   `bun:"tiebreaker_id,pk,type:uuid"`
	TeamID       auctiontypes.TeamID         `bun:"team_id,pk,type:uuid"`
	Status       auctiontypes.BulkTeamStatus `bun:"status,notnull,default:'active'"`
	CurrentBid   decimal.Decimal             `bun:"current_bid,notnull,type:numeric"`
}

// PendingAllocation is the staging record between Preview and
// Apply/Cancel. Rows are deleted and regenerated on every re-preview;
// the autoincrement ID gives Apply its stable processing order.
type PendingAllocation struct {
	bun.BaseModel `bun:"table:pending_allocations,alias:pa"`

	ID       int64                        `bun:"id,pk,autoincrement"`
	RoundID  auctiontypes.RoundID         `bun:"round_id,notnull,type:uuid"`
	TeamID   auctiontypes.TeamID          `bun:"team_id,notnull,type:uuid"`
	PlayerID auctiontypes.PlayerID        `bun:"player_id,notnull,type:uuid"`
	Amount   decimal.Decimal              `bun:"amount,notnull,type:numeric"`
	BidID    *auctiontypes.BidID          `bun:"bid_id,nullzero,type:uuid"`
	Phase    auctiontypes.AllocationPhase `bun:"phase,notnull"`
	Note     string                       `bun:"note,nullzero"`
}

// Allocation is the durable settlement result: a roster assignment plus
// its ledger transaction. Created only by Apply.
type Allocation struct {
	bun.BaseModel `bun:"table:allocations,alias:a"`

	ID        int64                        `bun:"id,pk,autoincrement"`
	RoundID   auctiontypes.RoundID         `bun:"round_id,notnull,type:uuid"`
	TeamID    auctiontypes.TeamID          `bun:"team_id,notnull,type:uuid"`
	PlayerID  auctiontypes.PlayerID        `bun:"player_id,notnull,type:uuid"`
	Amount    decimal.Decimal              `bun:"amount,notnull,type:numeric"`
	Phase     auctiontypes.AllocationPhase `bun:"phase,notnull"`
	Note      string                       `bun:"note,nullzero"`
	CreatedAt time.Time                    `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// TransactionLog pairs every budget mutation with an auditable entry so
// balances are reconstructible from the log alone.
type TransactionLog struct {
	bun.BaseModel `bun:"table:transaction_log,alias:tl"`

	ID        int64                `bun:"id,pk,autoincrement"`
	TeamID    auctiontypes.TeamID  `bun:"team_id,notnull,type:uuid"`
	RoundID   auctiontypes.RoundID `bun:"round_id,notnull,type:uuid"`
	Amount    decimal.Decimal      `bun:"amount,notnull,type:numeric"`
	Reason    string               `bun:"reason,notnull"`
	CreatedAt time.Time            `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// AuditLog records one entry per Preview and one per Apply.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_log,alias:al"`

	ID              int64                `bun:"id,pk,autoincrement"`
	OperatorID      string               `bun:"operator_id,notnull"`
	Action          string               `bun:"action,notnull"`
	RoundID         auctiontypes.RoundID `bun:"round_id,notnull,type:uuid"`
	AllocationCount int                  `bun:"allocation_count,notnull"`
	CreatedAt       time.Time            `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
