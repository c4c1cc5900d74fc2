package auctiontypes

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ID types for the auction domain. Kept distinct so a round ID can never
// be passed where a team ID is expected.
type (
	RoundID      uuid.UUID
	SeasonID     uuid.UUID
	TeamID       uuid.UUID
	PlayerID     uuid.UUID
	BidID        uuid.UUID
	TiebreakerID uuid.UUID
)

func (id RoundID) String() string      { return uuid.UUID(id).String() }
func (id SeasonID) String() string     { return uuid.UUID(id).String() }
func (id TeamID) String() string       { return uuid.UUID(id).String() }
func (id PlayerID) String() string     { return uuid.UUID(id).String() }
func (id BidID) String() string        { return uuid.UUID(id).String() }
func (id TiebreakerID) String() string { return uuid.UUID(id).String() }

// Money is the amount type used for bids, budgets, and prices.
// Decimal avoids float drift when averaging winning prices.
type Money = decimal.Decimal

// Position is the player position/category a round auctions (e.g. "batsman").
type Position string

// FinalizationMode controls whether a round settles on operator action
// or in a single automatic call.
type FinalizationMode string

const (
	FinalizationAutomatic FinalizationMode = "automatic"
	FinalizationManual    FinalizationMode = "manual"
)

// TiedTeam identifies one team inside a tie, ordered by original bid
// submission time.
type TiedTeam struct {
	TeamID   TeamID `json:"team_id"`
	TeamName string `json:"team_name"`
}

// PlayerTie describes one contested player: every bid that shares the
// maximum amount for that player.
type PlayerTie struct {
	PlayerID PlayerID   `json:"player_id"`
	Amount   Money      `json:"amount"`
	Teams    []TiedTeam `json:"teams"`
	BidIDs   []BidID    `json:"bid_ids"`
}
