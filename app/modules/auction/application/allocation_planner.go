package auctionservice

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
	auctiondb "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories"
)

// planFallbacks fills the gaps normal bidding left behind.
//
// Incomplete phase: a registered participant that bid elsewhere in the
// round but skipped a player it still owes a slot for gets that player
// at the round's average regular winning price.
//
// Synthetic phase: a participant with no valid bids anywhere in the
// round gets a random unsold player from the position pool, at the same
// average price.
//
// Neither phase may hand a team more slots than it is owed, and neither
// may touch a player already claimed by a regular or tiebreaker winner.
func (s *SettlementService) planFallbacks(
	ctx context.Context,
	round *auctiondb.Round,
	participants []auctiondb.RoundParticipant,
	bids []auctiondb.Bid,
	unbid []auctiondb.RoundPlayer,
	staged []auctiondb.PendingAllocation,
) ([]auctiondb.PendingAllocation, error) {
	avg := averageRegularPrice(staged, round.BasePrice)

	owed := make(map[auctiontypes.TeamID]int, len(participants))
	for _, p := range participants {
		owed[p.TeamID] = p.SlotsOwed
	}
	for _, row := range staged {
		owed[row.TeamID]--
	}

	hasBid := make(map[auctiontypes.TeamID]bool)
	bidOnPlayer := make(map[auctiontypes.TeamID]map[auctiontypes.PlayerID]bool)
	for _, bid := range bids {
		hasBid[bid.TeamID] = true
		if bidOnPlayer[bid.TeamID] == nil {
			bidOnPlayer[bid.TeamID] = make(map[auctiontypes.PlayerID]bool)
		}
		bidOnPlayer[bid.TeamID][bid.PlayerID] = true
	}

	claimed := make(map[auctiontypes.PlayerID]bool, len(staged))
	for _, row := range staged {
		claimed[row.PlayerID] = true
	}

	// Incomplete phase: hand each unbid player to the first participant,
	// in registration order, that bid in this round, still owes a slot,
	// and did not bid on this player.
	for _, player := range unbid {
		if claimed[player.PlayerID] {
			continue
		}
		for _, p := range participants {
			if owed[p.TeamID] <= 0 || !hasBid[p.TeamID] || bidOnPlayer[p.TeamID][player.PlayerID] {
				continue
			}
			note, err := s.incompleteNote(ctx, p.TeamID, player.PlayerID, round.ID)
			if err != nil {
				return nil, err
			}
			staged = append(staged, auctiondb.PendingAllocation{
				RoundID:  round.ID,
				TeamID:   p.TeamID,
				PlayerID: player.PlayerID,
				Amount:   avg,
				Phase:    auctiontypes.PhaseIncomplete,
				Note:     note,
			})
			claimed[player.PlayerID] = true
			owed[p.TeamID]--
			break
		}
	}

	// Synthetic phase: teams with no valid bids anywhere draw from the
	// unsold position pool.
	var pool []auctiondb.Player
	for _, p := range participants {
		if hasBid[p.TeamID] || owed[p.TeamID] <= 0 {
			continue
		}
		if pool == nil {
			var err error
			pool, err = s.roundDB.ListUnsoldPlayers(ctx, s.db, round.SeasonID, round.Position)
			if err != nil {
				return nil, err
			}
		}
		for owed[p.TeamID] > 0 {
			player, ok := s.drawUnclaimed(pool, claimed)
			if !ok {
				// Pool exhausted; the team keeps its open slot.
				break
			}
			staged = append(staged, auctiondb.PendingAllocation{
				RoundID:  round.ID,
				TeamID:   p.TeamID,
				PlayerID: player.ID,
				Amount:   avg,
				Phase:    auctiontypes.PhaseSynthetic,
				Note:     fmt.Sprintf("synthetic allocation: no valid bids from team in round %s", round.ID),
			})
			claimed[player.ID] = true
			owed[p.TeamID]--
		}
	}

	return staged, nil
}

// averageRegularPrice is the mean of phase=regular staged amounts,
// falling back to the round base price when no regular winner exists.
func averageRegularPrice(staged []auctiondb.PendingAllocation, basePrice decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	count := 0
	for _, row := range staged {
		if row.Phase == auctiontypes.PhaseRegular {
			sum = sum.Add(row.Amount)
			count++
		}
	}
	if count == 0 {
		return basePrice
	}
	return sum.Div(decimal.NewFromInt(int64(count)))
}

// incompleteNote explains the fallback, referencing the team's most
// recent bid on the player from another round when one exists.
func (s *SettlementService) incompleteNote(ctx context.Context, teamID auctiontypes.TeamID, playerID auctiontypes.PlayerID, roundID auctiontypes.RoundID) (string, error) {
	prior, err := s.roundDB.LatestBidOutsideRound(ctx, s.db, teamID, playerID, roundID)
	if err != nil {
		return "", err
	}
	if prior == nil {
		return "incomplete allocation: no bid submitted for this player", nil
	}
	amount, err := s.cipher.Decrypt(prior.EncryptedAmount)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt prior bid %s: %w", prior.ID, err)
	}
	return fmt.Sprintf("incomplete allocation: no bid in this round; prior out-of-round bid was %s", amount), nil
}

// drawUnclaimed picks a random still-unclaimed player from the pool.
func (s *SettlementService) drawUnclaimed(pool []auctiondb.Player, claimed map[auctiontypes.PlayerID]bool) (auctiondb.Player, bool) {
	var open []auctiondb.Player
	for _, p := range pool {
		if !claimed[p.ID] {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return auctiondb.Player{}, false
	}
	return open[s.randIntn(len(open))], true
}
