package auctionservice

import (
	"context"
	"fmt"
	"log/slog"

	auctiondb "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories"
	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
)

// resolution is the outcome of scanning all bids for a round: one
// winning bid per uncontested player, the ties that block settlement,
// and the players nobody bid on.
type resolution struct {
	winners map[auctiontypes.PlayerID]auctiondb.Bid
	ties    []auctiontypes.PlayerTie
	unbid   []auctiondb.RoundPlayer
}

// decryptBids opens every sealed amount. Decryption is an external call
// with bounded latency; any failure aborts settlement rather than
// guessing at an amount.
func (s *SettlementService) decryptBids(bids []auctiondb.Bid) ([]auctiondb.Bid, error) {
	out := make([]auctiondb.Bid, len(bids))
	for i, bid := range bids {
		amount, err := s.cipher.Decrypt(bid.EncryptedAmount)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt bid %s: %w", bid.ID, err)
		}
		bid.DecryptedAmount = amount
		out[i] = bid
	}
	return out, nil
}

// resolveWinners applies the single-winner rule per player. Bids must
// already be decrypted and sorted by submission time so tied teams keep
// their original bid order.
func (s *SettlementService) resolveWinners(ctx context.Context, players []auctiondb.RoundPlayer, bids []auctiondb.Bid, teamNames map[auctiontypes.TeamID]string) *resolution {
	byPlayer := make(map[auctiontypes.PlayerID][]auctiondb.Bid, len(players))
	for _, bid := range bids {
		byPlayer[bid.PlayerID] = append(byPlayer[bid.PlayerID], bid)
	}

	res := &resolution{winners: make(map[auctiontypes.PlayerID]auctiondb.Bid)}
	for _, player := range players {
		if player.Status != auctiontypes.RoundPlayerPending {
			continue
		}
		playerBids := byPlayer[player.PlayerID]
		if len(playerBids) == 0 {
			res.unbid = append(res.unbid, player)
			continue
		}

		max := playerBids[0].DecryptedAmount
		for _, bid := range playerBids[1:] {
			if bid.DecryptedAmount.GreaterThan(max) {
				max = bid.DecryptedAmount
			}
		}

		var top []auctiondb.Bid
		for _, bid := range playerBids {
			if bid.DecryptedAmount.Equal(max) {
				top = append(top, bid)
			}
		}

		if len(top) == 1 {
			res.winners[player.PlayerID] = top[0]
			continue
		}

		tie := auctiontypes.PlayerTie{PlayerID: player.PlayerID, Amount: max}
		for _, bid := range top {
			tie.Teams = append(tie.Teams, auctiontypes.TiedTeam{
				TeamID:   bid.TeamID,
				TeamName: teamNames[bid.TeamID],
			})
			tie.BidIDs = append(tie.BidIDs, bid.ID)
		}
		res.ties = append(res.ties, tie)
	}
	s.logger.DebugContext(ctx, "Winner resolution complete",
		slog.Int("winners", len(res.winners)),
		slog.Int("ties", len(res.ties)),
		slog.Int("unbid", len(res.unbid)),
	)
	return res
}
