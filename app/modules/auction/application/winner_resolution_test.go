package auctionservice

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
	auctiondb "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories"
)

func TestResolveWinnersSingleWinnerRule(t *testing.T) {
	env := newTestEnv()

	round := env.addRound(false)
	teamA := env.addTeam(round.ID, "Alpha", 1000, 1)
	teamB := env.addTeam(round.ID, "Bravo", 1000, 1)
	contested := env.addRoundPlayer(round.ID, "Contested")
	clearWin := env.addRoundPlayer(round.ID, "Clear")
	unbid := env.addRoundPlayer(round.ID, "Unbid")
	env.addBid(round.ID, teamA, contested, 100)
	env.addBid(round.ID, teamB, contested, 100)
	env.addBid(round.ID, teamA, clearWin, 80)
	env.addBid(round.ID, teamB, clearWin, 70)

	bids, err := env.svc.decryptBids(env.store.bids)
	if err != nil {
		t.Fatalf("decryptBids() error = %v", err)
	}
	names := map[auctiontypes.TeamID]string{teamA: "Alpha", teamB: "Bravo"}
	res := env.svc.resolveWinners(context.Background(), env.store.roundPlayers, bids, names)

	if len(res.winners) != 1 {
		t.Fatalf("winners = %d, want 1", len(res.winners))
	}
	win := res.winners[clearWin]
	if win.TeamID != teamA || !win.DecryptedAmount.Equal(money(80)) {
		t.Errorf("winner = %+v, want teamA at 80", win)
	}

	if len(res.ties) != 1 {
		t.Fatalf("ties = %d, want 1", len(res.ties))
	}
	tie := res.ties[0]
	if tie.PlayerID != contested || !tie.Amount.Equal(money(100)) {
		t.Errorf("tie = %+v, want contested player at 100", tie)
	}
	wantTeams := []auctiontypes.TiedTeam{
		{TeamID: teamA, TeamName: "Alpha"},
		{TeamID: teamB, TeamName: "Bravo"},
	}
	if diff := cmp.Diff(wantTeams, tie.Teams); diff != "" {
		t.Errorf("tied teams mismatch (-want +got):\n%s", diff)
	}
	if len(tie.BidIDs) != 2 {
		t.Errorf("tied bid ids = %d, want 2", len(tie.BidIDs))
	}

	if len(res.unbid) != 1 || res.unbid[0].PlayerID != unbid {
		t.Errorf("unbid = %+v, want the player nobody bid on", res.unbid)
	}
}

// Players already settled by a tiebreaker are out of scope for the scan.
func TestResolveWinnersSkipsNonPendingPlayers(t *testing.T) {
	env := newTestEnv()

	round := env.addRound(false)
	teamA := env.addTeam(round.ID, "Alpha", 1000, 1)
	player := env.addRoundPlayer(round.ID, "Settled")
	env.store.roundPlayers[0].Status = auctiontypes.RoundPlayerAllocated
	env.addBid(round.ID, teamA, player, 100)

	bids, err := env.svc.decryptBids(env.store.bids)
	if err != nil {
		t.Fatalf("decryptBids() error = %v", err)
	}
	res := env.svc.resolveWinners(context.Background(), env.store.roundPlayers, bids, nil)

	if len(res.winners) != 0 || len(res.ties) != 0 || len(res.unbid) != 0 {
		t.Errorf("resolution = %+v, want the allocated player ignored entirely", res)
	}
}

func TestDecryptBidsFailureAbortsSettlement(t *testing.T) {
	env := newTestEnv()

	bids := []auctiondb.Bid{{
		ID:              auctiontypes.BidID(env.svc.newID()),
		EncryptedAmount: []byte("not a number"),
	}}
	if _, err := env.svc.decryptBids(bids); err == nil {
		t.Fatal("decryptBids() error = nil, want failure on undecryptable amount")
	}
}
