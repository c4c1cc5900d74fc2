package auctionservice

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
	auctiondb "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories"
)

// ------------------------
// Fake transactional DB
// ------------------------

// FakeDB satisfies the DB interface. RunInTx snapshots the backing
// store and restores it when the function fails, mirroring a real
// rollback so atomicity is observable in tests.
type FakeDB struct {
	bun.IDB
	store *FakeStore
}

func (f *FakeDB) RunInTx(ctx context.Context, _ *sql.TxOptions, fn func(context.Context, bun.Tx) error) error {
	snapshot := f.store.clone()
	if err := fn(ctx, bun.Tx{}); err != nil {
		f.store.restore(snapshot)
		return err
	}
	return nil
}

// ------------------------
// Fake repositories
// ------------------------

type failure struct {
	call int // 1-based call number to fail on; 0 fails every call
	err  error
}

// FakeStore is an in-memory implementation of all four repository
// interfaces with the same conditional-update semantics as the bun
// implementations. Every call is appended to trace; failures can be
// injected per method.
type FakeStore struct {
	mu       sync.Mutex
	trace    []string
	calls    map[string]int
	failures map[string]failure

	rounds       map[auctiontypes.RoundID]auctiondb.Round
	roundPlayers []auctiondb.RoundPlayer
	bids         []auctiondb.Bid
	participants []auctiondb.RoundParticipant
	players      []auctiondb.Player
	tiebreakers  map[auctiontypes.TiebreakerID]auctiondb.Tiebreaker
	teamTB       map[auctiontypes.TiebreakerID][]auctiondb.TeamTiebreaker
	bulks        map[auctiontypes.TiebreakerID]auctiondb.BulkTiebreaker
	bulkTeams    map[auctiontypes.TiebreakerID][]auctiondb.BulkTiebreakerTeam
	pending      map[auctiontypes.RoundID][]auctiondb.PendingAllocation
	allocations  []auctiondb.Allocation
	budgets      map[auctiontypes.TeamID]decimal.Decimal
	txLog        []auctiondb.TransactionLog
	audits       []auctiondb.AuditLog
	nextSeq      int64
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		calls:       map[string]int{},
		failures:    map[string]failure{},
		rounds:      map[auctiontypes.RoundID]auctiondb.Round{},
		tiebreakers: map[auctiontypes.TiebreakerID]auctiondb.Tiebreaker{},
		teamTB:      map[auctiontypes.TiebreakerID][]auctiondb.TeamTiebreaker{},
		bulks:       map[auctiontypes.TiebreakerID]auctiondb.BulkTiebreaker{},
		bulkTeams:   map[auctiontypes.TiebreakerID][]auctiondb.BulkTiebreakerTeam{},
		pending:     map[auctiontypes.RoundID][]auctiondb.PendingAllocation{},
		budgets:     map[auctiontypes.TeamID]decimal.Decimal{},
	}
}

// FailOn makes the named method return err on its call-th invocation
// (counted from the moment of this call); call 0 fails every time.
func (f *FakeStore) FailOn(method string, call int, err error) {
	f.failures[method] = failure{call: call, err: err}
	f.calls[method] = 0
}

func (f *FakeStore) hook(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, name)
	f.calls[name]++
	if fail, ok := f.failures[name]; ok {
		if fail.call == 0 || fail.call == f.calls[name] {
			return fail.err
		}
	}
	return nil
}

func (f *FakeStore) Trace() []string { return f.trace }

func (f *FakeStore) clone() *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := NewFakeStore()
	for k, v := range f.rounds {
		c.rounds[k] = v
	}
	c.roundPlayers = append([]auctiondb.RoundPlayer(nil), f.roundPlayers...)
	c.bids = append([]auctiondb.Bid(nil), f.bids...)
	c.participants = append([]auctiondb.RoundParticipant(nil), f.participants...)
	c.players = append([]auctiondb.Player(nil), f.players...)
	for k, v := range f.tiebreakers {
		c.tiebreakers[k] = v
	}
	for k, v := range f.teamTB {
		c.teamTB[k] = append([]auctiondb.TeamTiebreaker(nil), v...)
	}
	for k, v := range f.bulks {
		c.bulks[k] = v
	}
	for k, v := range f.bulkTeams {
		c.bulkTeams[k] = append([]auctiondb.BulkTiebreakerTeam(nil), v...)
	}
	for k, v := range f.pending {
		c.pending[k] = append([]auctiondb.PendingAllocation(nil), v...)
	}
	c.allocations = append([]auctiondb.Allocation(nil), f.allocations...)
	for k, v := range f.budgets {
		c.budgets[k] = v
	}
	c.txLog = append([]auctiondb.TransactionLog(nil), f.txLog...)
	c.audits = append([]auctiondb.AuditLog(nil), f.audits...)
	c.nextSeq = f.nextSeq
	return c
}

func (f *FakeStore) restore(snapshot *FakeStore) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds = snapshot.rounds
	f.roundPlayers = snapshot.roundPlayers
	f.bids = snapshot.bids
	f.participants = snapshot.participants
	f.players = snapshot.players
	f.tiebreakers = snapshot.tiebreakers
	f.teamTB = snapshot.teamTB
	f.bulks = snapshot.bulks
	f.bulkTeams = snapshot.bulkTeams
	f.pending = snapshot.pending
	f.allocations = snapshot.allocations
	f.budgets = snapshot.budgets
	f.txLog = snapshot.txLog
	f.audits = snapshot.audits
	f.nextSeq = snapshot.nextSeq
}

// --- RoundDB ---

func (f *FakeStore) GetRound(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID) (*auctiondb.Round, error) {
	if err := f.hook("GetRound"); err != nil {
		return nil, err
	}
	round, ok := f.rounds[roundID]
	if !ok {
		return nil, auctiondb.ErrNotFound
	}
	out := round
	return &out, nil
}

func (f *FakeStore) UpdateRoundStatus(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID, from, to auctiontypes.RoundStatus) error {
	if err := f.hook("UpdateRoundStatus"); err != nil {
		return err
	}
	if !from.CanTransitionTo(to) {
		return auctiondb.ErrConditionFailed
	}
	round, ok := f.rounds[roundID]
	if !ok || round.Status != from {
		return auctiondb.ErrConditionFailed
	}
	round.Status = to
	f.rounds[roundID] = round
	return nil
}

func (f *FakeStore) ListBids(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID) ([]auctiondb.Bid, error) {
	if err := f.hook("ListBids"); err != nil {
		return nil, err
	}
	var out []auctiondb.Bid
	for _, bid := range f.bids {
		if bid.RoundID == roundID {
			out = append(out, bid)
		}
	}
	return out, nil
}

func (f *FakeStore) MarkBidStatuses(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID, won []auctiontypes.BidID) error {
	if err := f.hook("MarkBidStatuses"); err != nil {
		return err
	}
	wonSet := map[auctiontypes.BidID]bool{}
	for _, id := range won {
		wonSet[id] = true
	}
	for i := range f.bids {
		if f.bids[i].RoundID != roundID {
			continue
		}
		if wonSet[f.bids[i].ID] {
			f.bids[i].Status = auctiontypes.BidStatusWon
		} else if f.bids[i].Status == auctiontypes.BidStatusActive {
			f.bids[i].Status = auctiontypes.BidStatusLost
		}
	}
	return nil
}

func (f *FakeStore) ListRoundPlayers(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID) ([]auctiondb.RoundPlayer, error) {
	if err := f.hook("ListRoundPlayers"); err != nil {
		return nil, err
	}
	var out []auctiondb.RoundPlayer
	for _, p := range f.roundPlayers {
		if p.RoundID == roundID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *FakeStore) SetRoundPlayerStatus(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID, playerID auctiontypes.PlayerID, status auctiontypes.RoundPlayerStatus) error {
	if err := f.hook("SetRoundPlayerStatus"); err != nil {
		return err
	}
	for i := range f.roundPlayers {
		if f.roundPlayers[i].RoundID == roundID && f.roundPlayers[i].PlayerID == playerID {
			f.roundPlayers[i].Status = status
			return nil
		}
	}
	return auctiondb.ErrNotFound
}

func (f *FakeStore) SetRoundPlayerWinner(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID, playerID auctiontypes.PlayerID, teamID auctiontypes.TeamID, price decimal.Decimal) error {
	if err := f.hook("SetRoundPlayerWinner"); err != nil {
		return err
	}
	for i := range f.roundPlayers {
		if f.roundPlayers[i].RoundID == roundID && f.roundPlayers[i].PlayerID == playerID {
			f.roundPlayers[i].Status = auctiontypes.RoundPlayerAllocated
			f.roundPlayers[i].WinningTeamID = &teamID
			f.roundPlayers[i].FinalPrice = &price
			return nil
		}
	}
	return auctiondb.ErrNotFound
}

func (f *FakeStore) ListParticipants(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID) ([]auctiondb.RoundParticipant, error) {
	if err := f.hook("ListParticipants"); err != nil {
		return nil, err
	}
	var out []auctiondb.RoundParticipant
	for _, p := range f.participants {
		if p.RoundID == roundID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *FakeStore) ListUnsoldPlayers(_ context.Context, _ bun.IDB, seasonID auctiontypes.SeasonID, position auctiontypes.Position) ([]auctiondb.Player, error) {
	if err := f.hook("ListUnsoldPlayers"); err != nil {
		return nil, err
	}
	var out []auctiondb.Player
	for _, p := range f.players {
		if p.SeasonID == seasonID && p.Position == position && !p.Sold {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *FakeStore) MarkPlayerSold(_ context.Context, _ bun.IDB, playerID auctiontypes.PlayerID) error {
	if err := f.hook("MarkPlayerSold"); err != nil {
		return err
	}
	for i := range f.players {
		if f.players[i].ID == playerID {
			f.players[i].Sold = true
		}
	}
	return nil
}

func (f *FakeStore) LatestBidOutsideRound(_ context.Context, _ bun.IDB, teamID auctiontypes.TeamID, playerID auctiontypes.PlayerID, excludeRound auctiontypes.RoundID) (*auctiondb.Bid, error) {
	if err := f.hook("LatestBidOutsideRound"); err != nil {
		return nil, err
	}
	var latest *auctiondb.Bid
	for i := range f.bids {
		bid := f.bids[i]
		if bid.TeamID != teamID || bid.PlayerID != playerID || bid.RoundID == excludeRound {
			continue
		}
		if latest == nil || bid.SubmittedAt.After(latest.SubmittedAt) {
			out := bid
			latest = &out
		}
	}
	return latest, nil
}

// --- TiebreakerDB ---

func (f *FakeStore) CreateTiebreaker(_ context.Context, _ bun.IDB, tb *auctiondb.Tiebreaker, teams []auctiondb.TeamTiebreaker) error {
	if err := f.hook("CreateTiebreaker"); err != nil {
		return err
	}
	f.tiebreakers[tb.ID] = *tb
	f.teamTB[tb.ID] = append([]auctiondb.TeamTiebreaker(nil), teams...)
	return nil
}

func (f *FakeStore) GetTiebreaker(_ context.Context, _ bun.IDB, id auctiontypes.TiebreakerID) (*auctiondb.Tiebreaker, error) {
	if err := f.hook("GetTiebreaker"); err != nil {
		return nil, err
	}
	tb, ok := f.tiebreakers[id]
	if !ok {
		return nil, auctiondb.ErrNotFound
	}
	out := tb
	return &out, nil
}

func (f *FakeStore) GetOpenTiebreakerForPlayer(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID, playerID auctiontypes.PlayerID) (*auctiondb.Tiebreaker, error) {
	if err := f.hook("GetOpenTiebreakerForPlayer"); err != nil {
		return nil, err
	}
	for _, tb := range f.tiebreakers {
		if tb.RoundID == roundID && tb.PlayerID == playerID && tb.Status != auctiontypes.TiebreakerResolved {
			out := tb
			return &out, nil
		}
	}
	return nil, nil
}

func (f *FakeStore) ListTeamTiebreakers(_ context.Context, _ bun.IDB, id auctiontypes.TiebreakerID) ([]auctiondb.TeamTiebreaker, error) {
	if err := f.hook("ListTeamTiebreakers"); err != nil {
		return nil, err
	}
	return append([]auctiondb.TeamTiebreaker(nil), f.teamTB[id]...), nil
}

func (f *FakeStore) SubmitTeamBid(_ context.Context, _ bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, amount decimal.Decimal) error {
	if err := f.hook("SubmitTeamBid"); err != nil {
		return err
	}
	rows := f.teamTB[id]
	for i := range rows {
		if rows[i].TeamID == teamID && !rows[i].Submitted {
			rows[i].Submitted = true
			rows[i].NewBidAmount = &amount
			return nil
		}
	}
	return auctiondb.ErrConditionFailed
}

func (f *FakeStore) ResolveTiebreaker(_ context.Context, _ bun.IDB, id auctiontypes.TiebreakerID) error {
	if err := f.hook("ResolveTiebreaker"); err != nil {
		return err
	}
	tb, ok := f.tiebreakers[id]
	if !ok || tb.Status == auctiontypes.TiebreakerResolved {
		return auctiondb.ErrConditionFailed
	}
	tb.Status = auctiontypes.TiebreakerResolved
	f.tiebreakers[id] = tb
	rows := f.teamTB[id]
	for i := range rows {
		rows[i].Resolved = true
	}
	return nil
}

func (f *FakeStore) CountUnresolvedForRound(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID) (int, error) {
	if err := f.hook("CountUnresolvedForRound"); err != nil {
		return 0, err
	}
	count := 0
	for _, tb := range f.tiebreakers {
		if tb.RoundID == roundID && tb.Status != auctiontypes.TiebreakerResolved {
			count++
		}
	}
	return count, nil
}

// --- BulkTiebreakerDB ---

func (f *FakeStore) CreateBulkTiebreaker(_ context.Context, _ bun.IDB, tb *auctiondb.BulkTiebreaker, teams []auctiondb.BulkTiebreakerTeam) error {
	if err := f.hook("CreateBulkTiebreaker"); err != nil {
		return err
	}
	f.bulks[tb.ID] = *tb
	f.bulkTeams[tb.ID] = append([]auctiondb.BulkTiebreakerTeam(nil), teams...)
	return nil
}

func (f *FakeStore) GetBulkTiebreaker(_ context.Context, _ bun.IDB, id auctiontypes.TiebreakerID) (*auctiondb.BulkTiebreaker, error) {
	if err := f.hook("GetBulkTiebreaker"); err != nil {
		return nil, err
	}
	tb, ok := f.bulks[id]
	if !ok {
		return nil, auctiondb.ErrNotFound
	}
	out := tb
	return &out, nil
}

func (f *FakeStore) ListBulkTeams(_ context.Context, _ bun.IDB, id auctiontypes.TiebreakerID) ([]auctiondb.BulkTiebreakerTeam, error) {
	if err := f.hook("ListBulkTeams"); err != nil {
		return nil, err
	}
	return append([]auctiondb.BulkTiebreakerTeam(nil), f.bulkTeams[id]...), nil
}

func (f *FakeStore) RaiseBid(_ context.Context, _ bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, amount decimal.Decimal, now time.Time) error {
	if err := f.hook("RaiseBid"); err != nil {
		return err
	}
	tb, ok := f.bulks[id]
	if !ok || tb.Status != auctiontypes.BulkTiebreakerActive || !amount.GreaterThan(tb.CurrentHighestBid) {
		return auctiondb.ErrConditionFailed
	}
	standing := false
	for _, row := range f.bulkTeams[id] {
		if row.TeamID == teamID && row.Status == auctiontypes.BulkTeamActive {
			standing = true
		}
	}
	if !standing {
		return auctiondb.ErrConditionFailed
	}
	tb.CurrentHighestBid = amount
	tb.CurrentHighestTeamID = &teamID
	tb.LastActivityTime = now
	f.bulks[id] = tb
	rows := f.bulkTeams[id]
	for i := range rows {
		if rows[i].TeamID == teamID {
			rows[i].CurrentBid = amount
		}
	}
	return nil
}

func (f *FakeStore) MarkTeamOut(_ context.Context, _ bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, status auctiontypes.BulkTeamStatus, now time.Time) (int, error) {
	if err := f.hook("MarkTeamOut"); err != nil {
		return 0, err
	}
	rows := f.bulkTeams[id]
	flipped := false
	for i := range rows {
		if rows[i].TeamID == teamID && rows[i].Status == auctiontypes.BulkTeamActive {
			rows[i].Status = status
			flipped = true
		}
	}
	if !flipped {
		return 0, auctiondb.ErrConditionFailed
	}
	tb := f.bulks[id]
	tb.TeamsRemaining--
	tb.LastActivityTime = now
	f.bulks[id] = tb
	return tb.TeamsRemaining, nil
}

func (f *FakeStore) ResolveIfDone(_ context.Context, _ bun.IDB, id auctiontypes.TiebreakerID, now time.Time) (bool, error) {
	if err := f.hook("ResolveIfDone"); err != nil {
		return false, err
	}
	tb, ok := f.bulks[id]
	if !ok || tb.Status != auctiontypes.BulkTiebreakerActive || tb.TeamsRemaining > 1 {
		return false, nil
	}
	tb.Status = auctiontypes.BulkTiebreakerResolved
	tb.ResolvedAt = &now
	f.bulks[id] = tb
	return true, nil
}

func (f *FakeStore) SetBulkWinner(_ context.Context, _ bun.IDB, id auctiontypes.TiebreakerID, teamID auctiontypes.TeamID, amount decimal.Decimal) error {
	if err := f.hook("SetBulkWinner"); err != nil {
		return err
	}
	tb := f.bulks[id]
	tb.CurrentHighestTeamID = &teamID
	tb.CurrentHighestBid = amount
	f.bulks[id] = tb
	return nil
}

func (f *FakeStore) CountActiveForRound(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID) (int, error) {
	if err := f.hook("CountActiveForRound"); err != nil {
		return 0, err
	}
	count := 0
	for _, tb := range f.bulks {
		if tb.BulkRoundID == roundID && tb.Status == auctiontypes.BulkTiebreakerActive {
			count++
		}
	}
	return count, nil
}

// --- AllocationDB ---

func (f *FakeStore) ReplacePending(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID, rows []auctiondb.PendingAllocation) error {
	if err := f.hook("ReplacePending"); err != nil {
		return err
	}
	stored := make([]auctiondb.PendingAllocation, len(rows))
	for i, row := range rows {
		f.nextSeq++
		row.ID = f.nextSeq
		stored[i] = row
	}
	f.pending[roundID] = stored
	return nil
}

func (f *FakeStore) ListPending(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID) ([]auctiondb.PendingAllocation, error) {
	if err := f.hook("ListPending"); err != nil {
		return nil, err
	}
	return append([]auctiondb.PendingAllocation(nil), f.pending[roundID]...), nil
}

func (f *FakeStore) DeletePending(_ context.Context, _ bun.IDB, roundID auctiontypes.RoundID) error {
	if err := f.hook("DeletePending"); err != nil {
		return err
	}
	delete(f.pending, roundID)
	return nil
}

func (f *FakeStore) InsertAllocation(_ context.Context, _ bun.IDB, alloc *auctiondb.Allocation) error {
	if err := f.hook("InsertAllocation"); err != nil {
		return err
	}
	f.allocations = append(f.allocations, *alloc)
	return nil
}

func (f *FakeStore) DebitBudget(_ context.Context, _ bun.IDB, teamID auctiontypes.TeamID, roundID auctiontypes.RoundID, amount decimal.Decimal, reason string) error {
	if err := f.hook("DebitBudget"); err != nil {
		return err
	}
	budget, ok := f.budgets[teamID]
	if !ok {
		return auctiondb.ErrNotFound
	}
	f.budgets[teamID] = budget.Sub(amount)
	f.txLog = append(f.txLog, auctiondb.TransactionLog{
		TeamID:  teamID,
		RoundID: roundID,
		Amount:  amount.Neg(),
		Reason:  reason,
	})
	return nil
}

func (f *FakeStore) InsertAuditLog(_ context.Context, _ bun.IDB, entry *auctiondb.AuditLog) error {
	if err := f.hook("InsertAuditLog"); err != nil {
		return err
	}
	f.audits = append(f.audits, *entry)
	return nil
}

// ------------------------
// Fake collaborators
// ------------------------

type FakePublisher struct {
	mu     sync.Mutex
	Topics []string
	Err    error
}

func (p *FakePublisher) Publish(topic string, _ ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Topics = append(p.Topics, topic)
	return nil
}

func (p *FakePublisher) Close() error { return nil }

type FakeAuthGate struct {
	Err error
}

func (g *FakeAuthGate) RequireOperator(context.Context, string) error { return g.Err }

// plainCipher stores amounts as their decimal string; good enough for
// exercising the decrypt path without key management.
type plainCipher struct{}

func (plainCipher) Encrypt(amount decimal.Decimal) ([]byte, error) {
	return []byte(amount.String()), nil
}

func (plainCipher) Decrypt(ciphertext []byte) (decimal.Decimal, error) {
	return decimal.NewFromString(string(ciphertext))
}

// ------------------------
// Test harness
// ------------------------

type testEnv struct {
	svc   *SettlementService
	store *FakeStore
	pub   *FakePublisher
	gate  *FakeAuthGate
	now   time.Time
}

func newTestEnv() *testEnv {
	store := NewFakeStore()
	pub := &FakePublisher{}
	gate := &FakeAuthGate{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewSettlementService(
		&FakeDB{store: store},
		store, store, store, store,
		pub,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		gate,
		plainCipher{},
		Config{},
	)
	svc.clock = func() time.Time { return now }
	svc.randIntn = func(n int) int { return 0 }
	return &testEnv{svc: svc, store: store, pub: pub, gate: gate, now: now}
}

func (e *testEnv) setClock(t time.Time) {
	e.now = t
	e.svc.clock = func() time.Time { return t }
}

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newRoundID() auctiontypes.RoundID   { return auctiontypes.RoundID(uuid.New()) }
func newTeamID() auctiontypes.TeamID     { return auctiontypes.TeamID(uuid.New()) }
func newPlayerID() auctiontypes.PlayerID { return auctiontypes.PlayerID(uuid.New()) }

// addRound seeds an expired manual round ready for preview.
func (e *testEnv) addRound(bulk bool) *auctiondb.Round {
	round := auctiondb.Round{
		ID:               newRoundID(),
		SeasonID:         auctiontypes.SeasonID(uuid.New()),
		Position:         "midfielder",
		BasePrice:        money(20),
		Status:           auctiontypes.RoundStatusExpiredPendingFinal,
		FinalizationMode: auctiontypes.FinalizationManual,
		Bulk:             bulk,
		EndTime:          e.now.Add(-time.Hour),
	}
	e.store.rounds[round.ID] = round
	return &round
}

func (e *testEnv) addTeam(roundID auctiontypes.RoundID, name string, budget int64, slots int) auctiontypes.TeamID {
	teamID := newTeamID()
	e.store.budgets[teamID] = money(budget)
	e.store.participants = append(e.store.participants, auctiondb.RoundParticipant{
		RoundID:   roundID,
		TeamID:    teamID,
		TeamName:  name,
		SlotsOwed: slots,
	})
	return teamID
}

func (e *testEnv) addRoundPlayer(roundID auctiontypes.RoundID, name string) auctiontypes.PlayerID {
	playerID := newPlayerID()
	e.store.roundPlayers = append(e.store.roundPlayers, auctiondb.RoundPlayer{
		ID:         int64(len(e.store.roundPlayers) + 1),
		RoundID:    roundID,
		PlayerID:   playerID,
		PlayerName: name,
		Status:     auctiontypes.RoundPlayerPending,
	})
	return playerID
}

func (e *testEnv) addBid(roundID auctiontypes.RoundID, teamID auctiontypes.TeamID, playerID auctiontypes.PlayerID, amount int64) auctiontypes.BidID {
	sealed, _ := plainCipher{}.Encrypt(money(amount))
	bid := auctiondb.Bid{
		ID:              auctiontypes.BidID(uuid.New()),
		RoundID:         roundID,
		TeamID:          teamID,
		PlayerID:        playerID,
		EncryptedAmount: sealed,
		SubmittedAt:     e.now.Add(-2*time.Hour + time.Duration(len(e.store.bids))*time.Minute),
		Status:          auctiontypes.BidStatusActive,
	}
	e.store.bids = append(e.store.bids, bid)
	return bid.ID
}
