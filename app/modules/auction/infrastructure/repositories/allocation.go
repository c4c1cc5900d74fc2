package auctiondb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	auctiontypes "github.com/draftline/auctioneer/app/modules/auction/domain/types"
)

// AllocationDBImpl is the concrete implementation of the AllocationDB
// interface using bun. It owns the staging table, durable allocations,
// the budget ledger, and the audit log.
type AllocationDBImpl struct{}

func (a *AllocationDBImpl) ReplacePending(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID, rows []PendingAllocation) error {
	if _, err := db.NewDelete().
		Model((*PendingAllocation)(nil)).
		Where("round_id = ?", roundID).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear staged allocations: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("failed to stage allocations: %w", err)
	}
	slog.DebugContext(ctx, "Staged allocations replaced",
		slog.String("round_id", roundID.String()),
		slog.Int("count", len(rows)),
	)
	return nil
}

func (a *AllocationDBImpl) ListPending(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) ([]PendingAllocation, error) {
	var rows []PendingAllocation
	err := db.NewSelect().
		Model(&rows).
		Where("round_id = ?", roundID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged allocations: %w", err)
	}
	return rows, nil
}

func (a *AllocationDBImpl) DeletePending(ctx context.Context, db bun.IDB, roundID auctiontypes.RoundID) error {
	if _, err := db.NewDelete().
		Model((*PendingAllocation)(nil)).
		Where("round_id = ?", roundID).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete staged allocations: %w", err)
	}
	return nil
}

func (a *AllocationDBImpl) InsertAllocation(ctx context.Context, db bun.IDB, alloc *Allocation) error {
	if _, err := db.NewInsert().Model(alloc).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert allocation: %w", err)
	}
	return nil
}

// DebitBudget mutates the balance with an increment expression, never a
// read-modify-write, and pairs it with a transaction-log row.
func (a *AllocationDBImpl) DebitBudget(ctx context.Context, db bun.IDB, teamID auctiontypes.TeamID, roundID auctiontypes.RoundID, amount decimal.Decimal, reason string) error {
	res, err := db.NewUpdate().
		Model((*Team)(nil)).
		Set("budget = budget - ?", amount).
		Where("id = ?", teamID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to debit team budget: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	entry := &TransactionLog{
		TeamID:  teamID,
		RoundID: roundID,
		Amount:  amount.Neg(),
		Reason:  reason,
	}
	if _, err := db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("failed to write transaction log: %w", err)
	}
	return nil
}

func (a *AllocationDBImpl) InsertAuditLog(ctx context.Context, db bun.IDB, entry *AuditLog) error {
	if _, err := db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
