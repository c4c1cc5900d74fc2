package auth

import (
	"context"
	"fmt"
)

// OperatorAllowList is a minimal authorization gate: only the
// configured committee members may run settlement operations. Real
// identity verification happens upstream; this gate fails closed on an
// empty list or unknown operator.
type OperatorAllowList struct {
	operators map[string]struct{}
}

// NewOperatorAllowList builds a gate from the configured operator IDs.
func NewOperatorAllowList(operatorIDs []string) *OperatorAllowList {
	ops := make(map[string]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		ops[id] = struct{}{}
	}
	return &OperatorAllowList{operators: ops}
}

// RequireOperator rejects callers outside the allow list.
func (g *OperatorAllowList) RequireOperator(_ context.Context, operatorID string) error {
	if operatorID == "" {
		return fmt.Errorf("missing operator identity")
	}
	if _, ok := g.operators[operatorID]; !ok {
		return fmt.Errorf("operator %q is not on the committee", operatorID)
	}
	return nil
}
