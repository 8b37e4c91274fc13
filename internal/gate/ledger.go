package gate

import "context"

// SuccessLedger is the part of the ledger store the gate needs.
type SuccessLedger interface {
	HasSucceeded(ctx context.Context, userID string) (bool, error)
}

// LedgerGate treats a user as done once the ledger holds a successful
// invocation for it, regardless of what is on disk.
type LedgerGate struct {
	ledger SuccessLedger
}

func NewLedgerGate(ledger SuccessLedger) *LedgerGate {
	return &LedgerGate{ledger: ledger}
}

func (g *LedgerGate) Exists(ctx context.Context, userID string) (bool, error) {
	return g.ledger.HasSucceeded(ctx, userID)
}
