package core

// Goal deltas are applied incrementally: every transaction create or delete
// adjusts the running total of the goals covering it, instead of recomputing
// from scratch. Applying the same transaction with opposite signs is
// guaranteed to restore the previous total.

// DeltaSign is +1 for a created transaction and -1 for a deleted one.
type DeltaSign int

const (
	DeltaAdd    DeltaSign = 1
	DeltaRemove DeltaSign = -1
)

// ApplyTransactionDelta returns the goal with its running total adjusted by
// the transaction. Transactions outside the goal's category or date range
// leave it unchanged.
func ApplyTransactionDelta(g Goal, t Transaction, sign DeltaSign) Goal {
	if !g.Covers(t) {
		return g
	}
	g.CurrentValue = Money{Cents: g.CurrentValue.Cents + int64(sign)*t.Value.Cents}
	return g
}

// Progress returns the goal completion ratio in percent, capped at 100.
// A zero target reports 0 rather than dividing by zero.
func (g Goal) Progress() float64 {
	if g.GoalValue.Cents <= 0 {
		return 0
	}
	pct := float64(g.CurrentValue.Cents) / float64(g.GoalValue.Cents) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
