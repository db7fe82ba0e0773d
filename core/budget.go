package core

// IterationBudget bounds how many model-call/tool-execution cycles a single
// user turn may spend before the dispatch loop forces a truncated answer.
// A turn runs on one goroutine, so the budget needs no locking.
type IterationBudget struct {
	limit int
	used  int
}

// NewIterationBudget creates a budget of limit cycles. A limit of zero or
// less never exhausts.
func NewIterationBudget(limit int) *IterationBudget {
	return &IterationBudget{limit: limit}
}

// Spend consumes one cycle. It reports false once the budget is exhausted,
// leaving the count untouched.
func (b *IterationBudget) Spend() bool {
	if b.limit > 0 && b.used >= b.limit {
		return false
	}
	b.used++
	return true
}

// Used reports the cycles consumed so far.
func (b *IterationBudget) Used() int {
	return b.used
}
