package engine

// #region report

// BranchSeries is one branch's per-batch metric series. Entries align
// with Report.Batches; batches that produced no events are omitted.
type BranchSeries struct {
	Energy []float64
	ARR    []float64
	Churn  []float64
}

// Report is the reporting boundary of a run: plain slices and sorted uid
// lists with no references into engine internals, so a downstream
// consumer (charting, storage) needs nothing from the user model.
type Report struct {
	RunID string

	// Batches lists the batch indices that actually executed, in order.
	Batches []int

	Challenger BranchSeries
	Baseline   BranchSeries

	// Penalties accumulates both branches' rulebook penalties per batch.
	Penalties []float64
	// Comebacks counts challenger-branch recovery latches per batch.
	Comebacks []int

	ChallengerAlive   []int
	ChallengerChurned []int
	BaselineAlive     []int
	BaselineChurned   []int
}

// #endregion report
