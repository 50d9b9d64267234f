// Package rules holds the static behavioral tables of the simulation:
// the state-transition rulebook, strategy energy costs, and tier revenue.
// All tables are plain data with documented fallbacks; the engine never
// hard-codes an entry.
package rules

// #region state

// State is a user's categorical engagement state.
type State string

const (
	StateStable     State = "stable"
	StateCycling    State = "cycling"
	StateErratic    State = "erratic"
	StateRecovering State = "recovering"
	StateDisrupted  State = "disrupted"
)

// States returns all engagement states.
func States() []State {
	return []State{StateStable, StateErratic, StateDisrupted, StateRecovering, StateCycling}
}

// #endregion state

// #region strategy

// Strategy is a labeled intervention applied to a user.
type Strategy string

const (
	StrategyObserve   Strategy = "observe"
	StrategyMonitor   Strategy = "monitor"
	StrategyNudge     Strategy = "nudge"
	StrategyReinforce Strategy = "reinforce"
	StrategySupport   Strategy = "support"
	StrategyRedirect  Strategy = "redirect"
	StrategyBoost     Strategy = "boost"
	StrategyEscalate  Strategy = "escalate"
	StrategySuppress  Strategy = "suppress"

	// StrategyDelay is emitted by the baseline heuristic when a user is in
	// cooldown. It has no rulebook entry and resolves to the neutral default.
	StrategyDelay Strategy = "delay"
)

// Strategies returns the nine rulebook strategies.
func Strategies() []Strategy {
	return []Strategy{
		StrategyObserve, StrategyMonitor, StrategyNudge, StrategyReinforce,
		StrategySupport, StrategyRedirect, StrategyBoost, StrategyEscalate,
		StrategySuppress,
	}
}

// #endregion strategy

// #region effect

// Effect is the outcome of applying a strategy to a user in a given state.
type Effect struct {
	Next    State
	DHealth float64
	Penalty float64
}

// #endregion effect

// #region tier

// Tier is a user's immutable value segment.
type Tier string

const (
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Tiers returns all value tiers in draw order.
func Tiers() []Tier {
	return []Tier{TierBasic, TierPro, TierEnterprise}
}

// TierProbs returns the assignment probabilities aligned with Tiers().
func TierProbs() []float64 {
	return []float64{0.6, 0.3, 0.1}
}

// #endregion tier
