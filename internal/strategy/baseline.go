package strategy

import (
	"math/rand"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/rules"
)

// #region config

// BaselineConfig tunes the heuristic policy.
type BaselineConfig struct {
	// Cooldown is the minimum batch spacing between interventions.
	Cooldown int
	// ChaosProb is the chance of overriding the chosen action with a
	// uniformly random one, modeling operational noise.
	ChaosProb float64
	// LapseProb is the chance of ignoring an active cooldown, modeling
	// imperfect real operations.
	LapseProb float64
}

// DefaultBaselineConfig returns the standard tuning.
func DefaultBaselineConfig() BaselineConfig {
	return BaselineConfig{Cooldown: 3, ChaosProb: 0.03, LapseProb: 0.1}
}

// #endregion config

// #region input

// BaselineInput is the per-batch snapshot the heuristic decides from.
// LastActions is mutated: every uid that gets a non-cooldown action is
// stamped with the current batch index.
type BaselineInput struct {
	Batch       int
	Alive       []int
	Health      map[int]float64
	Tier        map[int]rules.Tier
	Fatigue     map[int]float64
	Activity    map[int][]int // presence window, oldest to newest
	LastActions map[int]int
}

// #endregion input

// #region baseline

// Baseline is a deterministic-ish rule engine standing in for a
// production-style intervention system. Its known imperfections (cooldown
// lapses, chaos overrides) are part of the model.
type Baseline struct {
	config BaselineConfig
}

// NewBaseline creates a Baseline with the given tuning.
func NewBaseline(config BaselineConfig) *Baseline {
	return &Baseline{config: config}
}

// chaosActions is the override pool for the chaos factor.
var chaosActions = []rules.Strategy{
	rules.StrategyObserve, rules.StrategyBoost, rules.StrategyReinforce,
	rules.StrategyDelay, rules.StrategySuppress, rules.StrategyEscalate,
}

// Compute selects one strategy per alive uid from a fixed decision tree
// keyed on fatigue, health band, activity momentum, and value tier.
func (b *Baseline) Compute(rng *rand.Rand, in BaselineInput) map[int]rules.Strategy {
	actions := make(map[int]rules.Strategy, len(in.Alive))

	for _, uid := range in.Alive {
		last, acted := in.LastActions[uid]
		if !acted {
			last = -b.config.Cooldown
		}
		lapsed := b.config.LapseProb > 0 && rng.Float64() < b.config.LapseProb
		if !lapsed && in.Batch-last < b.config.Cooldown {
			actions[uid] = rules.StrategyDelay
			continue
		}

		health := in.Health[uid]
		fatigue := in.Fatigue[uid]
		tier, ok := in.Tier[uid]
		if !ok {
			tier = rules.TierBasic
		}

		action := b.pick(rng, health, fatigue, tier, momentum(in.Activity[uid]))

		if b.config.ChaosProb > 0 && rng.Float64() < b.config.ChaosProb {
			action = chaosActions[rng.Intn(len(chaosActions))]
		}

		actions[uid] = action
		in.LastActions[uid] = in.Batch
	}

	return actions
}

// pick walks the core decision tree.
func (b *Baseline) pick(rng *rand.Rand, health, fatigue float64, tier rules.Tier, trend int) rules.Strategy {
	switch {
	// Fatigued users are mostly suppressed, rarely re-engaged.
	case fatigue >= 4:
		if rng.Float64() < 0.15 {
			if tier != rules.TierBasic {
				return rules.StrategyBoost
			}
			return rules.StrategyReinforce
		}
		return rules.StrategySuppress

	// High-health users are left alone unless they carry some fatigue.
	case health >= 0.85:
		if fatigue < 3 {
			return rules.StrategyObserve
		}
		if rng.Float64() > 0.1 {
			return rules.StrategyDelay
		}
		return rules.StrategyBoost

	// Moderate health: nudge or reinforce based on momentum.
	case health >= 0.5:
		if trend >= 0 {
			return rules.StrategyReinforce
		}
		if tier != rules.TierBasic {
			return rules.StrategyBoost
		}
		return rules.StrategyReinforce

	// Low health: triage by tier and fatigue.
	default:
		if tier == rules.TierEnterprise {
			if fatigue < 3 {
				return rules.StrategyEscalate
			}
			return rules.StrategyDelay
		}
		if fatigue < 4 {
			return rules.StrategyBoost
		}
		return rules.StrategyObserve
	}
}

// momentum compares presence in the last three batches against the three
// before that.
func momentum(window []int) int {
	if len(window) == 0 {
		window = []int{1, 1, 1, 1, 1, 1}
	}
	recent := sumTail(window, 3)
	past := sumTail(window, 6) - recent
	return recent - past
}

func sumTail(window []int, n int) int {
	if n > len(window) {
		n = len(window)
	}
	var sum int
	for _, v := range window[len(window)-n:] {
		sum += v
	}
	return sum
}

// #endregion baseline
