package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region rulebook

type ruleKey struct {
	state    State
	strategy Strategy
}

// Rulebook maps (state, strategy) to the effect of applying that strategy.
// Pairs absent from the table resolve to a neutral default: same state,
// zero health delta, zero penalty. That fallback is the designed handling
// for unrecognized strategy labels, not an error path.
type Rulebook struct {
	entries map[ruleKey]Effect
}

// Lookup returns the effect for a (state, strategy) pair.
func (r *Rulebook) Lookup(state State, strategy Strategy) Effect {
	if e, ok := r.entries[ruleKey{state, strategy}]; ok {
		return e
	}
	return Effect{Next: state}
}

// Len returns the number of explicit entries.
func (r *Rulebook) Len() int {
	return len(r.entries)
}

// #endregion rulebook

// #region default-table

// DefaultRulebook returns the built-in transition table.
func DefaultRulebook() *Rulebook {
	type row struct {
		state    State
		strategy Strategy
		next     State
		dHealth  float64
		penalty  float64
	}
	rows := []row{
		// stable
		{StateStable, StrategyObserve, StateStable, 0.01, 0},
		{StateStable, StrategyMonitor, StateStable, 0.01, 0},
		{StateStable, StrategyNudge, StateStable, 0.01, 0},
		{StateStable, StrategyReinforce, StateStable, 0.02, 0},
		{StateStable, StrategySupport, StateCycling, -0.02, 1},
		{StateStable, StrategyRedirect, StateErratic, -0.22, 2},
		{StateStable, StrategyBoost, StateCycling, -0.03, 2},
		{StateStable, StrategyEscalate, StateErratic, -0.13, 3},
		{StateStable, StrategySuppress, StateDisrupted, -0.15, 3},

		// erratic
		{StateErratic, StrategyObserve, StateErratic, 0.00, 1},
		{StateErratic, StrategyMonitor, StateCycling, 0.02, 0},
		{StateErratic, StrategyNudge, StateCycling, 0.03, 0},
		{StateErratic, StrategyReinforce, StateRecovering, 0.04, 0},
		{StateErratic, StrategySupport, StateRecovering, 0.03, 0},
		{StateErratic, StrategyRedirect, StateRecovering, 0.05, 0},
		{StateErratic, StrategyBoost, StateRecovering, 0.02, 1},
		{StateErratic, StrategyEscalate, StateDisrupted, -0.22, 2},
		{StateErratic, StrategySuppress, StateDisrupted, -0.14, 2},

		// cycling
		{StateCycling, StrategyObserve, StateCycling, 0.00, 1},
		{StateCycling, StrategyMonitor, StateCycling, 0.01, 0},
		{StateCycling, StrategyNudge, StateRecovering, 0.02, 0},
		{StateCycling, StrategyReinforce, StateRecovering, 0.03, 0},
		{StateCycling, StrategySupport, StateRecovering, 0.04, 0},
		{StateCycling, StrategyRedirect, StateRecovering, 0.05, 0},
		{StateCycling, StrategyBoost, StateErratic, -0.05, 1},
		{StateCycling, StrategyEscalate, StateErratic, -0.15, 2},
		{StateCycling, StrategySuppress, StateDisrupted, -0.12, 2},

		// recovering
		{StateRecovering, StrategyObserve, StateRecovering, 0.01, 0},
		{StateRecovering, StrategyMonitor, StateStable, 0.02, 0},
		{StateRecovering, StrategyNudge, StateStable, 0.03, 0},
		{StateRecovering, StrategyReinforce, StateStable, 0.04, 0},
		{StateRecovering, StrategySupport, StateStable, 0.05, 0},
		{StateRecovering, StrategyRedirect, StateStable, 0.02, 1},
		{StateRecovering, StrategyBoost, StateErratic, -0.11, 1},
		{StateRecovering, StrategyEscalate, StateDisrupted, -0.13, 2},
		{StateRecovering, StrategySuppress, StateDisrupted, -0.15, 3},

		// disrupted
		{StateDisrupted, StrategyObserve, StateErratic, 0.01, 1},
		{StateDisrupted, StrategyMonitor, StateRecovering, 0.02, 0},
		{StateDisrupted, StrategyNudge, StateRecovering, 0.03, 0},
		{StateDisrupted, StrategyReinforce, StateRecovering, 0.04, 0},
		{StateDisrupted, StrategySupport, StateRecovering, 0.05, 0},
		{StateDisrupted, StrategyRedirect, StateCycling, 0.02, 1},
		{StateDisrupted, StrategyBoost, StateErratic, -0.04, 2},
		{StateDisrupted, StrategyEscalate, StateErratic, -0.15, 2},
		// suppress on an already-disrupted user is assumed near-neutral
		{StateDisrupted, StrategySuppress, StateDisrupted, -0.01, 0},
	}

	entries := make(map[ruleKey]Effect, len(rows))
	for _, r := range rows {
		entries[ruleKey{r.state, r.strategy}] = Effect{Next: r.next, DHealth: r.dHealth, Penalty: r.penalty}
	}
	return &Rulebook{entries: entries}
}

// #endregion default-table

// #region yaml-load

// ruleFile is the on-disk YAML shape for a swappable rulebook.
type ruleFile struct {
	Rules []struct {
		State       string  `yaml:"state"`
		Strategy    string  `yaml:"strategy"`
		Next        string  `yaml:"next"`
		HealthDelta float64 `yaml:"health_delta"`
		Penalty     float64 `yaml:"penalty"`
	} `yaml:"rules"`
}

// LoadRulebook reads a full replacement table from a YAML file.
func LoadRulebook(path string) (*Rulebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulebook: %w", err)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rulebook: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rulebook %s: no rules", path)
	}
	entries := make(map[ruleKey]Effect, len(f.Rules))
	for _, r := range f.Rules {
		entries[ruleKey{State(r.State), Strategy(r.Strategy)}] = Effect{
			Next:    State(r.Next),
			DHealth: r.HealthDelta,
			Penalty: r.Penalty,
		}
	}
	return &Rulebook{entries: entries}, nil
}

// #endregion yaml-load
