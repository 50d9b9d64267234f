package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region costs

// Costs maps each strategy to its per-application energy cost.
type Costs map[Strategy]float64

// Of returns the cost of a strategy, 0 for unlisted labels.
func (c Costs) Of(s Strategy) float64 {
	return c[s]
}

// DefaultCosts returns the built-in cost table.
func DefaultCosts() Costs {
	return Costs{
		StrategyObserve:   0.01,
		StrategyMonitor:   0.02,
		StrategyNudge:     0.02,
		StrategyReinforce: 0.05,
		StrategySupport:   0.05,
		StrategyRedirect:  0.05,
		StrategyBoost:     0.15,
		StrategyEscalate:  0.15,
		StrategySuppress:  0.10,
	}
}

// #endregion costs

// #region tier-arr

// TierARR maps a value tier to its annual recurring revenue contribution.
type TierARR map[Tier]float64

// Of returns the ARR for a tier, 0 for unknown tiers.
func (t TierARR) Of(tier Tier) float64 {
	return t[tier]
}

// DefaultTierARR returns the built-in revenue table.
func DefaultTierARR() TierARR {
	return TierARR{
		TierBasic:      120,
		TierPro:        720,
		TierEnterprise: 6000,
	}
}

// #endregion tier-arr

// #region yaml-load

// economyFile is the on-disk YAML shape for swappable economy tables.
// Either section may be omitted to keep its default table.
type economyFile struct {
	Costs   map[string]float64 `yaml:"costs"`
	TierARR map[string]float64 `yaml:"tier_arr"`
}

// LoadEconomy reads cost and revenue overrides from a YAML file. Sections
// left out fall back to the built-in tables.
func LoadEconomy(path string) (Costs, TierARR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read economy: %w", err)
	}
	var f economyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse economy: %w", err)
	}
	if len(f.Costs) == 0 && len(f.TierARR) == 0 {
		return nil, nil, fmt.Errorf("economy %s: no tables", path)
	}

	costs := DefaultCosts()
	if len(f.Costs) > 0 {
		costs = make(Costs, len(f.Costs))
		for s, v := range f.Costs {
			costs[Strategy(s)] = v
		}
	}
	arr := DefaultTierARR()
	if len(f.TierARR) > 0 {
		arr = make(TierARR, len(f.TierARR))
		for t, v := range f.TierARR {
			arr[Tier(t)] = v
		}
	}
	return costs, arr, nil
}

// #endregion yaml-load
