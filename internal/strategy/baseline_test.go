package strategy

import (
	"math/rand"
	"testing"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/rules"
)

// quietConfig disables the stochastic imperfections so the decision tree
// is fully deterministic (outside the fatigue and high-fatigue branches).
func quietConfig() BaselineConfig {
	return BaselineConfig{Cooldown: 3, ChaosProb: 0, LapseProb: 0}
}

func singleUserInput(batch int, health, fatigue float64, tier rules.Tier, window []int) BaselineInput {
	return BaselineInput{
		Batch:       batch,
		Alive:       []int{1},
		Health:      map[int]float64{1: health},
		Tier:        map[int]rules.Tier{1: tier},
		Fatigue:     map[int]float64{1: fatigue},
		Activity:    map[int][]int{1: window},
		LastActions: map[int]int{},
	}
}

func TestCooldownDelays(t *testing.T) {
	b := NewBaseline(quietConfig())
	rng := rand.New(rand.NewSource(1))

	in := singleUserInput(2, 0.9, 0, rules.TierBasic, nil)
	in.LastActions[1] = 1

	actions := b.Compute(rng, in)
	if actions[1] != rules.StrategyDelay {
		t.Fatalf("expected delay under cooldown, got %s", actions[1])
	}
	if in.LastActions[1] != 1 {
		t.Fatalf("delay must not refresh the action stamp, got %d", in.LastActions[1])
	}
}

func TestCooldownExpiryActs(t *testing.T) {
	b := NewBaseline(quietConfig())
	rng := rand.New(rand.NewSource(1))

	in := singleUserInput(4, 0.9, 0, rules.TierBasic, nil)
	in.LastActions[1] = 1

	actions := b.Compute(rng, in)
	if actions[1] != rules.StrategyObserve {
		t.Fatalf("expected observe after cooldown expiry, got %s", actions[1])
	}
	if in.LastActions[1] != 4 {
		t.Fatalf("acting must stamp the batch index, got %d", in.LastActions[1])
	}
}

func TestFirstBatchActsImmediately(t *testing.T) {
	b := NewBaseline(quietConfig())
	rng := rand.New(rand.NewSource(1))

	in := singleUserInput(0, 0.9, 0, rules.TierBasic, nil)
	actions := b.Compute(rng, in)
	if actions[1] != rules.StrategyObserve {
		t.Fatalf("fresh user should be acted on, got %s", actions[1])
	}
}

func TestHighHealthObserve(t *testing.T) {
	b := NewBaseline(quietConfig())
	rng := rand.New(rand.NewSource(1))

	in := singleUserInput(0, 0.95, 1.5, rules.TierEnterprise, nil)
	if got := b.Compute(rng, in)[1]; got != rules.StrategyObserve {
		t.Fatalf("healthy low-fatigue user: got %s", got)
	}
}

func TestModerateHealthMomentum(t *testing.T) {
	b := NewBaseline(quietConfig())

	rising := []int{0, 0, 0, 1, 1, 1}
	falling := []int{1, 1, 1, 0, 0, 0}

	rng := rand.New(rand.NewSource(1))
	in := singleUserInput(0, 0.6, 0, rules.TierBasic, rising)
	if got := b.Compute(rng, in)[1]; got != rules.StrategyReinforce {
		t.Fatalf("positive momentum: got %s", got)
	}

	in = singleUserInput(0, 0.6, 0, rules.TierPro, falling)
	if got := b.Compute(rng, in)[1]; got != rules.StrategyBoost {
		t.Fatalf("negative momentum, pro tier: got %s", got)
	}

	in = singleUserInput(0, 0.6, 0, rules.TierBasic, falling)
	if got := b.Compute(rng, in)[1]; got != rules.StrategyReinforce {
		t.Fatalf("negative momentum, basic tier: got %s", got)
	}
}

func TestLowHealthTriage(t *testing.T) {
	b := NewBaseline(quietConfig())
	rng := rand.New(rand.NewSource(1))

	in := singleUserInput(0, 0.3, 0, rules.TierEnterprise, nil)
	if got := b.Compute(rng, in)[1]; got != rules.StrategyEscalate {
		t.Fatalf("enterprise low health: got %s", got)
	}

	in = singleUserInput(0, 0.3, 3.5, rules.TierEnterprise, nil)
	if got := b.Compute(rng, in)[1]; got != rules.StrategyDelay {
		t.Fatalf("enterprise low health, fatigued: got %s", got)
	}

	in = singleUserInput(0, 0.3, 0, rules.TierBasic, nil)
	if got := b.Compute(rng, in)[1]; got != rules.StrategyBoost {
		t.Fatalf("basic low health: got %s", got)
	}
}

func TestFatiguedMostlySuppressed(t *testing.T) {
	b := NewBaseline(quietConfig())
	rng := rand.New(rand.NewSource(9))

	allowed := map[rules.Strategy]bool{
		rules.StrategySuppress:  true,
		rules.StrategyBoost:     true,
		rules.StrategyReinforce: true,
	}
	suppressed := 0
	for i := 0; i < 300; i++ {
		in := singleUserInput(0, 0.9, 4.5, rules.TierPro, nil)
		got := b.Compute(rng, in)[1]
		if !allowed[got] {
			t.Fatalf("fatigued user got %s", got)
		}
		if got == rules.StrategySuppress {
			suppressed++
		}
	}
	if suppressed < 200 {
		t.Fatalf("suppress should dominate for fatigued users, got %d/300", suppressed)
	}
}

func TestChaosOverridePool(t *testing.T) {
	b := NewBaseline(BaselineConfig{Cooldown: 3, ChaosProb: 1, LapseProb: 0})
	rng := rand.New(rand.NewSource(4))

	pool := map[rules.Strategy]bool{}
	for _, s := range chaosActions {
		pool[s] = true
	}
	for i := 0; i < 100; i++ {
		in := singleUserInput(0, 0.9, 0, rules.TierBasic, nil)
		if got := b.Compute(rng, in)[1]; !pool[got] {
			t.Fatalf("chaos action %s outside override pool", got)
		}
	}
}

func TestMomentumEmptyWindow(t *testing.T) {
	if got := momentum(nil); got != 0 {
		t.Fatalf("empty window momentum: %d", got)
	}
	if got := momentum([]int{0, 0, 0, 1, 1, 1}); got != 3 {
		t.Fatalf("rising momentum: %d", got)
	}
	if got := momentum([]int{1, 1, 1, 0, 0, 0}); got != -3 {
		t.Fatalf("falling momentum: %d", got)
	}
}
