package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookupKnownEntry(t *testing.T) {
	rb := DefaultRulebook()

	e := rb.Lookup(StateStable, StrategyReinforce)
	if e.Next != StateStable || e.DHealth != 0.02 || e.Penalty != 0 {
		t.Fatalf("unexpected effect: %+v", e)
	}

	e = rb.Lookup(StateRecovering, StrategySuppress)
	if e.Next != StateDisrupted || e.DHealth != -0.15 || e.Penalty != 3 {
		t.Fatalf("unexpected effect: %+v", e)
	}
}

func TestLookupUnknownStrategyNeutral(t *testing.T) {
	rb := DefaultRulebook()

	e := rb.Lookup(StateStable, Strategy("unknown_action"))
	if e.Next != StateStable {
		t.Fatalf("expected no state change, got %s", e.Next)
	}
	if e.DHealth != 0 || e.Penalty != 0 {
		t.Fatalf("expected neutral effect, got %+v", e)
	}
}

func TestLookupDelayNeutral(t *testing.T) {
	rb := DefaultRulebook()
	for _, s := range States() {
		e := rb.Lookup(s, StrategyDelay)
		if e.Next != s || e.DHealth != 0 || e.Penalty != 0 {
			t.Fatalf("delay on %s should be neutral, got %+v", s, e)
		}
	}
}

func TestDefaultRulebookComplete(t *testing.T) {
	rb := DefaultRulebook()
	if want := len(States()) * len(Strategies()); rb.Len() != want {
		t.Fatalf("expected %d entries, got %d", want, rb.Len())
	}
}

func TestCostsDefaults(t *testing.T) {
	c := DefaultCosts()
	if c.Of(StrategyObserve) != 0.01 {
		t.Fatalf("observe cost: %v", c.Of(StrategyObserve))
	}
	if c.Of(StrategyBoost) != 0.15 {
		t.Fatalf("boost cost: %v", c.Of(StrategyBoost))
	}
	if c.Of(StrategyDelay) != 0 {
		t.Fatalf("delay should have zero cost, got %v", c.Of(StrategyDelay))
	}
	if c.Of(Strategy("unknown")) != 0 {
		t.Fatal("unknown strategy should have zero cost")
	}
}

func TestTierARRDefaults(t *testing.T) {
	a := DefaultTierARR()
	if a.Of(TierEnterprise) != 6000 {
		t.Fatalf("enterprise ARR: %v", a.Of(TierEnterprise))
	}
	if a.Of(Tier("unknown")) != 0 {
		t.Fatal("unknown tier should have zero ARR")
	}
}

func TestLoadRulebookOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - state: stable
    strategy: observe
    next: cycling
    health_delta: -0.5
    penalty: 7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rb, err := LoadRulebook(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rb.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", rb.Len())
	}

	e := rb.Lookup(StateStable, StrategyObserve)
	if e.Next != StateCycling || e.DHealth != -0.5 || e.Penalty != 7 {
		t.Fatalf("unexpected effect: %+v", e)
	}

	// Pairs absent from the swapped table still resolve neutrally.
	e = rb.Lookup(StateErratic, StrategyBoost)
	if e.Next != StateErratic || e.DHealth != 0 {
		t.Fatalf("expected neutral fallback, got %+v", e)
	}
}

func TestLoadEconomyPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "economy.yaml")
	content := `costs:
  observe: 0.5
  boost: 1.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	costs, arr, err := LoadEconomy(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if costs.Of(StrategyObserve) != 0.5 || costs.Of(StrategyBoost) != 1.0 {
		t.Fatalf("overridden costs: %v", costs)
	}
	// Strategies outside the replacement table cost nothing.
	if costs.Of(StrategySuppress) != 0 {
		t.Fatalf("suppress cost: %v", costs.Of(StrategySuppress))
	}
	// The omitted tier section keeps the default table.
	if arr.Of(TierPro) != 720 {
		t.Fatalf("pro ARR: %v", arr.Of(TierPro))
	}
}

func TestLoadEconomyEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "economy.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadEconomy(path); err == nil {
		t.Fatal("expected error for empty economy file")
	}
}

func TestLoadRulebookMissingFile(t *testing.T) {
	if _, err := LoadRulebook(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRulebookEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("rules: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRulebook(path); err == nil {
		t.Fatal("expected error for empty rulebook")
	}
}
