package results

import (
	"path/filepath"
	"testing"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/engine"
)

func testReport() engine.Report {
	return engine.Report{
		RunID:   "run-under-test",
		Batches: []int{0, 1, 3},
		Challenger: engine.BranchSeries{
			Energy: []float64{1.0, 1.5, 2.0},
			ARR:    []float64{960, 840, 840},
			Churn:  []float64{0, 0.1, 0.2},
		},
		Baseline: engine.BranchSeries{
			Energy: []float64{1.0, 1.5, 2.0},
			ARR:    []float64{840, 720, 720},
			Churn:  []float64{0, 0.1, 0.3},
		},
		Penalties:         []float64{2, 0, 5},
		Comebacks:         []int{0, 1, 0},
		ChallengerAlive:   []int{0, 1, 3},
		ChallengerChurned: []int{2, 4},
		BaselineAlive:     []int{0, 1},
		BaselineChurned:   []int{2, 3, 4},
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndListRuns(t *testing.T) {
	store := openStore(t)

	config := engine.DefaultConfig()
	config.Seed = 99
	config.EnableInflux = true
	if err := store.SaveRun(config, testReport()); err != nil {
		t.Fatalf("save: %v", err)
	}

	metas, err := store.ListRuns(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("runs: %d", len(metas))
	}
	m := metas[0]
	if m.RunID != "run-under-test" || m.Seed != 99 || !m.Influx {
		t.Fatalf("meta: %+v", m)
	}
	if m.Days != config.Days || m.NumUsers != config.NumUsers || m.MaxUsers != config.MaxUsers {
		t.Fatalf("meta config fields: %+v", m)
	}
	if m.CreatedAt.IsZero() {
		t.Fatal("created_at not parsed")
	}
}

func TestSummary(t *testing.T) {
	store := openStore(t)
	if err := store.SaveRun(engine.DefaultConfig(), testReport()); err != nil {
		t.Fatalf("save: %v", err)
	}

	sum, err := store.Summary("run-under-test")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.ExecutedBatches != 3 {
		t.Fatalf("executed batches: %d", sum.ExecutedBatches)
	}
	if sum.TotalEnergyReal != 4.5 || sum.TotalEnergyBase != 4.5 {
		t.Fatalf("energy: %v/%v", sum.TotalEnergyReal, sum.TotalEnergyBase)
	}
	if sum.TotalARRReal != 2640 || sum.TotalARRBase != 2280 {
		t.Fatalf("arr: %v/%v", sum.TotalARRReal, sum.TotalARRBase)
	}
	if sum.TotalPenalties != 7 || sum.TotalComebacks != 1 {
		t.Fatalf("penalties/comebacks: %v/%d", sum.TotalPenalties, sum.TotalComebacks)
	}
	// Final churn comes from the highest executed batch index.
	if sum.FinalChurnReal != 0.2 || sum.FinalChurnBase != 0.3 {
		t.Fatalf("final churn: %v/%v", sum.FinalChurnReal, sum.FinalChurnBase)
	}
	if sum.ChurnedChallenger != 2 || sum.ChurnedBaseline != 3 {
		t.Fatalf("churned counts: %d/%d", sum.ChurnedChallenger, sum.ChurnedBaseline)
	}
}

func TestSummaryUnknownRun(t *testing.T) {
	store := openStore(t)
	if _, err := store.Summary("no-such-run"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestSaveRunDuplicateID(t *testing.T) {
	store := openStore(t)
	config := engine.DefaultConfig()
	if err := store.SaveRun(config, testReport()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveRun(config, testReport()); err == nil {
		t.Fatal("expected primary key violation on duplicate run id")
	}
}
