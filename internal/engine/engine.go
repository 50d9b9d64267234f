// Package engine runs the batch simulation: per batch it synthesizes
// events from the challenger branch, obtains actions from both decision
// systems, applies the rulebook to each branch independently, accumulates
// metrics, and optionally admits new users.
package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/archetype"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/events"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/population"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/rules"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/strategy"
)

// #region constants

const (
	maxFatigue      = 5.0
	flatHealthDecay = 0.005
	deathThreshold  = 0.01

	// baselineARRFloor gates baseline revenue recognition. The challenger
	// branch has no such floor.
	baselineARRFloor = 0.2

	logEveryBatches = 500
)

// #endregion constants

// #region engine

// Engine wires the static tables, the synthesizer, and both strategy
// adapters around the batch loop.
type Engine struct {
	config     Config
	rulebook   *rules.Rulebook
	costs      rules.Costs
	tierARR    rules.TierARR
	catalog    *archetype.Catalog
	synth      *events.Synthesizer
	baseline   *strategy.Baseline
	challenger strategy.Challenger
}

// NewEngine creates an engine with default costs, tier revenue, event
// distributions, and baseline tuning. The challenger is injected; pass
// strategy.Unimplemented{} only if you expect the run to abort.
func NewEngine(config Config, rulebook *rules.Rulebook, catalog *archetype.Catalog, challenger strategy.Challenger) *Engine {
	return &Engine{
		config:     config,
		rulebook:   rulebook,
		costs:      rules.DefaultCosts(),
		tierARR:    rules.DefaultTierARR(),
		catalog:    catalog,
		synth:      events.NewSynthesizer(catalog, events.DefaultSynthConfig()),
		baseline:   strategy.NewBaseline(strategy.DefaultBaselineConfig()),
		challenger: challenger,
	}
}

// SetEconomy swaps the cost and revenue tables. Call before Run.
func (e *Engine) SetEconomy(costs rules.Costs, tierARR rules.TierARR) {
	e.costs = costs
	e.tierARR = tierARR
}

// #endregion engine

// #region run

// Run seeds two identical branches from the configured seed and executes
// the full batch loop. The single generator created here is the only
// randomness source for the whole run.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	rng := rand.New(rand.NewSource(e.config.Seed))

	challenger := population.NewBranch("challenger")
	baseline := population.NewBranch("baseline")
	for uid := 0; uid < e.config.NumUsers; uid++ {
		u := population.NewUser(rng, uid, e.catalog)
		challenger.AddUser(u)
		baseline.AddUser(u.Clone())
	}

	return e.RunBranches(ctx, rng, challenger, baseline)
}

// RunBranches executes the batch loop over pre-built branches. Exposed so
// scenarios with hand-seeded populations can drive the same loop.
func (e *Engine) RunBranches(ctx context.Context, rng *rand.Rand, challenger, baseline *population.Branch) (Report, error) {
	report := Report{RunID: uuid.New().String()}

	start := e.config.StartTime
	if start.IsZero() {
		start = time.Now()
	}
	batchMinutes := 24 * 60 / e.config.BatchesPerDay
	total := e.config.TotalBatches()

	log.Printf("[SIM] run=%s starting: batches=%d users=%d influx=%v",
		report.RunID, total, challenger.AliveCount(), e.config.EnableInflux)

	for batch := 0; batch < total; batch++ {
		ts := start.Add(time.Duration(batch*batchMinutes) * time.Minute)

		// Synthesize the batch's events from the challenger branch. The
		// activity-history append is the canonical presence record and
		// happens here, after observing the synthesis outcome.
		var batchRows []events.Row
		for _, uid := range challenger.AliveUIDs() {
			u := challenger.User(uid)
			rows := e.synth.Synthesize(rng, uid, ts, u)
			if len(rows) > 0 {
				batchRows = append(batchRows, rows...)
				u.Activity.Append(1)
			} else {
				u.Activity.Append(0)
			}
		}

		// A batch with no events is skipped outright: no actions, no
		// metric append, no influx.
		if len(batchRows) == 0 {
			continue
		}

		decisions, err := e.challenger.Decide(ctx, batchRows)
		if err != nil {
			return Report{}, fmt.Errorf("challenger decide (batch %d): %w", batch, err)
		}

		// Both systems observe the same alive-user snapshot; only their
		// branch updates diverge.
		alive := challenger.AliveUIDs()
		baselineActions := e.baseline.Compute(rng, e.baselineInput(batch, alive, challenger))

		energyReal, energyBase, arrReal, arrBase, penalties, comebacks :=
			e.applyBatch(alive, challenger, baseline, decisions, baselineActions)

		initial := float64(e.config.NumUsers)
		challenger.RecordBatch(energyReal, arrReal, 1-float64(challenger.AliveCount())/initial)
		baseline.RecordBatch(energyBase, arrBase, 1-float64(baseline.AliveCount())/initial)
		report.Batches = append(report.Batches, batch)
		report.Penalties = append(report.Penalties, penalties)
		report.Comebacks = append(report.Comebacks, comebacks)

		if e.config.EnableInflux && batch%e.config.BatchesPerDay == 0 {
			e.admitInflux(rng, challenger, baseline)
		}

		if batch > 0 && batch%logEveryBatches == 0 {
			log.Printf("[SIM] batch=%d alive=%d/%d churned=%d", batch,
				challenger.AliveCount(), baseline.AliveCount(), len(challenger.ChurnedUIDs()))
		}
	}

	report.Challenger.Energy, report.Challenger.ARR, report.Challenger.Churn = challenger.Series()
	report.Baseline.Energy, report.Baseline.ARR, report.Baseline.Churn = baseline.Series()
	report.ChallengerAlive = challenger.AliveUIDs()
	report.ChallengerChurned = challenger.ChurnedUIDs()
	report.BaselineAlive = baseline.AliveUIDs()
	report.BaselineChurned = baseline.ChurnedUIDs()

	log.Printf("[SIM] run=%s done: challenger churn tail %v", report.RunID, tail(report.Challenger.Churn, 10))
	return report, nil
}

// #endregion run

// #region apply-batch

// applyBatch updates every alive challenger uid in both branches and
// returns the batch totals. Per-user deltas are computed from the
// pre-update snapshot and committed in one place, so iteration order
// cannot leak into the arithmetic.
func (e *Engine) applyBatch(
	alive []int,
	challenger, baseline *population.Branch,
	decisions map[int]strategy.Decision,
	baselineActions map[int]rules.Strategy,
) (energyReal, energyBase, arrReal, arrBase, penalties float64, comebacks int) {
	for _, uid := range alive {
		u := challenger.User(uid)
		action := rules.StrategyObserve
		if d, ok := decisions[uid]; ok {
			action = d.Strategy
		}

		effect := e.rulebook.Lookup(u.State, action)
		e.applyEffect(u, effect)

		if !u.Recovered && u.PrevHealth < 0.4 && u.Health > 0.6 {
			comebacks++
			u.Recovered = true
		}
		u.PrevHealth = u.Health

		if u.Health < deathThreshold {
			challenger.Remove(uid)
			continue
		}

		energyReal += e.costs.Of(action)
		arrReal += e.tierARR.Of(u.Tier)
		penalties += effect.Penalty

		b := baseline.User(uid)
		actionBase, ok := baselineActions[uid]
		if !ok {
			actionBase = rules.StrategyObserve
		}
		effectBase := e.rulebook.Lookup(b.State, actionBase)
		e.applyEffect(b, effectBase)
		penalties += effectBase.Penalty

		if b.Health < deathThreshold {
			baseline.Remove(uid)
			continue
		}

		// Baseline energy is keyed off the challenger's action for the
		// same uid: a same-cost basis for comparison, not the baseline's
		// own spend. Both series share one cost basis.
		energyBase += e.costs.Of(action)
		if b.Health >= baselineARRFloor {
			arrBase += e.tierARR.Of(b.Tier)
		}
	}
	return
}

// applyEffect commits one rulebook effect to a user: health through the
// log-damped delta and flat decay, fatigue through the scaled penalty,
// then the state transition. Every write site clamps.
func (e *Engine) applyEffect(u *population.User, effect rules.Effect) {
	params, _ := e.catalog.Get(u.Archetype)

	// log1p(1-health) damps gains for already-healthy users and amplifies
	// them near the bottom.
	health := u.Health + effect.DHealth*params.HealthMult*math.Log1p(1-u.Health)
	health = clampUnit(health)
	health = clampUnit(health - flatHealthDecay)
	u.Health = health

	fatigue := u.Fatigue + effect.Penalty*params.FatigueMult
	if fatigue > maxFatigue {
		fatigue = maxFatigue
	}
	if fatigue < 0 {
		fatigue = 0
	}
	u.Fatigue = fatigue

	u.State = effect.Next
}

// #endregion apply-batch

// #region baseline-input

// baselineInput snapshots the challenger branch for the heuristic.
func (e *Engine) baselineInput(batch int, alive []int, challenger *population.Branch) strategy.BaselineInput {
	in := strategy.BaselineInput{
		Batch:       batch,
		Alive:       alive,
		Health:      make(map[int]float64, len(alive)),
		Tier:        make(map[int]rules.Tier, len(alive)),
		Fatigue:     make(map[int]float64, len(alive)),
		Activity:    make(map[int][]int, len(alive)),
		LastActions: challenger.LastActions,
	}
	for _, uid := range alive {
		u := challenger.User(uid)
		in.Health[uid] = u.Health
		in.Tier[uid] = u.Tier
		in.Fatigue[uid] = u.Fatigue
		in.Activity[uid] = u.Activity.Values()
	}
	return in
}

// #endregion baseline-input

// #region influx

// admitInflux admits health-rate-scaled new users into both branches.
// Each branch draws its admissions independently; uids stay aligned.
func (e *Engine) admitInflux(rng *rand.Rand, challenger, baseline *population.Branch) {
	rate := population.InfluxRate(challenger.UsersSnapshot(), e.catalog)
	count := int(rate * float64(challenger.Size()))
	admitted := 0
	for i := 0; i < count; i++ {
		if e.config.MaxUsers > 0 && challenger.Size() >= e.config.MaxUsers {
			break
		}
		uid := challenger.MaxUID() + 1
		challenger.AddUser(population.NewUser(rng, uid, e.catalog))
		baseline.AddUser(population.NewUser(rng, uid, e.catalog))
		admitted++
	}
	if admitted > 0 {
		log.Printf("[INFLUX] rate=%.5f admitted=%d population=%d", rate, admitted, challenger.Size())
	}
}

// #endregion influx

// #region helpers

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func tail(vals []float64, n int) []float64 {
	if len(vals) <= n {
		return vals
	}
	return vals[len(vals)-n:]
}

// #endregion helpers
