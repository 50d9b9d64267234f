// Package events synthesizes the per-batch engagement event rows that feed
// strategy decisions. Rows are ephemeral: produced, consumed by the
// strategy adapters within the same batch, and dropped.
package events

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/archetype"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/population"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/rules"
)

// #region row

// Row is one synthetic engagement event, carrying a snapshot of the
// emitting user's scalar state at emission time.
type Row struct {
	UID             int
	Timestamp       time.Time
	EventType       string
	Severity        string
	SessionID       string
	SessionPos      int
	EngagementScore float64

	Health          float64
	Fatigue         float64
	Cooldown        int
	Tier            rules.Tier
	State           rules.State
	RollingActivity float64
	Recovered       bool
}

// #endregion row

// #region config

// SynthConfig holds the event sampling distributions.
type SynthConfig struct {
	EventTypes       []string
	TypeProbsByState map[rules.State][]float64
	DefaultTypeProbs []float64
	Severities       []string
	SeverityProbs    []float64
	TypeScores       map[string]float64
}

// DefaultSynthConfig returns the built-in distributions.
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		EventTypes: []string{"login", "browse", "interact", "purchase", "idle"},
		TypeProbsByState: map[rules.State][]float64{
			rules.StateStable:     {0.2, 0.4, 0.3, 0.05, 0.05},
			rules.StateCycling:    {0.1, 0.3, 0.4, 0.1, 0.1},
			rules.StateErratic:    {0.05, 0.25, 0.4, 0.1, 0.2},
			rules.StateRecovering: {0.3, 0.3, 0.2, 0.1, 0.1},
			rules.StateDisrupted:  {0.1, 0.2, 0.3, 0.05, 0.35},
		},
		DefaultTypeProbs: []float64{0.2, 0.4, 0.3, 0.05, 0.05},
		Severities:       []string{"low", "medium", "high"},
		SeverityProbs:    []float64{0.4, 0.4, 0.2},
		// Scores model implicit behavioral signal strength. Types without
		// an entry score 0.
		TypeScores: map[string]float64{
			"click":      1,
			"scroll":     0.5,
			"video_play": 2,
			"purchase":   5,
			"bounce":     -1,
		},
	}
}

// #endregion config

// #region synthesizer

// Synthesizer produces event rows for one user and batch window. It never
// mutates the user record; activity-history appends are the orchestrator's
// job, after it observes whether any rows came out.
type Synthesizer struct {
	catalog *archetype.Catalog
	config  SynthConfig
}

// NewSynthesizer creates a Synthesizer over the given catalog.
func NewSynthesizer(catalog *archetype.Catalog, config SynthConfig) *Synthesizer {
	return &Synthesizer{catalog: catalog, config: config}
}

// Synthesize returns the user's event rows for the batch starting at ts,
// possibly none. Presence, row count, timing, and event content are all
// drawn from the shared generator.
func (s *Synthesizer) Synthesize(rng *rand.Rand, uid int, ts time.Time, u *population.User) []Row {
	params, ok := s.catalog.Get(u.Archetype)
	if !ok {
		return nil
	}

	if !present(rng, u.Health) {
		return nil
	}

	// Expected row count, damped by fatigue, cooldown, recent absence, and state.
	fatigueDamp := 1 - u.Fatigue
	if fatigueDamp < 0 {
		fatigueDamp = 0
	}
	activityMean := u.Activity.Mean()
	cooldownDamp := 1 - minf(1, 1/float64(u.Cooldown+1))
	base := params.RowMean * u.Health * fatigueDamp * activityMean * params.RowMult(u.State) * cooldownDamp

	count := int(rng.NormFloat64()*base*params.Volatility + base)
	if count <= 0 {
		return nil
	}

	timestamps := spreadTimestamps(rng, ts, count, u.Health)
	sessionID := fmt.Sprintf("%d_%s", uid, ts.Format("2006-01-02"))

	typeProbs, ok := s.config.TypeProbsByState[u.State]
	if !ok {
		typeProbs = s.config.DefaultTypeProbs
	}

	rows := make([]Row, count)
	for i := 0; i < count; i++ {
		eventType := pickWeighted(rng, s.config.EventTypes, typeProbs)
		rows[i] = Row{
			UID:             uid,
			Timestamp:       timestamps[i],
			EventType:       eventType,
			Severity:        pickWeighted(rng, s.config.Severities, s.config.SeverityProbs),
			SessionID:       sessionID,
			SessionPos:      i,
			EngagementScore: s.config.TypeScores[eventType],
			Health:          u.Health,
			Fatigue:         u.Fatigue,
			Cooldown:        u.Cooldown,
			Tier:            u.Tier,
			State:           u.State,
			RollingActivity: activityMean,
			Recovered:       u.Recovered,
		}
	}
	return rows
}

// #endregion synthesizer

// #region presence

// present draws the batch presence flag from health-tiered probability
// bands. Healthy users are always present; decayed users mostly absent.
func present(rng *rand.Rand, health float64) bool {
	switch {
	case health >= 0.8:
		return true
	case health >= 0.5:
		return rng.Float64() < 0.95
	case health >= 0.2:
		return rng.Float64() < 0.8
	default:
		return rng.Float64() < 0.4
	}
}

// #endregion presence

// #region timestamps

// spreadTimestamps places count event times inside the batch window. High
// health yields a tight one-minute ladder; as health falls, jitter widens
// up to three hours and ordering comes from sorting the draws.
func spreadTimestamps(rng *rand.Rand, ts time.Time, count int, health float64) []time.Time {
	out := make([]time.Time, count)
	switch {
	case health >= 0.8:
		for i := range out {
			out[i] = ts.Add(time.Duration(i) * time.Minute)
		}
		return out
	case health >= 0.5:
		for i := range out {
			out[i] = ts.Add(time.Duration(rng.Intn(31)) * time.Minute)
		}
	case health >= 0.2:
		for i := range out {
			out[i] = ts.Add(time.Duration(rng.Intn(61)) * time.Minute)
		}
	default:
		for i := range out {
			out[i] = ts.Add(time.Duration(rng.Intn(181)) * time.Minute)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// #endregion timestamps

// #region helpers

// pickWeighted draws one label from a categorical distribution.
func pickWeighted(rng *rand.Rand, labels []string, probs []float64) string {
	r := rng.Float64()
	var acc float64
	for i, p := range probs {
		acc += p
		if r < acc {
			return labels[i]
		}
	}
	return labels[len(labels)-1]
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// #endregion helpers
