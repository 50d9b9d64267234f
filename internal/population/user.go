// Package population holds the mutable per-user simulation state and the
// branch bookkeeping around it: who is alive, who has churned, and the
// per-batch metric series each branch accumulates.
package population

import (
	"math/rand"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/archetype"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/rules"
)

// RollingWindow is the fixed capacity of a user's activity history.
const RollingWindow = 30

// #region activity-window

// ActivityWindow is a fixed-capacity ring buffer of binary presence flags.
// It is always full; appends evict the oldest entry.
type ActivityWindow struct {
	buf  []uint8
	head int // index of the oldest entry
}

// NewActivityWindow returns a window of the given capacity filled with fill.
func NewActivityWindow(capacity int, fill uint8) *ActivityWindow {
	buf := make([]uint8, capacity)
	for i := range buf {
		buf[i] = fill
	}
	return &ActivityWindow{buf: buf}
}

// Append records a presence flag, evicting the oldest entry.
func (w *ActivityWindow) Append(v uint8) {
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

// Mean returns the average presence over the whole window.
func (w *ActivityWindow) Mean() float64 {
	var sum int
	for _, v := range w.buf {
		sum += int(v)
	}
	return float64(sum) / float64(len(w.buf))
}

// Values returns the window contents ordered oldest to newest.
func (w *ActivityWindow) Values() []int {
	out := make([]int, 0, len(w.buf))
	for i := 0; i < len(w.buf); i++ {
		out = append(out, int(w.buf[(w.head+i)%len(w.buf)]))
	}
	return out
}

// clone returns an independent copy of the window.
func (w *ActivityWindow) clone() *ActivityWindow {
	buf := make([]uint8, len(w.buf))
	copy(buf, w.buf)
	return &ActivityWindow{buf: buf, head: w.head}
}

// #endregion activity-window

// #region user

// User is one simulated user's mutable state. A User is owned by exactly
// one branch and mutated only by the batch loop.
type User struct {
	UID       int
	State     rules.State
	Health    float64 // retention proxy, kept in [0, 1]
	Fatigue   float64 // intervention overexposure, kept in [0, MaxFatigue]
	Activity  *ActivityWindow
	Tier      rules.Tier // immutable after creation
	Archetype string     // immutable reference into the catalog
	Cooldown  int        // archetype-derived advisory spacing
	Recovered bool       // one-way latch, set on the low→high health crossing

	// PrevHealth shadows Health from the prior batch; used only for the
	// comeback crossing check.
	PrevHealth float64
}

// NewUser draws a fresh user: uniform archetype, weighted tier, health
// U(0.6, 1.0), full activity window, stable state.
func NewUser(rng *rand.Rand, uid int, catalog *archetype.Catalog) *User {
	name := catalog.Pick(rng)
	params, _ := catalog.Get(name)
	return &User{
		UID:        uid,
		State:      rules.StateStable,
		Health:     0.6 + rng.Float64()*0.4,
		Fatigue:    0,
		Activity:   NewActivityWindow(RollingWindow, 1),
		Tier:       pickTier(rng),
		Archetype:  name,
		Cooldown:   params.Cooldown,
		Recovered:  false,
		PrevHealth: 1.0,
	}
}

// Clone returns an independent copy of the user, including its activity window.
func (u *User) Clone() *User {
	c := *u
	c.Activity = u.Activity.clone()
	return &c
}

// pickTier draws a value tier with the standard weights.
func pickTier(rng *rand.Rand) rules.Tier {
	tiers := rules.Tiers()
	probs := rules.TierProbs()
	r := rng.Float64()
	var acc float64
	for i, p := range probs {
		acc += p
		if r < acc {
			return tiers[i]
		}
	}
	return tiers[len(tiers)-1]
}

// #endregion user
