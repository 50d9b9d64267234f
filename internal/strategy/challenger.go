// Package strategy contains the two decision systems under comparison:
// the fixed baseline heuristic and the pluggable challenger adapter.
package strategy

import (
	"context"
	"errors"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/events"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/rules"
)

// #region challenger

// Decision is one challenger verdict for a user. Unrecognized strategy
// labels resolve downstream to the rulebook's neutral default.
type Decision struct {
	Strategy rules.Strategy
}

// Challenger is the adaptive decision system under evaluation. It is
// invoked synchronously once per batch with that batch's synthesized
// event rows and returns a decision per uid. Implementations are opaque
// to the engine; any errors abort the run.
type Challenger interface {
	Decide(ctx context.Context, batch []events.Row) (map[int]Decision, error)
}

// ErrNotImplemented signals that no real challenger model is wired in.
// Running the simulation without one is meaningless, so the engine treats
// this as fatal rather than substituting a default.
var ErrNotImplemented = errors.New("challenger model not implemented")

// Unimplemented is the placeholder challenger. Wire a real decision
// service (see RemoteChallenger) before running.
type Unimplemented struct{}

// Decide always fails with ErrNotImplemented.
func (Unimplemented) Decide(context.Context, []events.Row) (map[int]Decision, error) {
	return nil, ErrNotImplemented
}

// #endregion challenger
