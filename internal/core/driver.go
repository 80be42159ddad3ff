package core

import (
	"context"
	"time"

	"wumpus/internal/logging"
	"wumpus/internal/types"
)

// StepRecord traces one percept → infer → decide → act cycle.
type StepRecord struct {
	N         int            `json:"n"`
	Location  types.Location `json:"location"` // where the percept was taken
	Percept   types.Percept  `json:"percept"`
	Action    types.Action   `json:"-"`
	Reason    Reason         `json:"reason"`
	Result    types.Result   `json:"-"`
	After     types.Location `json:"after"`
	Added     []types.Fact   `json:"-"`
	Retracted []types.Fact   `json:"-"`
	Duration  time.Duration  `json:"duration"`
}

// Observer receives every step record.
type Observer interface {
	OnStep(rec StepRecord)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(rec StepRecord)

// OnStep implements Observer.
func (f ObserverFunc) OnStep(rec StepRecord) { f(rec) }

// Step runs one full cycle. After the episode has ended it returns the zero record.
func (a *Agent) Step() StepRecord {
	if a.Done() {
		return StepRecord{}
	}
	start := time.Now()
	a.steps++

	here := a.env.AgentLocation()
	a.state.Location = here
	a.state.Visited[here] = true

	rec := StepRecord{N: a.steps, Location: here}
	rec.Percept = a.env.Perceive(here)
	rec.Added = append(rec.Added, a.interpreter.Interpret(here, rec.Percept)...)

	inferred := a.engine.Infer(&a.state)
	rec.Added = append(rec.Added, inferred.Added...)
	rec.Retracted = append(rec.Retracted, inferred.Retracted...)

	decision := a.policy.Decide(&a.state)
	rec.Action, rec.Reason = decision.Action, decision.Reason

	rec.Result = a.env.Apply(decision.Action)
	added, retracted := a.absorb(decision.Action, rec.Result)
	rec.Added = append(rec.Added, added...)
	rec.Retracted = append(rec.Retracted, retracted...)

	rec.After = a.env.AgentLocation()
	a.state.Location = rec.After
	rec.Duration = time.Since(start)

	logging.Kernel("step %d at %s: %s -> %s", rec.N, here, rec.Action, rec.Result.Outcome)
	for _, o := range a.observers {
		o.OnStep(rec)
	}
	return rec
}

// absorb feeds an action result back into the agent's state and knowledge base.
func (a *Agent) absorb(action types.Action, res types.Result) (added, retracted []types.Fact) {
	if action.Kind == types.ActionShoot {
		a.state.HasArrow = false
	}
	if res.ItemCollected {
		a.state.HasItem = true
		glitter := types.Fact{Kind: types.Glitter, At: a.state.Location}
		if a.store.Retract(glitter) {
			retracted = append(retracted, glitter)
		}
	}
	if res.HazardKilled {
		cleaned, removed := a.eliminateWumpus()
		added = append(added, cleaned...)
		retracted = append(retracted, removed...)
	}
	if res.Outcome == types.Died {
		a.state.Alive = false
	}
	a.outcome = res.Outcome
	return added, retracted
}

// eliminateWumpus retracts every WumpusAt fact and turns every Stench into NoStench.
func (a *Agent) eliminateWumpus() (added, retracted []types.Fact) {
	for _, f := range a.store.FactsOf(types.WumpusAt) {
		if a.store.Retract(f) {
			retracted = append(retracted, f)
		}
	}
	for _, f := range a.store.FactsOf(types.Stench) {
		if a.store.Retract(f) {
			retracted = append(retracted, f)
		}
		clean := types.Fact{Kind: types.NoStench, At: f.At}
		if a.store.Assert(clean) {
			added = append(added, clean)
		}
	}
	logging.Kernel("wumpus eliminated: retracted %d facts", len(retracted))
	return added, retracted
}

// Run steps until the episode ends, maxSteps is reached (0 means no limit) or ctx is
// cancelled. Cancellation is only observed between steps.
func (a *Agent) Run(ctx context.Context, maxSteps int) (types.Outcome, error) {
	for !a.Done() {
		if maxSteps > 0 && a.steps >= maxSteps {
			logging.Get(logging.CategoryKernel).Warn("step limit %d reached at %s", maxSteps, a.state.Location)
			break
		}
		if err := ctx.Err(); err != nil {
			return a.outcome, err
		}
		a.Step()
	}
	return a.outcome, nil
}
