package statemachine

import (
	"context"
	"fmt"
)

// Guard decides whether a transition may run for data.
type Guard[D any] func(ctx context.Context, data D) bool

// Action performs the side effects of a transition. Returning an error aborts
// the transition; actions that already ran are not undone.
type Action[D any] func(ctx context.Context, data D) error

// Observer is notified after a transition completes.
type Observer[S, E comparable, D any] func(ctx context.Context, from, to S, event E, data D)

// Transition moves a record from one state to another on an event.
type Transition[S, E comparable, D any] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[D]  // all must pass
	Actions []Action[D] // run in order before the state changes
}

// Machine is an immutable transition table. Create it with NewBuilder.
type Machine[S, E comparable, D any] struct {
	transitions map[S]map[E][]Transition[S, E, D]
	observers   []Observer[S, E, D]
}

// Fire applies event to a record in state from and returns the new state.
// On error the returned state is from.
func (m *Machine[S, E, D]) Fire(ctx context.Context, from S, event E, data D) (S, error) {
	t, err := m.pick(ctx, from, event, data)
	if err != nil {
		return from, err
	}

	for _, action := range t.Actions {
		if err := action(ctx, data); err != nil {
			return from, err
		}
	}

	for _, observe := range m.observers {
		observe(ctx, from, t.To, event, data)
	}
	return t.To, nil
}

// CanFire reports whether Fire would find a transition. Actions are not run.
func (m *Machine[S, E, D]) CanFire(ctx context.Context, from S, event E, data D) bool {
	_, err := m.pick(ctx, from, event, data)
	return err == nil
}

// IsTerminal reports whether state has no outgoing transitions.
func (m *Machine[S, E, D]) IsTerminal(state S) bool {
	return len(m.transitions[state]) == 0
}

// Events lists the events state reacts to, in no particular order.
func (m *Machine[S, E, D]) Events(state S) []E {
	out := make([]E, 0, len(m.transitions[state]))
	for e := range m.transitions[state] {
		out = append(out, e)
	}
	return out
}

func (m *Machine[S, E, D]) pick(ctx context.Context, from S, event E, data D) (Transition[S, E, D], error) {
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return Transition[S, E, D]{}, &ErrNoTransitionAvailable{State: name(from), Event: name(event)}
	}

next:
	for _, t := range candidates {
		for _, guard := range t.Guards {
			if !guard(ctx, data) {
				continue next
			}
		}
		return t, nil
	}
	return Transition[S, E, D]{}, &ErrTransitionRejected{State: name(from), Event: name(event)}
}

func name(v any) string {
	return fmt.Sprint(v)
}
