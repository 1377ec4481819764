package statemachine

import "fmt"

// Builder assembles a Machine with a fluent API. The first invalid transition
// is reported by Build.
type Builder[S, E comparable, D any] struct {
	machine *Machine[S, E, D]
	current Transition[S, E, D]
	open    bool
	err     error
}

// NewBuilder starts an empty machine.
func NewBuilder[S, E comparable, D any]() *Builder[S, E, D] {
	return &Builder[S, E, D]{
		machine: &Machine[S, E, D]{transitions: make(map[S]map[E][]Transition[S, E, D])},
	}
}

// From starts a transition leaving state.
func (b *Builder[S, E, D]) From(state S) *Builder[S, E, D] {
	b.current = Transition[S, E, D]{From: state}
	b.open = true
	return b
}

// When sets the event of the current transition.
func (b *Builder[S, E, D]) When(event E) *Builder[S, E, D] {
	b.current.Event = event
	return b
}

// To sets the target state of the current transition.
func (b *Builder[S, E, D]) To(state S) *Builder[S, E, D] {
	b.current.To = state
	return b
}

// WithGuard adds a guard to the current transition. Nil guards are ignored.
func (b *Builder[S, E, D]) WithGuard(guard Guard[D]) *Builder[S, E, D] {
	if guard != nil {
		b.current.Guards = append(b.current.Guards, guard)
	}
	return b
}

// WithAction adds an action to the current transition. Nil actions are ignored.
func (b *Builder[S, E, D]) WithAction(action Action[D]) *Builder[S, E, D] {
	if action != nil {
		b.current.Actions = append(b.current.Actions, action)
	}
	return b
}

// Add finalizes the current transition.
func (b *Builder[S, E, D]) Add() *Builder[S, E, D] {
	if b.err != nil {
		return b
	}

	t := b.current
	b.current = Transition[S, E, D]{}
	var (
		zeroS S
		zeroE E
	)
	if !b.open || t.From == zeroS || t.To == zeroS || t.Event == zeroE {
		b.err = fmt.Errorf("%w: %v -> %v on %v", ErrInvalidTransition, t.From, t.To, t.Event)
		return b
	}
	b.open = false

	byEvent, ok := b.machine.transitions[t.From]
	if !ok {
		byEvent = make(map[E][]Transition[S, E, D])
		b.machine.transitions[t.From] = byEvent
	}
	byEvent[t.Event] = append(byEvent[t.Event], t)
	return b
}

// OnTransition registers an observer called after every completed transition.
func (b *Builder[S, E, D]) OnTransition(fn Observer[S, E, D]) *Builder[S, E, D] {
	if fn != nil {
		b.machine.observers = append(b.machine.observers, fn)
	}
	return b
}

// Build returns the machine or the first definition error.
func (b *Builder[S, E, D]) Build() (*Machine[S, E, D], error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.machine.transitions) == 0 {
		return nil, ErrEmptyMachine
	}
	return b.machine, nil
}

// MustBuild is Build that panics on a definition error. Use it for
// lifecycles declared in code.
func (b *Builder[S, E, D]) MustBuild() *Machine[S, E, D] {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}
