// Package statemachine provides a guarded finite state machine whose current
// state lives outside the machine.
//
// A Machine is an immutable transition table built once and shared. Records
// that move through a lifecycle keep their own state; Fire takes that state,
// picks the first transition whose guards pass, runs its actions and returns the
// target state. Because the machine never holds per-record state it is safe for
// concurrent use without locking.
//
// # Usage
//
//	type State string
//	type Event string
//
//	m := statemachine.NewBuilder[State, Event, *Order]().
//		From("pending").When("pay").To("paid").
//			WithGuard(func(ctx context.Context, o *Order) bool { return o.Total > 0 }).
//			WithAction(chargeCard).
//			Add().
//		From("pending").When("cancel").To("cancelled").Add().
//		MustBuild()
//
//	next, err := m.Fire(ctx, order.State, "pay", order)
//
// Several transitions may share a source state and event. They are tried in
// the order they were added and the first one whose guards all pass wins, so
// guarded branches go before the fallback.
//
// # Errors
//
// Fire returns *ErrNoTransitionAvailable when the state has no transition for
// the event and *ErrTransitionRejected when every candidate was blocked by a
// guard. An action error aborts the transition and is returned unchanged, so
// callers can match their own sentinels with errors.Is.
package statemachine
