// Package entitlement decides what an account may do: which plan it holds, how
// many lesson-plan generations it has left, when a time-bounded grant lapses and
// who holds a seat in a school team.
//
// # Overview
//
// The Catalog maps plan ids to quotas and seat limits and is the only place those
// numbers live. The Service is the single entry point for every operation; each
// one loads the account, sweeps an expired grant back to Free, evaluates the
// request and saves the record with an optimistic version check:
//
//	svc := entitlement.New(store, entitlement.DefaultCatalog(),
//		entitlement.WithLogger(log),
//	)
//
//	acc, err := svc.TryConsume(ctx, accountID)
//	if errors.Is(err, entitlement.ErrQuotaExceeded) {
//		// offer an upgrade, do not call the generator
//	}
//
// # Concurrency
//
// Every read-modify-write cycle compares the stored Version before writing.
// A conflicting write is retried up to three times (see WithMaxAttempts) and
// then surfaced as ErrConcurrencyConflict. A Locker can be plugged in to
// serialize hot accounts across processes.
//
// # Errors
//
// Domain outcomes (quota, seats, invite state, not found) are returned as the
// package sentinels and are never logged as failures. Storage failures are
// logged with the account id and operation, then wrapped in
// ErrPersistenceUnavailable.
package entitlement
