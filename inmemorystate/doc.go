// Package inmemorystate provides an ephemeral, thread-safe, in-memory
// implementation of the formstate.Provider interface.
//
// # Characteristics
//
//   - **Ephemeral:** Created fresh for each form instance, not persistent
//   - **Copy-on-write:** Documents are replaced, never mutated in place, so a
//     commit is one pointer swap under the lock
//   - **Isolated:** Values handed in and out are deep-copied, callers never
//     share maps with the provider
//
// # Concurrency Model
//
// A single RWMutex guards the documents and the validator table. Subscribers
// are notified synchronously after the lock is released, in subscription
// order, so they may call back into the provider.
//
// Validators run without holding the lock. Every registration carries a
// token; a result produced by a registration that has since been replaced or
// removed is discarded instead of being written to the errors document.
package inmemorystate
