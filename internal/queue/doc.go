// Package queue implements the fixed-capacity blocking queue that connects the
// stages of the clustering pipeline.
//
// # Protocol
//
// A Bounded queue is a ring of slots guarded by one mutex and two counting
// semaphores: "free" (initially the capacity) and "filled" (initially zero).
//
//	Put:  register producer ─► wait(free)   ─► lock, store, unregister ─► post(filled)
//	Get:  register consumer ─► wait(filled) ─► lock, take,  unregister ─► post(free)
//
// Registration happens under the mutex before the semaphore wait, so a shutdown
// that happens between the done check and the wait still reaches the waiter.
//
// # Shutdown
//
// SetDone marks that no further Put will succeed. It does not wake anyone;
// WakeAllProducers and WakeAllConsumers post exactly one token per registered
// waiter. HandleError combines all three and is the only abort primitive the
// pipeline uses.
//
// After done, Get keeps returning queued values until the queue is empty and then
// returns ErrDrained without blocking.
package queue
