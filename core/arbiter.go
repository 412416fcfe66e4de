package core

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrBusTimeout reports that the SPI bus could not be acquired within the
// arbiter's bound. Fatal for the current transaction: the real-time
// contract toward the host cannot be honored once the bus is wedged.
var ErrBusTimeout = errors.New("spi bus arbiter: acquire timed out")

// DefaultArbiterBound is the default acquire bound. The other client's
// critical sections are card-command sized; anything longer means it is
// stuck, not busy.
const DefaultArbiterBound = 250 * time.Millisecond

// BusArbiter serializes SPI bus access between the bridge and a second,
// independent SPI client running on another core. It is a binary semaphore:
// acquire is blocking with a bounded wait, release is immediate. Holders
// must never keep it across a host-driven wait (clock or request line),
// only across the SPI operation itself.
type BusArbiter struct {
	sem   chan struct{}
	bound time.Duration
}

// NewBusArbiter returns an arbiter with the bus token available.
func NewBusArbiter(bound time.Duration) *BusArbiter {
	if bound <= 0 {
		bound = DefaultArbiterBound
	}
	a := &BusArbiter{
		sem:   make(chan struct{}, 1),
		bound: bound,
	}
	a.sem <- struct{}{}
	return a
}

// Acquire takes the bus token, waiting up to the arbiter's bound. Returns
// ErrBusTimeout if the other client failed to release in time.
func (a *BusArbiter) Acquire() error {
	select {
	case <-a.sem:
		return nil
	default:
	}
	t := time.NewTimer(a.bound)
	defer t.Stop()
	select {
	case <-a.sem:
		return nil
	case <-t.C:
		return ErrBusTimeout
	}
}

// Release returns the bus token. Releasing an unheld arbiter is a no-op.
func (a *BusArbiter) Release() {
	select {
	case a.sem <- struct{}{}:
	default:
	}
}

// MediaFlag is the set-only "media modified" signal a completed host write
// raises for the second SPI client, whose cached view of the card contents
// is stale once the host has written underneath it. The bridge only sets
// it; the other context consumes it.
type MediaFlag struct {
	modified atomic.Bool
}

// Set marks the medium as modified.
func (f *MediaFlag) Set() {
	f.modified.Store(true)
}

// Consume returns whether the medium was modified since the last call and
// clears the flag. Only the second SPI client calls this.
func (f *MediaFlag) Consume() bool {
	return f.modified.Swap(false)
}
