package core

import (
	"errors"
	"runtime"
	"sync/atomic"
)

// errHostAbort reports that the host deasserted the request line before the
// current decode or transfer finished. Host-initiated cancellation, not a
// failure; the bridge loop unwinds silently on it.
var errHostAbort = errors.New("request deasserted by host")

// Controller tracks the request handshake and paces every wait the decoder
// and transfer engine perform.
//
// State machine: IDLE -> (request asserted) -> ACTIVE -> (deasserted) -> IDLE.
// The request-assert edge arrives from interrupt context and lands in a
// one-slot wakeup channel, so a wakeup can never be lost even if it fires
// while the transaction goroutine is suspended.
//
// The busy-acknowledge line mirrors the request line. With the software
// fallback the mirror is driven from the edge handler itself; a target may
// instead install a hardware mirror (PIO) and construct the controller with
// hardwareAck set, which keeps the edge handler off the acknowledge line
// entirely.
type Controller struct {
	lines   LineDriver
	wake    chan struct{}
	active  atomic.Bool
	softAck bool

	// clockRef is the clock level every pending host toggle is measured
	// against. Latched at the request-assert edge and advanced only when a
	// wait consumes an edge, so a toggle landing between two waits is still
	// seen by the next one.
	clockRef atomic.Bool
}

// NewController registers the request edge handler and returns the
// controller in IDLE. hardwareAck disables the software acknowledge mirror.
func NewController(lines LineDriver, hardwareAck bool) *Controller {
	c := &Controller{
		lines:   lines,
		wake:    make(chan struct{}, 1),
		softAck: !hardwareAck,
	}
	// Acknowledge idles deasserted (high) until the first request.
	if c.softAck {
		lines.SetLine(LineAck, true)
	}
	lines.OnRequestEdge(c.requestEdge)
	return c
}

// requestEdge runs in interrupt context on every request-line edge.
func (c *Controller) requestEdge(asserted bool) {
	if asserted {
		// Latch the clock reference before the acknowledge mirror releases
		// the host; the host is free to toggle as soon as it sees the ack.
		c.clockRef.Store(c.lines.ReadLine(LineClock))
	}
	if c.softAck {
		// Mirror: acknowledge asserted (low) exactly while request is.
		c.lines.SetLine(LineAck, !asserted)
	}
	if asserted {
		select {
		case c.wake <- struct{}{}:
		default:
			// Wakeup already pending; the loop has not consumed it yet.
		}
	}
}

// WaitRequest blocks until a request-assert edge has been delivered. The
// caller may suspend (low-power sleep) inside this receive.
func (c *Controller) WaitRequest() {
	<-c.wake
}

// RequestAsserted reads the live request level. The line is active low.
func (c *Controller) RequestAsserted() bool {
	return !c.lines.ReadLine(LineRequest)
}

// Active reports whether a transaction is in flight. Safe to call from
// interrupt context.
func (c *Controller) Active() bool {
	return c.active.Load()
}

func (c *Controller) begin() {
	c.active.Store(true)
}

func (c *Controller) end() {
	c.active.Store(false)
}

// waitClockOrAbort blocks until the clock line differs from the carried
// reference level, or returns errHostAbort once the request line deasserts.
// This is the sole waiting point of the decoder and the transfer engine.
// The host clocks blind, one toggle per byte, with no per-byte feedback:
// comparing against the carried reference (rather than re-sampling a
// baseline on entry) means a toggle that lands while the engine is between
// waits, such as during an SPI exchange, is delivered to the next wait
// instead of lost.
func (c *Controller) waitClockOrAbort() error {
	ref := c.clockRef.Load()
	for {
		if !c.RequestAsserted() {
			return errHostAbort
		}
		if cur := c.lines.ReadLine(LineClock); cur != ref {
			c.clockRef.Store(cur)
			return nil
		}
		runtime.Gosched()
	}
}

// waitRequestDeassert blocks until the host releases the request line,
// completing the transaction.
func (c *Controller) waitRequestDeassert() {
	for c.RequestAsserted() {
		runtime.Gosched()
	}
}
