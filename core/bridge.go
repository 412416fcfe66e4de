// Package core implements the parallel-port to SD bridge: the handshake
// controller, control-byte decoder, clocked transfer engine, card-presence
// monitor and shared-bus arbiter. It is platform-agnostic and talks to
// hardware only through the registered LineDriver and SPIDriver.
package core

import (
	"sync/atomic"
	"time"
)

// Config wires a Bridge. Zero values fall back to the registered HAL
// singletons and the package defaults.
type Config struct {
	Lines LineDriver // nil = MustLines()
	SPI   SPIDriver  // nil = MustSPI()

	// HardwareAckMirror tells the controller the target mirrors the
	// request line onto busy-acknowledge in hardware (PIO), so the
	// software fallback in the edge handler stays off.
	HardwareAckMirror bool

	// DebounceWindowUS overrides the card-detect debounce window.
	DebounceWindowUS uint64

	// ArbiterBound overrides the shared-bus acquire bound.
	ArbiterBound time.Duration
}

// Bridge is the single sequential transaction loop: suspend until the
// request-assert wakeup, process one complete transaction, repeat. No
// internal parallelism; the response budget is reasoned about on one
// logical thread of control.
type Bridge struct {
	lines LineDriver
	ctrl  *Controller
	dec   *decoder
	arb   *BusArbiter
	media *MediaFlag
	mon   *PresenceMonitor

	busTimeouts atomic.Uint32
}

// New builds a bridge and arms its edge handlers. The data lines start in
// input so the host owns the bus.
func New(cfg Config) *Bridge {
	lines := cfg.Lines
	if lines == nil {
		lines = MustLines()
	}
	spi := cfg.SPI
	if spi == nil {
		spi = MustSPI()
	}

	arb := NewBusArbiter(cfg.ArbiterBound)
	media := &MediaFlag{}
	ctrl := NewController(lines, cfg.HardwareAckMirror)
	mon := NewPresenceMonitor(lines, ctrl, cfg.DebounceWindowUS)
	engine := &transferEngine{
		lines: lines,
		spi:   spi,
		ctrl:  ctrl,
		arb:   arb,
		media: media,
	}
	dec := &decoder{
		lines:   lines,
		spi:     spi,
		ctrl:    ctrl,
		arb:     arb,
		monitor: mon,
		engine:  engine,
	}

	lines.SetDataDir(DataInput)
	return &Bridge{
		lines: lines,
		ctrl:  ctrl,
		dec:   dec,
		arb:   arb,
		media: media,
		mon:   mon,
	}
}

// Arbiter exposes the shared-bus token to the second SPI client.
func (b *Bridge) Arbiter() *BusArbiter {
	return b.arb
}

// Media exposes the media-modified signal to the second SPI client.
func (b *Bridge) Media() *MediaFlag {
	return b.media
}

// Monitor returns the card-presence monitor.
func (b *Bridge) Monitor() *PresenceMonitor {
	return b.mon
}

// BusTimeouts returns how many transactions died on an arbiter timeout.
func (b *Bridge) BusTimeouts() uint32 {
	return b.busTimeouts.Load()
}

// Run executes the transaction loop. It never returns under normal
// operation.
func (b *Bridge) Run() {
	for {
		b.runOnce()
	}
}

// runOnce processes a single transaction: wakeup, decode, optional data
// phase, then handshake completion. Whatever happened mid-transaction, the
// data lines are back in input and the controller back in IDLE when it
// returns.
func (b *Bridge) runOnce() {
	b.ctrl.WaitRequest()
	if !b.ctrl.RequestAsserted() {
		// Request already released again; nothing to decode.
		return
	}
	b.ctrl.begin()
	RecordEvent(EvtWake, 0, 0)

	switch err := b.dec.dispatch(); err {
	case nil:
	case errHostAbort:
		// Host cancellation: silently unwound, no side effects reported.
		RecordEvent(EvtAbort, 0, 0)
	default:
		// Arbiter timeout. The host will see the device stall on this
		// transaction; propagate toward platform fault handling via the
		// trace ring and debug channel.
		n := b.busTimeouts.Add(1)
		RecordEvent(EvtBusTimeout, n, 0)
		DebugPrintln("bridge: " + err.Error())
	}

	b.ctrl.waitRequestDeassert()
	b.lines.SetDataDir(DataInput)
	b.ctrl.end()
}
