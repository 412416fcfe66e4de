package core

// PresenceMonitor debounces the card-detect line and raises the
// asynchronous card-notify pulse toward the host. It runs entirely from
// the card-detect edge handler, independent of the transaction loop.
//
// Debounce policy: drop-during-window. An edge arriving within the window
// of the last accepted transition is discarded entirely; no deferred
// settling. The stored level is re-read from the line at accept time, so
// the first out-of-window edge resynchronizes the state after any amount
// of bounce.
type PresenceMonitor struct {
	lines    LineDriver
	ctrl     *Controller
	windowUS uint64

	// Touched only from the edge handler; present is additionally read by
	// Presence under an interrupt guard.
	lastEdgeUS uint64
	present    bool
}

const (
	// DefaultDebounceWindowUS suppresses mechanical contact chatter.
	DefaultDebounceWindowUS = 50_000

	// notifyPulseUS is the width of the card-notify pulse.
	notifyPulseUS = 10
)

// NewPresenceMonitor seeds the debounce state from the live line and
// registers the card-detect edge handler.
func NewPresenceMonitor(lines LineDriver, ctrl *Controller, windowUS uint64) *PresenceMonitor {
	if windowUS == 0 {
		windowUS = DefaultDebounceWindowUS
	}
	m := &PresenceMonitor{
		lines:    lines,
		ctrl:     ctrl,
		windowUS: windowUS,
		// Card detect is active low.
		present: !lines.ReadLine(LineCardDetect),
	}
	lines.SetLine(LineCardNotify, true) // idle deasserted
	lines.OnCardDetectEdge(m.cardEdge)
	return m
}

// cardEdge runs in interrupt context on every card-detect edge.
func (m *PresenceMonitor) cardEdge() {
	// Mid-transfer the host learns about card changes through its own
	// PRESENCE query; the edge is dropped and the interrupt re-armed.
	if m.ctrl.Active() {
		return
	}

	now := Micros()
	if now-m.lastEdgeUS < m.windowUS {
		// Bounce inside the window: absorbed, no notification, no update.
		return
	}
	m.lastEdgeUS = now
	m.present = !m.lines.ReadLine(LineCardDetect)
	RecordEvent(EvtCardEdge, boolBit(m.present), 0)
	m.pulseNotify()
}

// pulseNotify asserts card-notify for ~10us so the host can latch the
// change.
func (m *PresenceMonitor) pulseNotify() {
	m.lines.SetLine(LineCardNotify, false)
	DelayMicros(notifyPulseUS)
	m.lines.SetLine(LineCardNotify, true)
}

// Presence returns the debounced card-present state. Idempotent between
// accepted transitions.
func (m *PresenceMonitor) Presence() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return m.present
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
