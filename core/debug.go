package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures one transaction-loop event for post-mortem analysis
type TraceEvent struct {
	Kind   uint8  // Event kind code
	MicroS uint32 // Low 32 bits of the microsecond clock at capture
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event kind codes
const (
	EvtWake       = 1 // request asserted, transaction started
	EvtDecode     = 2 // control byte sampled
	EvtXferDone   = 3 // data phase completed
	EvtAbort      = 4 // host deasserted request mid-transaction
	EvtCardEdge   = 5 // card-detect transition accepted
	EvtBusTimeout = 6 // arbiter acquire timed out
)

const traceRingSize = 32 // Keep last 32 events for post-mortem

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active.
	// Disabled by default; the hot path must stay free of formatting.
	debugEnabled bool

	traceRing     [traceRingSize]TraceEvent
	traceRingHead uint8
	traceEnabled  = true // Always capture; capture is a few stores
)

// SetDebugWriter sets the platform-specific debug output function.
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures a trace event in the ring buffer. Non-blocking and
// cheap enough for the transaction hot path. Callers include the
// card-detect edge handler, so the ring update runs with interrupts
// masked to keep head and slot consistent.
func RecordEvent(kind uint8, v1, v2 uint32) {
	if !traceEnabled {
		return
	}
	state := disableInterrupts()
	idx := traceRingHead
	traceRing[idx] = TraceEvent{
		Kind:   kind,
		MicroS: uint32(Micros()),
		Value1: v1,
		Value2: v2,
	}
	traceRingHead = (idx + 1) % traceRingSize
	restoreInterrupts(state)
}

// DumpTrace outputs the trace ring, oldest first. Call outside the
// timing-critical path (idle, or from the debug console handler).
func DumpTrace() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Transaction Trace ===")
	start := traceRingHead
	for i := uint8(0); i < traceRingSize; i++ {
		idx := (start + i) % traceRingSize
		evt := &traceRing[idx]
		if evt.Kind == 0 {
			continue // Empty slot
		}

		var name string
		switch evt.Kind {
		case EvtWake:
			name = "WAKE"
		case EvtDecode:
			debugPrintln("[TRACE] DECODE us=" + utoa(evt.MicroS) +
				" byte=0x" + htoa(byte(evt.Value1)))
			continue
		case EvtXferDone:
			name = "XFER_DONE"
		case EvtAbort:
			name = "ABORT"
		case EvtCardEdge:
			name = "CARD_EDGE"
		case EvtBusTimeout:
			name = "BUS_TIMEOUT!"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TRACE] " + name +
			" us=" + utoa(evt.MicroS) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TRACE] === End Trace ===")
}

// ClearTrace clears the trace buffer
func ClearTrace() {
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
}
