package core

// Line identifies one of the bridge's named digital lines. The 8-bit
// bidirectional data bus is accessed separately through ReadData/WriteData.
type Line uint8

const (
	LineClock      Line = iota // host-driven, toggled once per exchanged byte
	LineRequest                // host-driven, active low
	LineAck                    // device-driven, active low, mirrors request
	LineCardDetect             // active low, external pull-up
	LineCardNotify             // device-driven, active low, pulsed on card changes
	LineActivity               // activity indicator, tracks the SELECT state
)

// DataDir selects who drives the 8 data lines.
type DataDir uint8

const (
	DataInput  DataDir = iota // host drives, device samples
	DataOutput                // device drives
)

// LineDriver is the abstract digital-line interface that core code uses.
// Platform-specific implementations handle actual hardware control; core
// logic never references registers or pin numbers.
type LineDriver interface {
	// ReadLine returns the electrical level of a line (true = high).
	ReadLine(line Line) bool

	// SetLine drives a device-owned line to the given level.
	SetLine(line Line, level bool)

	// ReadData samples the 8 data lines as one byte.
	ReadData() byte

	// WriteData latches a byte onto the data lines. The value appears on
	// the bus once the direction is switched to DataOutput.
	WriteData(b byte)

	// SetDataDir switches the data lines between input and output.
	SetDataDir(dir DataDir)

	// OnRequestEdge registers a callback invoked from interrupt context on
	// every edge of the request line. asserted reflects the logical state
	// after the edge (the line is active low).
	OnRequestEdge(fn func(asserted bool))

	// OnCardDetectEdge registers a callback invoked from interrupt context
	// on every edge of the card-detect line. The driver acknowledges and
	// re-arms the interrupt itself.
	OnCardDetectEdge(fn func())
}

// Global singleton used by core code.
var lineDriver LineDriver

// SetLineDriver is called by target-specific code to register its driver.
func SetLineDriver(d LineDriver) {
	lineDriver = d
}

// MustLines returns the configured driver or panics if missing.
func MustLines() LineDriver {
	if lineDriver == nil {
		panic("line driver not configured")
	}
	return lineDriver
}
