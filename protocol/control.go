// Package protocol defines the control-byte encoding of the parallel-port
// disk protocol. The host starts every transaction by presenting one control
// byte on the data lines; its top two bits select the interpretation:
//
//	0xxxxxxx  short transfer header: bit6 = direction, bits 0-5 = byte count
//	10xxxxxx  long transfer header: a second byte follows after one clock
//	          transition; count = ((b0&0x3F)<<7)|(b1&0x7F), direction = b1 bit7
//	11xxxxxx  immediate control operation: bits 1-5 = op code, bit 0 = parameter
//
// The package is pure and shared between the firmware decoder and host-side
// tooling.
package protocol

// Class is the interpretation class of a first control byte.
type Class uint8

const (
	ClassShort   Class = iota // single-byte transfer header
	ClassLong                 // two-byte transfer header
	ClassControl              // immediate control operation, no data phase
)

// Direction of a data phase, from the host's point of view.
type Direction uint8

const (
	DirWrite Direction = iota // host -> storage
	DirRead                   // storage -> host
)

// Op is an immediate control operation code (bits 1-5 of a control-class
// byte). Codes above OpSpeed are reserved.
type Op uint8

const (
	OpSelect   Op = 0 // assert/deassert the storage chip-select
	OpPresence Op = 1 // report debounced card presence on the data lines
	OpSpeed    Op = 2 // select fast/slow SPI clock rate
)

const (
	// MaxShortCount is the largest byte count a short header can carry.
	MaxShortCount = 0x3F
	// MaxLongCount is the largest byte count a long header can carry.
	MaxLongCount = 0x1FFF
)

// Classify returns the interpretation class of a first control byte.
// Every byte value belongs to exactly one class.
func Classify(b byte) Class {
	switch {
	case b&0x80 == 0:
		return ClassShort
	case b&0x40 == 0:
		return ClassLong
	default:
		return ClassControl
	}
}

// DecodeShort decodes a short transfer header. Valid only for ClassShort
// bytes; for other classes the result is meaningless.
func DecodeShort(b byte) (Direction, int) {
	dir := DirWrite
	if b&0x40 != 0 {
		dir = DirRead
	}
	return dir, int(b & 0x3F)
}

// DecodeLong decodes a two-byte long transfer header. b0 must be a ClassLong
// byte; b1 is the byte sampled after the following clock transition.
func DecodeLong(b0, b1 byte) (Direction, int) {
	dir := DirWrite
	if b1&0x80 != 0 {
		dir = DirRead
	}
	return dir, int(b0&0x3F)<<7 | int(b1&0x7F)
}

// DecodeControl decodes a control-class byte into an operation code and its
// one-bit parameter. ok is false for reserved op codes (3-31), which the
// bridge treats as no-ops.
func DecodeControl(b byte) (op Op, param bool, ok bool) {
	op = Op(b >> 1 & 0x1F)
	return op, b&0x01 != 0, op <= OpSpeed
}

// EncodeShort builds a short transfer header. count is masked to
// MaxShortCount.
func EncodeShort(dir Direction, count int) byte {
	b := byte(count) & 0x3F
	if dir == DirRead {
		b |= 0x40
	}
	return b
}

// EncodeLong builds a two-byte long transfer header. count is masked to
// MaxLongCount.
func EncodeLong(dir Direction, count int) (b0, b1 byte) {
	b0 = 0x80 | byte(count>>7)&0x3F
	b1 = byte(count) & 0x7F
	if dir == DirRead {
		b1 |= 0x80
	}
	return b0, b1
}

// EncodeControl builds a control-class byte.
func EncodeControl(op Op, param bool) byte {
	b := 0xC0 | byte(op)<<1&0x3E
	if param {
		b |= 0x01
	}
	return b
}
