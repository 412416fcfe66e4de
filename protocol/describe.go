package protocol

import "fmt"

// Describe renders a first control byte as a human-readable summary.
// Used by host-side tooling; firmware never links this.
func Describe(b byte) string {
	switch Classify(b) {
	case ClassShort:
		dir, count := DecodeShort(b)
		return fmt.Sprintf("short %s count=%d", dirName(dir), count)
	case ClassLong:
		return fmt.Sprintf("long header b0=0x%02X count[12:7]=%d (second byte pending)", b, b&0x3F)
	default:
		op, param, ok := DecodeControl(b)
		if !ok {
			return fmt.Sprintf("control reserved op=%d (no-op)", op)
		}
		names := [...]string{"SELECT", "PRESENCE", "SPEED"}
		return fmt.Sprintf("control %s param=%t", names[op], param)
	}
}

// DescribeLong renders a complete two-byte long header.
func DescribeLong(b0, b1 byte) string {
	dir, count := DecodeLong(b0, b1)
	return fmt.Sprintf("long %s count=%d", dirName(dir), count)
}

func dirName(d Direction) string {
	if d == DirRead {
		return "read"
	}
	return "write"
}
