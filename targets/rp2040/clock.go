//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"sdbridge/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // Raw timer high word
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// InitClock registers the RP2040's 64-bit 1MHz hardware timer as the
// core's microsecond source.
func InitClock() {
	core.SetTimeSource(hardwareMicros)
}

// hardwareMicros reads the full 64-bit microsecond counter.
// Must read high first, then low, then high again to detect rollover.
func hardwareMicros() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}
