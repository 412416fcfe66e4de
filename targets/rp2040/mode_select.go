//go:build rp2040

package main

import (
	"device/rp"
	"machine"
	"time"
)

// RunMode selects which subsystem owns the board for this boot: the
// parallel-port bridge or the network file server that acts as the second
// SPI client. The timing-critical bridge path does not tolerate the file
// server's scheduling jitter on the same core, so the two are never
// interleaved dynamically; switching goes through a full restart with the
// chosen mode persisted in a watchdog scratch register. The flag survives
// watchdog resets but not power loss, so a cold boot always lands in
// bridge mode.
type RunMode uint8

const (
	ModeBridge RunMode = iota
	ModeFileServer
)

// modeMagic marks the scratch registers as holding a valid mode flag.
const modeMagic = 0x53444231 // "SDB1"

// GetRunMode reads the persisted mode. Anything but a valid file-server
// flag means bridge mode.
func GetRunMode() RunMode {
	if rp.WATCHDOG.SCRATCH4.Get() != modeMagic {
		return ModeBridge
	}
	if rp.WATCHDOG.SCRATCH5.Get() == uint32(ModeFileServer) {
		return ModeFileServer
	}
	return ModeBridge
}

// SwitchRunMode persists the requested mode and reboots through the
// watchdog. Never returns.
func SwitchRunMode(mode RunMode) {
	rp.WATCHDOG.SCRATCH4.Set(modeMagic)
	rp.WATCHDOG.SCRATCH5.Set(uint32(mode))

	// Watchdog reset is the reliable restart path on RP2040.
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
	if err == nil {
		machine.Watchdog.Start()
	}
	for {
		time.Sleep(time.Millisecond)
	}
}
