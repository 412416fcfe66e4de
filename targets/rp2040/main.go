//go:build rp2040

package main

import (
	"machine"
	"time"

	"sdbridge/core"
)

func main() {
	// Disable watchdog on boot to clear any state left by a mode switch.
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitClock()
	initDebug()

	if GetRunMode() == ModeFileServer {
		// This boot belongs to the network file server (the second SPI
		// client); the bridge stays cold until the flag flips back.
		runFileServerMode()
		return
	}

	lines := NewRPLineDriver()
	lines.Configure()
	core.SetLineDriver(lines)

	spi, err := NewRPSPIDriver()
	if err != nil {
		core.DebugPrintln("spi: " + err.Error())
		blinkFatal()
	}
	core.SetSPIDriver(spi)

	if err := initCard(spi); err != nil {
		core.DebugPrintln("sdcard: " + err.Error())
		blinkFatal()
	}

	// Hardware acknowledge mirror; fall back to the edge handler if the
	// PIO block is unavailable.
	hwAck := true
	if _, err := NewPIOAckMirror(pinAck, pinRequest); err != nil {
		core.DebugPrintln("pio mirror unavailable, software fallback: " + err.Error())
		hwAck = false
	}

	bridge := core.New(core.Config{HardwareAckMirror: hwAck})

	// The second SPI client, when built in, attaches here:
	// bridge.Arbiter() guards the bus, bridge.Media() carries the
	// host-wrote-underneath-you signal. See examples/secondclient.

	go debugConsole(bridge)

	core.DebugPrintln("bridge: ready")
	bridge.Run() // never returns
}

// runFileServerMode parks this core for the file-server firmware. The
// server itself is a separate subsystem; all this build offers it is the
// way back to bridge mode.
func runFileServerMode() {
	core.DebugPrintln("file-server mode (bridge cold); send 'b' to switch back")
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		if machine.Serial.Buffered() > 0 {
			if b, err := machine.Serial.ReadByte(); err == nil && b == 'b' {
				SwitchRunMode(ModeBridge)
			}
		}
		led.Set(!led.Get())
		time.Sleep(time.Second)
	}
}

// initDebug routes core debug output to the serial console.
func initDebug() {
	core.SetDebugWriter(func(s string) { println(s) })
	core.SetDebugEnabled(true)
}

// debugConsole services single-letter commands from the monitor CLI. It
// never touches bridge state beyond counters and the trace ring.
func debugConsole(bridge *core.Bridge) {
	for {
		if machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err == nil {
				handleConsoleByte(bridge, b)
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func handleConsoleByte(bridge *core.Bridge, b byte) {
	switch b {
	case 't':
		core.DumpTrace()
	case 'c':
		core.ClearTrace()
		core.DebugPrintln("trace cleared")
	case 's':
		present := "0"
		if bridge.Monitor().Presence() {
			present = "1"
		}
		core.DebugPrintln("[STAT] present=" + present)
		core.DebugPrintln("[STAT] bus_timeouts=" + utoa(bridge.BusTimeouts()))
	case 'f':
		core.DebugPrintln("switching to file-server mode")
		SwitchRunMode(ModeFileServer)
	}
}

// blinkFatal signals an unrecoverable bring-up error.
func blinkFatal() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}

// utoa converts an unsigned integer to a string without importing strconv
// (for embedded)
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
