//go:build rp2040

package main

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// PIO program mirroring the request line onto the busy-acknowledge line.
// The host's timing budget assumes acknowledge tracks request with
// negligible delay; at the full 125MHz PIO clock the mirror reacts within
// two instructions (~16ns), against the tens to hundreds of nanoseconds
// the software edge-handler fallback needs.
//
//	.wrap_target
//	wait 0 gpio REQUEST   ; request asserted (low)
//	set pins, 0           ; acknowledge asserted
//	wait 1 gpio REQUEST   ; request released
//	set pins, 1           ; acknowledge released
//	.wrap
func buildAckMirrorProgram(requestGPIO uint16) []uint16 {
	return []uint16{
		0x2000 | requestGPIO, // 0: wait 0 gpio request
		0xE000,               // 1: set pins, 0
		0x2080 | requestGPIO, // 2: wait 1 gpio request
		0xE001,               // 3: set pins, 1
	}
}

const ackMirrorOrigin = 0

// PIOAckMirror owns one PIO state machine dedicated to the mirror.
type PIOAckMirror struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	offset uint8
}

// NewPIOAckMirror loads and starts the mirror. On success the software
// fallback must stay off the acknowledge line.
func NewPIOAckMirror(ackPin, requestPin machine.Pin) (*PIOAckMirror, error) {
	m := &PIOAckMirror{pio: rp2pio.PIO0}
	m.sm = m.pio.StateMachine(0)
	m.sm.TryClaim()

	program := buildAckMirrorProgram(uint16(requestPin))
	offset, err := m.pio.AddProgram(program, ackMirrorOrigin)
	if err != nil {
		return nil, err
	}
	m.offset = offset

	ackPin.Configure(machine.PinConfig{Mode: m.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(ackPin, 1)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	// Full speed clock; the program is two instructions per edge.
	cfg.SetClkDivIntFrac(1, 0)

	m.sm.Init(offset, cfg)
	m.sm.SetPindirsConsecutive(ackPin, 1, true)
	m.sm.SetPinsConsecutive(ackPin, 1, true) // idle deasserted
	m.sm.SetEnabled(true)

	return m, nil
}

// Disable halts the mirror, leaving the acknowledge pin to software.
func (m *PIOAckMirror) Disable() {
	m.sm.SetEnabled(false)
}
