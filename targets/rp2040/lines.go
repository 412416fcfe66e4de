//go:build rp2040

package main

import (
	"device/rp"
	"machine"

	"sdbridge/core"
)

// Bridge pin map. The 8 data lines sit on GPIO0-7 so the whole bus maps
// onto the low byte of the SIO GPIO registers and moves in one access.
const (
	pinClock      = machine.GPIO8  // host-driven byte clock
	pinRequest    = machine.GPIO9  // host-driven, active low
	pinAck        = machine.GPIO10 // busy-acknowledge, active low
	pinCardDetect = machine.GPIO11 // active low, external pull-up
	pinCardNotify = machine.GPIO12 // active low pulse toward the host
	pinActivity   = machine.GPIO13 // activity indicator

	// Storage bus on SPI0.
	pinSPIMISO = machine.GPIO16
	pinSPICS   = machine.GPIO17
	pinSPISCK  = machine.GPIO18
	pinSPIMOSI = machine.GPIO19
)

const dataMask = 0x000000FF // GPIO0-7

// RPLineDriver implements core.LineDriver on the RP2040. Single lines go
// through machine.Pin; the data bus goes straight at the SIO registers
// because the transfer engine touches it once per host clock.
type RPLineDriver struct {
	reqFn  func(bool)
	cardFn func()
}

// lineDrv is the registered driver; pin interrupt trampolines need it.
var lineDrv *RPLineDriver

// NewRPLineDriver creates the driver. Call Configure before use.
func NewRPLineDriver() *RPLineDriver {
	lineDrv = &RPLineDriver{}
	return lineDrv
}

// Configure claims and initializes every bridge line. Data lines start as
// inputs: the host owns the bus outside of read replies.
func (d *RPLineDriver) Configure() {
	for gpio := machine.GPIO0; gpio <= machine.GPIO7; gpio++ {
		gpio.Configure(machine.PinConfig{Mode: machine.PinInput})
	}

	pinClock.Configure(machine.PinConfig{Mode: machine.PinInput})
	pinRequest.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pinCardDetect.Configure(machine.PinConfig{Mode: machine.PinInput})

	pinAck.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinAck.High() // deasserted
	pinCardNotify.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinCardNotify.High()
	pinActivity.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinActivity.Low()

	// Both edges on both monitored lines. The handlers re-arm themselves.
	pinRequest.SetInterrupt(machine.PinRising|machine.PinFalling, requestEdgeISR)
	pinCardDetect.SetInterrupt(machine.PinRising|machine.PinFalling, cardEdgeISR)
}

func requestEdgeISR(p machine.Pin) {
	if lineDrv != nil && lineDrv.reqFn != nil {
		// Request is active low.
		lineDrv.reqFn(!p.Get())
	}
}

func cardEdgeISR(machine.Pin) {
	if lineDrv != nil && lineDrv.cardFn != nil {
		lineDrv.cardFn()
	}
}

func (d *RPLineDriver) pin(line core.Line) machine.Pin {
	switch line {
	case core.LineClock:
		return pinClock
	case core.LineRequest:
		return pinRequest
	case core.LineAck:
		return pinAck
	case core.LineCardDetect:
		return pinCardDetect
	case core.LineCardNotify:
		return pinCardNotify
	default:
		return pinActivity
	}
}

func (d *RPLineDriver) ReadLine(line core.Line) bool {
	return d.pin(line).Get()
}

func (d *RPLineDriver) SetLine(line core.Line, level bool) {
	d.pin(line).Set(level)
}

func (d *RPLineDriver) ReadData() byte {
	return byte(rp.SIO.GPIO_IN.Get() & dataMask)
}

func (d *RPLineDriver) WriteData(b byte) {
	// Single masked store so the byte appears atomically on the bus.
	out := rp.SIO.GPIO_OUT.Get()
	rp.SIO.GPIO_OUT.Set(out&^dataMask | uint32(b))
}

func (d *RPLineDriver) SetDataDir(dir core.DataDir) {
	if dir == core.DataOutput {
		rp.SIO.GPIO_OE_SET.Set(dataMask)
	} else {
		rp.SIO.GPIO_OE_CLR.Set(dataMask)
	}
}

func (d *RPLineDriver) OnRequestEdge(fn func(asserted bool)) {
	d.reqFn = fn
}

func (d *RPLineDriver) OnCardDetectEdge(fn func()) {
	d.cardFn = fn
}
