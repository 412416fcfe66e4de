//go:build rp2040

package main

import (
	"machine"

	"sdbridge/core"
)

// Storage bus clock rates. Slow covers initialization-class traffic where
// SD cards demand <=400kHz; fast is bulk-transfer speed within what the
// RP2040 SPI block and board wiring comfortably do.
const (
	spiRateSlowHz = 400_000
	spiRateFastHz = 12_000_000
)

// RPSPIDriver implements core.SPIDriver on machine.SPI0.
type RPSPIDriver struct {
	bus  *machine.SPI
	rate core.SPIRate
}

// NewRPSPIDriver configures SPI0 at the slow rate with the storage
// chip-select deasserted.
func NewRPSPIDriver() (*RPSPIDriver, error) {
	d := &RPSPIDriver{bus: machine.SPI0, rate: core.RateSlow}

	pinSPICS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinSPICS.High()

	if err := d.configure(spiRateSlowHz); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *RPSPIDriver) configure(hz uint32) error {
	return d.bus.Configure(machine.SPIConfig{
		Frequency: hz,
		SCK:       pinSPISCK,
		SDO:       pinSPIMOSI,
		SDI:       pinSPIMISO,
		Mode:      0,
	})
}

// Exchange shifts one byte out and returns the byte shifted in.
func (d *RPSPIDriver) Exchange(b byte) byte {
	r, err := d.bus.Transfer(b)
	if err != nil {
		// The RP2040 transfer path only errors on misconfiguration;
		// answer like an idle bus.
		return 0xFF
	}
	return r
}

// SetRate reconfigures the bus clock. No-op when already at the rate.
func (d *RPSPIDriver) SetRate(rate core.SPIRate) {
	if rate == d.rate {
		return
	}
	hz := uint32(spiRateSlowHz)
	if rate == core.RateFast {
		hz = spiRateFastHz
	}
	if err := d.configure(hz); err != nil {
		return
	}
	d.rate = rate
}

// SetChipSelect drives the storage chip-select (active low).
func (d *RPSPIDriver) SetChipSelect(assert bool) {
	pinSPICS.Set(!assert)
}
