//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/sdcard"

	"sdbridge/core"
)

// initCard brings the SD card through SPI-mode initialization before the
// host sees the bridge. The driver runs the CMD0/CMD8/ACMD41 sequence at
// the mandatory <=400kHz rate; afterwards the bus is put back in a known
// slow state and the host protocol drives raw card traffic itself.
func initCard(spi *RPSPIDriver) error {
	card := sdcard.New(machine.SPI0, pinSPICS)
	if err := card.Configure(); err != nil {
		return err
	}

	// The driver reconfigures the bus behind our back; restore the
	// bridge's notion of the current rate.
	spi.rate = core.RateFast
	spi.SetRate(core.RateSlow)
	spi.SetChipSelect(false)

	core.DebugPrintln("sdcard: initialized")
	return nil
}
