package core

// SPIRate selects the storage bus clock rate.
type SPIRate uint8

const (
	RateSlow SPIRate = iota // ~400 kHz, initialization-class traffic
	RateFast                // ~12 MHz, bulk transfer
)

// SPIDriver is the abstract storage-bus interface that core code uses.
// All calls must be made under the shared-bus arbiter when a second SPI
// client may run concurrently.
type SPIDriver interface {
	// Exchange shifts one byte out and returns the byte shifted in.
	Exchange(b byte) byte

	// SetRate reconfigures the bus clock. Persists across transactions.
	SetRate(rate SPIRate)

	// SetChipSelect asserts or deasserts the storage device's chip-select.
	SetChipSelect(assert bool)
}

// Global singleton used by core code.
var spiDriver SPIDriver

// SetSPIDriver is called by target-specific code to register its driver.
func SetSPIDriver(d SPIDriver) {
	spiDriver = d
}

// MustSPI returns the configured driver or panics if missing.
func MustSPI() SPIDriver {
	if spiDriver == nil {
		panic("SPI driver not configured")
	}
	return spiDriver
}
