package core

// timeSource is the platform microsecond counter. Registered by target
// code at boot; the !tinygo build installs a wall-clock fallback so host
// tests work without one.
var timeSource func() uint64

// SetTimeSource registers the platform microsecond counter.
func SetTimeSource(f func() uint64) {
	timeSource = f
}

// Micros returns the current time in microseconds since an arbitrary epoch.
func Micros() uint64 {
	if timeSource == nil {
		panic("time source not configured")
	}
	return timeSource()
}

// DelayMicros busy-waits for at least n microseconds. Used only for very
// short delays (the card-notify pulse); longer waits belong to the
// handshake controller.
func DelayMicros(n uint64) {
	start := Micros()
	for Micros()-start < n {
	}
}
