//go:build !tinygo

package core

import "time"

// Wall-clock fallback for host builds and tests. Targets register the
// hardware counter instead.
func init() {
	start := time.Now()
	timeSource = func() uint64 {
		return uint64(time.Since(start).Microseconds())
	}
}
