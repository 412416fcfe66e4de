//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// On regular Go the "interrupt handlers" are plain goroutines, so the
// critical section is a mutex instead of a mask.
var hostCritical sync.Mutex

func disableInterrupts() State {
	hostCritical.Lock()
	return 0
}

func restoreInterrupts(state State) {
	hostCritical.Unlock()
}
