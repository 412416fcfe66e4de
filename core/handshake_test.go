package core

import (
	"testing"
	"time"
)

func TestSoftwareAckMirror(t *testing.T) {
	lines := newMockLines()
	NewController(lines, false)

	if !lines.ReadLine(LineAck) {
		t.Fatal("acknowledge should idle deasserted (high)")
	}

	lines.assertRequest()
	if lines.ReadLine(LineAck) {
		t.Error("acknowledge not asserted (low) while request is asserted")
	}

	lines.deassertRequest()
	if !lines.ReadLine(LineAck) {
		t.Error("acknowledge not released after request deassert")
	}
}

func TestHardwareAckMirrorDisablesFallback(t *testing.T) {
	lines := newMockLines()
	lines.SetLine(LineAck, true)
	NewController(lines, true)

	lines.assertRequest()
	if !lines.ReadLine(LineAck) {
		t.Error("edge handler drove the acknowledge line despite the hardware mirror")
	}
	lines.deassertRequest()
}

func TestWakeupNotMissed(t *testing.T) {
	lines := newMockLines()
	c := NewController(lines, false)

	// Edge fires before anyone is waiting; the wakeup must still be
	// delivered.
	lines.assertRequest()

	done := make(chan struct{})
	go func() {
		c.WaitRequest()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wakeup lost: WaitRequest did not return")
	}
	lines.deassertRequest()
}

func TestWakeupCoalesces(t *testing.T) {
	lines := newMockLines()
	c := NewController(lines, false)

	// Multiple edges with no consumer leave exactly one pending wakeup.
	lines.assertRequest()
	lines.deassertRequest()
	lines.assertRequest()
	lines.deassertRequest()

	c.WaitRequest()
	select {
	case <-c.wake:
		t.Error("more than one wakeup queued")
	default:
	}
}

func TestWaitClockOrAbortOnClockEdge(t *testing.T) {
	lines := newMockLines()
	c := NewController(lines, false)
	lines.assertRequest()
	defer lines.deassertRequest()

	res := make(chan error, 1)
	go func() { res <- c.waitClockOrAbort() }()

	// Let the waiter start spinning before the edge arrives.
	time.Sleep(time.Millisecond)
	lines.toggleClock()

	select {
	case err := <-res:
		if err != nil {
			t.Fatalf("clock edge returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waitClockOrAbort did not observe the clock edge")
	}
}

func TestClockEdgeBeforeWaitNotLost(t *testing.T) {
	lines := newMockLines()
	c := NewController(lines, false)
	lines.assertRequest()
	defer lines.deassertRequest()

	// The host toggles while the bridge is still between waits (header
	// sampling, an SPI exchange). The next wait must consume that edge
	// instead of blocking for one that will never come.
	lines.toggleClock()

	res := make(chan error, 1)
	go func() { res <- c.waitClockOrAbort() }()
	select {
	case err := <-res:
		if err != nil {
			t.Fatalf("pre-wait clock edge returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("clock edge preceding the wait was lost")
	}
}

func TestClockReferenceCarriesAcrossWaits(t *testing.T) {
	lines := newMockLines()
	c := NewController(lines, false)
	lines.assertRequest()
	defer lines.deassertRequest()

	// One toggle per byte, each issued before the corresponding wait; every
	// wait must return exactly once per toggle.
	for i := 0; i < 4; i++ {
		lines.toggleClock()
		res := make(chan error, 1)
		go func() { res <- c.waitClockOrAbort() }()
		select {
		case err := <-res:
			if err != nil {
				t.Fatalf("wait %d returned %v", i, err)
			}
		case <-time.After(time.Second):
			t.Fatalf("wait %d lost its clock edge", i)
		}
	}
}

func TestWaitClockOrAbortOnDeassert(t *testing.T) {
	lines := newMockLines()
	c := NewController(lines, false)
	lines.assertRequest()

	res := make(chan error, 1)
	go func() { res <- c.waitClockOrAbort() }()

	time.Sleep(time.Millisecond)
	lines.deassertRequest()

	select {
	case err := <-res:
		if err != errHostAbort {
			t.Fatalf("got %v, want errHostAbort", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waitClockOrAbort did not observe the deassert")
	}
}
