package core

import (
	"sync"
	"testing"
	"time"
)

func TestArbiterAcquireRelease(t *testing.T) {
	a := NewBusArbiter(10 * time.Millisecond)

	if err := a.Acquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := a.Acquire(); err != ErrBusTimeout {
		t.Fatalf("second acquire: got %v, want ErrBusTimeout", err)
	}
	a.Release()
	if err := a.Acquire(); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	a.Release()
}

func TestArbiterContention(t *testing.T) {
	a := NewBusArbiter(time.Second)

	var wg sync.WaitGroup
	var counter int
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if err := a.Acquire(); err != nil {
					t.Errorf("acquire under contention: %v", err)
					return
				}
				counter++ // arbiter is the only synchronization here
				a.Release()
			}
		}()
	}
	wg.Wait()
	if counter != 400 {
		t.Errorf("counter = %d, want 400; critical section not exclusive", counter)
	}
}

func TestArbiterDoubleReleaseHarmless(t *testing.T) {
	a := NewBusArbiter(10 * time.Millisecond)
	a.Release()
	a.Release()
	if err := a.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
}

func TestMediaFlag(t *testing.T) {
	var f MediaFlag
	if f.Consume() {
		t.Error("flag set before any write")
	}
	f.Set()
	f.Set()
	if !f.Consume() {
		t.Error("flag lost after Set")
	}
	if f.Consume() {
		t.Error("Consume did not clear the flag")
	}
}
