package core

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// mockLines simulates the host side of the parallel port. Host-role
// helpers (assertRequest, toggleClock, setHostData) run on the test
// goroutine while the bridge loop runs on its own.
type mockLines struct {
	mu        sync.Mutex
	levels    map[Line]bool
	hostData  byte
	driven    byte
	dir       DataDir
	dataReads int
	dataWrite int
	pulses    int // card-notify assert count

	reqEdge  func(bool)
	cardFunc func()
}

func newMockLines() *mockLines {
	return &mockLines{
		levels: map[Line]bool{
			LineClock:      false,
			LineRequest:    true, // deasserted (active low)
			LineAck:        true,
			LineCardDetect: true, // no card
			LineCardNotify: true,
			LineActivity:   false,
		},
	}
}

func (m *mockLines) ReadLine(line Line) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[line]
}

func (m *mockLines) SetLine(line Line, level bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if line == LineCardNotify && m.levels[line] && !level {
		m.pulses++
	}
	m.levels[line] = level
}

func (m *mockLines) ReadData() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataReads++
	return m.hostData
}

func (m *mockLines) WriteData(b byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.driven = b
	m.dataWrite++
}

func (m *mockLines) SetDataDir(dir DataDir) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dir = dir
}

func (m *mockLines) OnRequestEdge(fn func(asserted bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqEdge = fn
}

func (m *mockLines) OnCardDetectEdge(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cardFunc = fn
}

// Host-role helpers.

func (m *mockLines) assertRequest() {
	m.mu.Lock()
	m.levels[LineRequest] = false
	fn := m.reqEdge
	m.mu.Unlock()
	if fn != nil {
		fn(true)
	}
}

func (m *mockLines) deassertRequest() {
	m.mu.Lock()
	m.levels[LineRequest] = true
	fn := m.reqEdge
	m.mu.Unlock()
	if fn != nil {
		fn(false)
	}
}

func (m *mockLines) toggleClock() {
	m.mu.Lock()
	m.levels[LineClock] = !m.levels[LineClock]
	m.mu.Unlock()
}

func (m *mockLines) setHostData(b byte) {
	m.mu.Lock()
	m.hostData = b
	m.mu.Unlock()
}

func (m *mockLines) setCardDetect(level bool) {
	m.mu.Lock()
	m.levels[LineCardDetect] = level
	m.mu.Unlock()
}

func (m *mockLines) fireCardEdge() {
	m.mu.Lock()
	fn := m.cardFunc
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (m *mockLines) reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dataReads
}

func (m *mockLines) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dataWrite
}

func (m *mockLines) drivenByte() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driven
}

func (m *mockLines) dataDir() DataDir {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir
}

func (m *mockLines) notifyPulses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pulses
}

// mockSPI records every byte shifted out and serves scripted replies in
// order; once the script runs dry it answers 0xFF like an idle card.
type mockSPI struct {
	mu      sync.Mutex
	sent    []byte
	replies []byte
	rpos    int
	rate    SPIRate
	cs      bool
	csSets  int
}

func (s *mockSPI) Exchange(b byte) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, b)
	if s.rpos < len(s.replies) {
		r := s.replies[s.rpos]
		s.rpos++
		return r
	}
	return 0xFF
}

func (s *mockSPI) SetRate(rate SPIRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
}

func (s *mockSPI) SetChipSelect(assert bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cs = assert
	s.csSets++
}

func (s *mockSPI) sentBytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *mockSPI) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *mockSPI) script(replies []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = replies
	s.rpos = 0
}

func (s *mockSPI) chipSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cs
}

func (s *mockSPI) currentRate() SPIRate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		runtime.Gosched()
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// newTestBridge builds a bridge over mocks and starts its loop.
func newTestBridge(t *testing.T) (*Bridge, *mockLines, *mockSPI) {
	t.Helper()
	lines := newMockLines()
	spi := &mockSPI{}
	b := New(Config{Lines: lines, SPI: spi})
	go b.Run()
	return b, lines, spi
}

// endTransaction releases the request line and waits for the bridge to
// settle back into IDLE with the data lines restored.
func endTransaction(t *testing.T, b *Bridge, lines *mockLines) {
	t.Helper()
	lines.deassertRequest()
	waitFor(t, "controller idle", func() bool { return !b.ctrl.Active() })
	waitFor(t, "data lines input", func() bool { return lines.dataDir() == DataInput })
}
