package core

import "sdbridge/protocol"

// transferEngine performs the clocked data phase of a transaction: one
// byte exchanged between the data lines and the SPI bus per observed
// clock transition, for exactly the count the header named.
type transferEngine struct {
	lines LineDriver
	spi   SPIDriver
	ctrl  *Controller
	arb   *BusArbiter
	media *MediaFlag
}

// run executes one data phase. count 0 is legal for both directions and
// performs no exchange at all. Returns errHostAbort if the host cancels
// mid-transfer, or ErrBusTimeout if the arbiter is wedged.
func (e *transferEngine) run(dir protocol.Direction, count int) error {
	if count == 0 {
		return nil
	}
	var err error
	if dir == protocol.DirRead {
		err = e.read(count)
	} else {
		err = e.write(count)
	}
	if err == nil {
		RecordEvent(EvtXferDone, uint32(dir), uint32(count))
	}
	return err
}

// exchange performs one SPI byte exchange under the arbiter. The lock
// spans only the exchange, never a host-driven wait.
func (e *transferEngine) exchange(b byte) (byte, error) {
	if err := e.arb.Acquire(); err != nil {
		return 0, err
	}
	r := e.spi.Exchange(b)
	e.arb.Release()
	return r, nil
}

// read streams count bytes from the storage device to the host. One byte
// is prefetched before the loop so the SPI latency of each following byte
// hides behind the host's clock period. The data lines are switched to
// output for the duration and deliberately left that way; the bridge loop
// restores them to input once the host releases the request line.
func (e *transferEngine) read(count int) error {
	next, err := e.exchange(0xFF)
	if err != nil {
		return err
	}
	driving := false
	for i := 0; i < count; i++ {
		if err := e.ctrl.waitClockOrAbort(); err != nil {
			return err
		}
		e.lines.WriteData(next)
		if !driving {
			e.lines.SetDataDir(DataOutput)
			driving = true
		}
		// Fetch the following byte immediately, even after the last one;
		// the card stream is sequential and the spare byte is discarded.
		next, err = e.exchange(0xFF)
		if err != nil {
			return err
		}
	}
	return nil
}

// write streams count bytes from the host to the storage device. The data
// lines stay in input the whole time. Only a fully completed write raises
// the media-modified flag; a cancelled one leaves it untouched.
func (e *transferEngine) write(count int) error {
	for i := 0; i < count; i++ {
		if err := e.ctrl.waitClockOrAbort(); err != nil {
			return err
		}
		b := e.lines.ReadData()
		if _, err := e.exchange(b); err != nil {
			return err
		}
	}
	e.media.Set()
	return nil
}
