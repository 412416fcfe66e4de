package core

import "sdbridge/protocol"

// decoder samples the control byte(s) off the data lines and dispatches to
// the transfer engine or to one of the immediate control operations.
type decoder struct {
	lines   LineDriver
	spi     SPIDriver
	ctrl    *Controller
	arb     *BusArbiter
	monitor *PresenceMonitor
	engine  *transferEngine
}

// dispatch runs one transaction from a freshly asserted request to the end
// of its data phase (if any). The two leading bits of the first byte fully
// enumerate the three classes, so there is no malformed-command path.
func (d *decoder) dispatch() error {
	b0 := d.lines.ReadData()
	RecordEvent(EvtDecode, uint32(b0), 0)

	switch protocol.Classify(b0) {
	case protocol.ClassShort:
		dir, count := protocol.DecodeShort(b0)
		return d.engine.run(dir, count)

	case protocol.ClassLong:
		// The second header byte arrives after one clock transition. A
		// deassert before then is host cancellation: no dispatch, no side
		// effects.
		if err := d.ctrl.waitClockOrAbort(); err != nil {
			return err
		}
		b1 := d.lines.ReadData()
		dir, count := protocol.DecodeLong(b0, b1)
		return d.engine.run(dir, count)

	default:
		return d.control(b0)
	}
}

// control executes an immediate control operation. SELECT and SPEED touch
// SPI state and take the arbiter across exactly that touch. PRESENCE
// touches no SPI state and takes no lock, since holding one across its
// clock-edge wait is forbidden.
func (d *decoder) control(b byte) error {
	op, param, ok := protocol.DecodeControl(b)
	if !ok {
		// Reserved op code: defined as a no-op.
		return nil
	}

	switch op {
	case protocol.OpSelect:
		if err := d.arb.Acquire(); err != nil {
			return err
		}
		d.spi.SetChipSelect(param)
		d.arb.Release()
		d.lines.SetLine(LineActivity, param)

	case protocol.OpPresence:
		if err := d.ctrl.waitClockOrAbort(); err != nil {
			return err
		}
		var reply byte
		if d.monitor.Presence() {
			reply = 0x01
		}
		d.lines.WriteData(reply)
		d.lines.SetDataDir(DataOutput)

	case protocol.OpSpeed:
		if err := d.arb.Acquire(); err != nil {
			return err
		}
		if param {
			d.spi.SetRate(RateFast)
		} else {
			d.spi.SetRate(RateSlow)
		}
		d.arb.Release()
	}
	return nil
}
