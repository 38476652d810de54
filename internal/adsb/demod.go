package adsb

// FrameWriter receives validated frames together with their 48-bit 12 MHz
// multilateration timestamp.
type FrameWriter interface {
	WriteLong(timestamp uint64, frame Bits128)
	WriteShort(timestamp uint64, frame Bits128)
}

// DemodCore inspects every phase of the shift-register bank once per sample
// tick, classifies candidate frames by downlink format, repairs small burst
// errors through the CRC error tables and filters the result against the
// ICAO trust cache before emitting.
type DemodCore struct {
	bank  *ShiftRegisterBank
	cache *ICAOTable

	writer FrameWriter
	stats  Stats

	numStreams uint64

	// rational factors converting the sample clock to 12 MHz
	mlatMul uint64
	mlatDiv uint64

	// current time in samples (numStreams per microsecond)
	currTime uint64

	// window and CRCs of the previously inspected phase; identical content
	// on the next phase means an adjacent stream already dealt with it
	prevLow    uint64
	prevHigh   uint64
	prevCRC56  uint32
	prevCRC112 uint32

	// last emitted frames, for duplicate suppression across ticks
	prevLongSent      Bits128
	prevTimeLongSent  uint64
	prevShortSent     uint64
	prevTimeShortSent uint64
}

// NewDemodCore creates a demodulator core for numStreams phases writing
// accepted frames to w.
func NewDemodCore(numStreams int, w FrameWriter) *DemodCore {
	g := gcd(12, uint64(numStreams))
	return &DemodCore{
		bank:       NewShiftRegisterBank(numStreams),
		cache:      NewICAOTable(),
		writer:     w,
		numStreams: uint64(numStreams),
		mlatMul:    12 / g,
		mlatDiv:    uint64(numStreams) / g,
	}
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Stats returns the event counters.
func (d *DemodCore) Stats() *Stats {
	return &d.stats
}

// ShiftInNewBits advances every phase by one bit and runs the dispatcher
// on each. bits must hold one 0/1 value per phase.
func (d *DemodCore) ShiftInNewBits(bits []uint32) {
	d.bank.ShiftInNewBits(bits)
	d.cache.Tick()

	n := int(d.numStreams)
	for i := 0; i < n; i++ {
		if !d.handleStreamShort(i) {
			d.handleStreamLong(i)
		}
		d.prevHigh, d.prevLow = d.bank.Window(i)
		d.prevCRC56 = d.bank.CRC56(i)
		d.prevCRC112 = d.bank.CRC112(i)
		d.currTime++
	}
}

// handleStreamShort dispatches the 56-bit candidate frame of phase i.
func (d *DemodCore) handleStreamShort(i int) bool {
	crc := d.bank.CRC56(i)
	_, lo := d.bank.Window(i)
	if crc == d.prevCRC56 && equalShort(lo, d.prevLow) {
		// the previous phase already dealt with this content
		return false
	}

	switch d.bank.DF56(i) {
	case 0, 4, 5:
		return d.handleAcasSurvShort(d.bank.DF56(i), crc, d.bank.FrameShort(i))
	case 11:
		return d.handleDF11(crc, d.bank.FrameShort(i))
	}
	return false
}

// handleStreamLong dispatches the 112-bit candidate frame of phase i.
func (d *DemodCore) handleStreamLong(i int) bool {
	crc := d.bank.CRC112(i)
	hi, lo := d.bank.Window(i)
	if crc == d.prevCRC112 && equalLong(hi, lo, d.prevHigh, d.prevLow) {
		return false
	}

	switch df := d.bank.DF112(i); df {
	case 17, 18, 19:
		return d.handleExtSquitter(df, crc, d.bank.FrameLong(i))
	case 16, 20, 21:
		return d.handleAcasCommB(df, crc, d.bank.FrameLong(i))
	}
	return false
}

// handleAcasSurvShort validates DF 0 (short ACAS), DF 4 (altitude reply)
// and DF 5 (identity reply). These formats overlay the ICAO address on the
// CRC, so the residue of a valid frame is the address of a known aircraft.
func (d *DemodCore) handleAcasSurvShort(df, crc uint32, frame uint64) bool {
	b, ok := d.cache.Find(crc)
	if !ok || !d.cache.IsAlive(b) {
		return false
	}

	switch df {
	case 0, 4:
		if field := extractShortAC13(frame); field != 0 {
			units, valid := decodeAC13(field)
			if !valid || !d.cache.CheckAltitude(b, units) {
				return false
			}
		}
	case 5:
		if field := extractShortAC13(frame); field != 0 {
			if !d.cache.CheckSquawk(b, field) {
				return false
			}
		}
	}

	d.stats.AcasSurvGood.Add(1)
	d.cache.MarkAsSeen(b)
	d.sendFrameShort(df, frame)
	return true
}

// handleAcasCommB validates the long address-parity formats DF 16 (ACAS),
// DF 20 (Comm-B altitude) and DF 21 (Comm-B identity).
func (d *DemodCore) handleAcasCommB(df, crc uint32, frame Bits128) bool {
	b, ok := d.cache.Find(crc)
	if !ok || !d.cache.IsAlive(b) {
		return false
	}

	switch df {
	case 16, 20:
		if field := extractLongAC13(frame); field != 0 {
			units, valid := decodeAC13(field)
			if !valid || !d.cache.CheckAltitude(b, units) {
				return false
			}
		}
	case 21:
		if field := extractLongAC13(frame); field != 0 {
			if !d.cache.CheckSquawk(b, field) {
				return false
			}
		}
	}

	d.stats.AcasSurvGood.Add(1)
	d.cache.MarkAsSeen(b)
	d.sendFrameLong(df, frame)
	return true
}

// handleExtSquitter validates extended squitter frames (DF 17, 18, 19).
// A clean CRC is the only way an address enters the trusted set; repaired
// frames merely confirm addresses that are trusted already.
func (d *DemodCore) handleExtSquitter(df, crc uint32, frame Bits128) bool {
	if crc == 0 {
		d.stats.DF17Good.Add(1)
		icaoCA := extractLongICAOWithCA(frame)
		b, ok := d.cache.FindWithCA(icaoCA)
		if !ok {
			b = d.cache.InsertWithCA(icaoCA)
		}
		d.cache.MarkAsTrustedSeen(b)
		d.sendFrameLong(df, frame)
		return true
	}

	d.stats.DF17Bad.Add(1)
	if op := df17ErrorTable.Lookup(crc); op.Valid() {
		repaired := op.Apply(frame)
		icaoCA := extractLongICAOWithCA(repaired)
		if b, ok := d.cache.FindWithCA(icaoCA); ok && d.cache.IsTrusted(b) {
			d.stats.DF17RepairSuccess.Add(1)
			d.cache.MarkAsSeen(b)
			d.sendFrameLong(df, repaired)
			return true
		}
	}
	d.stats.DF17RepairFailed.Add(1)
	return false
}

// handleDF11 validates all-call replies. A clean frame announces an ICAO in
// the clear; unknown addresses are cached untrusted and not emitted until
// heard again.
func (d *DemodCore) handleDF11(crc uint32, frame uint64) bool {
	if crc == 0 {
		d.stats.DF11GoodCRC.Add(1)
		return d.handleDF11ZeroCRC(frame, true)
	}

	if op := df11ErrorTable.Lookup(crc); op.Valid() {
		d.stats.DF11BitFix.Add(1)
		// repaired unknowns are not worth caching
		return d.handleDF11ZeroCRC(op.ApplyShort(frame), false)
	}

	// No fix available. If the announced address is already trusted, the
	// downlink format and address survived, so only the parity block can
	// be corrupt; clearing the residue repairs it.
	icaoCA := extractShortICAOWithCA(frame)
	if b, ok := d.cache.FindWithCA(icaoCA); ok && d.cache.IsTrusted(b) {
		d.stats.DF11ParityFix.Add(1)
		d.cache.MarkAsSeen(b)
		d.sendFrameShort(11, frame^uint64(crc))
		return true
	}
	return false
}

func (d *DemodCore) handleDF11ZeroCRC(frame uint64, allowInsert bool) bool {
	icaoCA := extractShortICAOWithCA(frame)
	b, ok := d.cache.FindWithCA(icaoCA)
	if !ok {
		if allowInsert {
			b = d.cache.InsertWithCA(icaoCA)
			d.cache.MarkAsSeen(b)
		}
		return false
	}
	if d.cache.IsAlive(b) {
		d.cache.MarkAsSeen(b)
		d.sendFrameShort(11, frame)
		return true
	}
	d.cache.MarkAsSeen(b)
	return false
}

// sendFrameLong emits a 112-bit frame unless the same frame already went
// out within the last microsecond (the same symbol seen by another phase).
func (d *DemodCore) sendFrameLong(df uint32, frame Bits128) {
	if d.currTime-d.prevTimeLongSent < d.numStreams &&
		equalLong(frame.Hi, frame.Lo, d.prevLongSent.Hi, d.prevLongSent.Lo) {
		d.stats.logDup(df)
		return
	}
	d.stats.logSent(df)
	d.prevLongSent = frame
	d.prevTimeLongSent = d.currTime

	// the message started 112 ticks ago at 1 MHz, i.e. 112*12 ticks at 12 MHz
	d.writer.WriteLong(d.mlatTimestamp()-112*12, frame)
}

// sendFrameShort is the 56-bit counterpart of sendFrameLong.
func (d *DemodCore) sendFrameShort(df uint32, frame uint64) {
	if d.currTime-d.prevTimeShortSent < d.numStreams && equalShort(frame, d.prevShortSent) {
		d.stats.logDup(df)
		return
	}
	d.stats.logSent(df)
	d.prevShortSent = frame
	d.prevTimeShortSent = d.currTime

	d.writer.WriteShort(d.mlatTimestamp()-56*12, Bits128{Lo: frame})
}

func (d *DemodCore) mlatTimestamp() uint64 {
	return d.currTime * d.mlatMul / d.mlatDiv
}
