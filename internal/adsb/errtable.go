package adsb

import "fmt"

// errorTable is a direct-map table from CRC residue to the fix operation
// that repairs it. The table sizes are chosen so that the residues of all
// inserted operations land in distinct buckets; buildErrorTable rejects any
// size for which that does not hold.
type errorTable struct {
	keys []uint32
	ops  []FixOp
}

func buildErrorTable(size int, ops []FixOp) (*errorTable, error) {
	t := &errorTable{
		keys: make([]uint32, size),
		ops:  make([]FixOp, size),
	}
	for _, op := range ops {
		crc := op.Checksum()
		i := crc % uint32(size)
		if t.keys[i] != 0 {
			return nil, fmt.Errorf("error table size %d: bucket %d collides (crc %06X)", size, i, crc)
		}
		t.keys[i] = crc
		t.ops[i] = op
	}
	return t, nil
}

// Lookup returns the fix operation for a CRC residue, or the identity
// operation if the residue is not repairable.
func (t *errorTable) Lookup(crc uint32) FixOp {
	i := crc % uint32(len(t.keys))
	if t.keys[i] == crc {
		return t.ops[i]
	}
	return FixOp{}
}

const (
	df17TableSize = 4859
	df11TableSize = 469
)

// df17FixOps lists the burst patterns repairable in extended squitter
// messages: single bits, "11" and "111" bursts anywhere outside the DF
// field, and a 1000_0001 pattern swept through the parity block.
func df17FixOps() []FixOp {
	var ops []FixOp
	for i := 0; i < 112-5; i++ {
		ops = append(ops, FixOp{Pattern: 0x1, Index: uint8(i)})
	}
	for i := 0; i < 111-5; i++ {
		ops = append(ops, FixOp{Pattern: 0x3, Index: uint8(i)})
	}
	for i := 0; i < 110-5; i++ {
		ops = append(ops, FixOp{Pattern: 0x7, Index: uint8(i)})
	}
	for i := 0; i < 16; i++ {
		ops = append(ops, FixOp{Pattern: 129, Index: uint8(i)})
	}
	return ops
}

// df11FixOps lists the patterns repairable in all-call replies: single bits
// and "11" bursts outside the DF field.
func df11FixOps() []FixOp {
	var ops []FixOp
	for i := 0; i < 56-5; i++ {
		ops = append(ops, FixOp{Pattern: 0x1, Index: uint8(i)})
	}
	for i := 0; i < 55-5; i++ {
		ops = append(ops, FixOp{Pattern: 0x3, Index: uint8(i)})
	}
	return ops
}

var (
	df17ErrorTable *errorTable
	df11ErrorTable *errorTable
)

func init() {
	var err error
	if df17ErrorTable, err = buildErrorTable(df17TableSize, df17FixOps()); err != nil {
		panic(err)
	}
	if df11ErrorTable, err = buildErrorTable(df11TableSize, df11FixOps()); err != nil {
		panic(err)
	}
}
