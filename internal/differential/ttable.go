package differential

import (
	"context"

	"golang.org/x/sync/errgroup"

	"halfloop24-keyrecovery/internal/byteset"
	"halfloop24-keyrecovery/internal/halfloop"
)

// Table holds, per pair, the union sets T[pair][deltaZ7][lane]: every SBOX
// output byte that round 7's lane could have held, given that round 8's
// MixColumns output difference (after the linear layer) is deltaZ7.
//
// deltaZ7 ranges over 2^24 values and only those actually reached by
// BuildT's enumeration are populated, so each pair's table is a map rather
// than the reference implementation's dense 2^24-entry array. The
// enumeration reaches most of the range (16,581,375 of 2^24 values for an
// input difference of 1), so each map holds close to 2^24 entries.
type Table struct {
	entries []map[uint32][3]byteset.Set
}

// Lookup returns the three lane sets for pair i at the given deltaZ7, or
// three empty sets if that deltaZ7 was never reached — identical to
// querying an unbuilt slot of the dense reference table.
func (t *Table) Lookup(pair int, deltaZ7 uint32) [3]byteset.Set {
	return t.entries[pair][deltaZ7]
}

// BuildT constructs the per-pair T table for the given input differences,
// one per pair (dins[i] is the chosen byte difference for pair i). Pairs
// are independent so their tables are built concurrently.
func BuildT(d *DDTV, dins []byte) (*Table, error) {
	t := &Table{entries: make([]map[uint32][3]byteset.Set, len(dins))}
	g, _ := errgroup.WithContext(context.Background())
	for i, din := range dins {
		i, din := i, din
		g.Go(func() error {
			t.entries[i] = buildOne(d, din)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

func buildOne(d *DDTV, din byte) map[uint32][3]byteset.Set {
	m := make(map[uint32][3]byteset.Set)
	for _, dout := range d.PossibleDeltaY[din] {
		deltaX7 := halfloop.FromMSB(dout) ^ uint32(din)<<8
		x0 := byte(deltaX7 >> 16)
		x1 := byte(deltaX7 >> 8)
		x2 := byte(deltaX7)

		for _, y0 := range d.PossibleDeltaY[x0] {
			for _, y1 := range d.PossibleDeltaY[x1] {
				for _, y2 := range d.PossibleDeltaY[x2] {
					deltaY7 := uint32(y0)<<16 | uint32(y1)<<8 | uint32(y2)
					deltaZ7 := halfloop.LinearLayer(deltaY7)

					lanes := m[deltaZ7]
					lanes[0] = byteset.Union(lanes[0], d.Entries[x0][y0])
					lanes[1] = byteset.Union(lanes[1], d.Entries[x1][y1])
					lanes[2] = byteset.Union(lanes[2], d.Entries[x2][y2])
					m[deltaZ7] = lanes
				}
			}
		}
	}
	return m
}
