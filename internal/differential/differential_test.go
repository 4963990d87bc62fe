package differential

import "testing"

func TestDDTVRowSumsTo256(t *testing.T) {
	d := Build()
	for din := 0; din < 256; din++ {
		total := 0
		for dout := 0; dout < 256; dout++ {
			total += d.Entries[din][dout].Size()
		}
		if total != 256 {
			t.Fatalf("din=0x%02x: row sums to %d, want 256", din, total)
		}
	}
}

func TestDDTVZeroDifferenceIsIdentity(t *testing.T) {
	d := Build()
	// din == 0 implies dout must be 0, with every SBOX output value present.
	if got := d.Entries[0][0].Size(); got != 256 {
		t.Errorf("Entries[0][0].Size() = %d, want 256", got)
	}
	for dout := 1; dout < 256; dout++ {
		if !d.Entries[0][dout].IsEmpty() {
			t.Errorf("Entries[0][%d] should be empty", dout)
		}
	}
}

func TestPossibleDeltaYMatchesEntries(t *testing.T) {
	d := Build()
	for din := 0; din < 256; din++ {
		seen := make(map[byte]bool)
		for _, dout := range d.PossibleDeltaY[din] {
			if d.Entries[din][dout].IsEmpty() {
				t.Errorf("PossibleDeltaY[%d] lists empty dout=%d", din, dout)
			}
			seen[dout] = true
		}
		for dout := 0; dout < 256; dout++ {
			nonEmpty := !d.Entries[din][dout].IsEmpty()
			if nonEmpty != seen[byte(dout)] {
				t.Errorf("din=%d dout=%d: nonEmpty=%v but listed=%v", din, dout, nonEmpty, seen[byte(dout)])
			}
		}
	}
}

func TestBuildTNonEmptyForNonzeroDifference(t *testing.T) {
	d := Build()
	table, err := BuildT(d, []byte{1, 5, 0x80})
	if err != nil {
		t.Fatal(err)
	}
	for i := range []byte{1, 5, 0x80} {
		if len(table.entries[i]) == 0 {
			t.Errorf("pair %d: T table is empty", i)
		}
	}
}

func TestTableLookupMissingIsEmpty(t *testing.T) {
	d := Build()
	table, err := BuildT(d, []byte{1})
	if err != nil {
		t.Fatal(err)
	}
	missing := uint32(0)
	for {
		if _, ok := table.entries[0][missing]; !ok {
			break
		}
		missing++
	}
	lanes := table.Lookup(0, missing)
	for j, s := range lanes {
		if !s.IsEmpty() {
			t.Errorf("lane %d of unreached deltaZ7 0x%06x is not empty", j, missing)
		}
	}
}
