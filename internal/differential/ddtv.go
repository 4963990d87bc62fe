// Package differential builds the value-aware difference tables the search
// engine filters round-key guesses against: which SBOX outputs are
// reachable from which input difference, and the per-pair union tables
// derived from them.
package differential

import (
	"halfloop24-keyrecovery/internal/byteset"
	"halfloop24-keyrecovery/internal/halfloop"
)

// DDTV is the value-aware difference distribution table: for an input
// difference din and output difference dout, Entries[din][dout] holds the
// set of SBOX(x) values that realize that transition, for every x with
// SBOX(x) ^ SBOX(x^din) == dout. PossibleDeltaY[din] lists every dout
// reachable from din at all (the nonempty row of Entries[din]).
type DDTV struct {
	Entries        [256][256]byteset.Set
	PossibleDeltaY [256][]byte
}

// Build computes the full 256x256 value-aware DDT by evaluating the SBOX
// at every x and indexing the transition it realizes.
func Build() *DDTV {
	d := &DDTV{}
	for x := 0; x < 256; x++ {
		sx := halfloop.SBOX[x]
		for din := 0; din < 256; din++ {
			dout := sx ^ halfloop.SBOX[byte(x)^byte(din)]
			d.Entries[din][dout] = d.Entries[din][dout].Add(sx)
		}
	}
	for din := 0; din < 256; din++ {
		for dout := 0; dout < 256; dout++ {
			if !d.Entries[din][dout].IsEmpty() {
				d.PossibleDeltaY[din] = append(d.PossibleDeltaY[din], byte(dout))
			}
		}
	}
	return d
}

// Shifted returns {v ^ c : v in Entries[din][dout]}. The reference
// implementation precomputes this for every (din, dout, c) triple up
// front; doing it lazily from Entries costs the same handful of
// instructions per call and avoids holding a 256^3-entry table resident
// for indices the search never visits.
func (d *DDTV) Shifted(din, dout, c byte) byteset.Set {
	return d.Entries[din][dout].Shift(c)
}
