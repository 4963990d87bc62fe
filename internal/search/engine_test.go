package search

import (
	"context"
	"testing"
	"time"

	"halfloop24-keyrecovery/internal/differential"
	"halfloop24-keyrecovery/internal/halfloop"
)

// buildPairs encrypts N_PAIRS chosen-plaintext/chosen-difference queries
// under a fixed key, mirroring new_attack's data-gathering step with a
// deterministic key/tweak/difference choice instead of RNG-drawn ones.
func buildPairs(t *testing.T, keyHi, keyLo uint64) ([]Pair, [11]uint32) {
	t.Helper()
	rk := halfloop.KeySchedule(keyHi, keyLo, 0)

	tweaks := []uint64{0x1111111111111111, 0x2222222222222222, 0x3333333333333333}
	diffs := []byte{0x01, 0x02, 0x03}
	plains := []uint32{0x010203, 0x0a0b0c, 0x112233}

	pairs := make([]Pair, len(tweaks))
	for i := range tweaks {
		p := plains[i]
		tw := tweaks[i]
		d := diffs[i]
		c := halfloop.Encrypt(p, keyHi, keyLo, tw)
		cPrime := halfloop.Encrypt(p^uint32(d), keyHi, keyLo, tw^(uint64(d)<<40))
		pairs[i] = Pair{P: p, T: tw, D: d, C: c, CPrime: cPrime}
	}
	return pairs, rk
}

func TestCorrectKeySurvivesFilters(t *testing.T) {
	const (
		keyHi = 0x2b7e151628aed2a6
		keyLo = 0xabf7158809cf4f3c
	)
	pairs, rk := buildPairs(t, keyHi, keyLo)

	ddtv := differential.Build()
	dins := make([]byte, len(pairs))
	for i, p := range pairs {
		dins[i] = p.D
	}
	tbl, err := differential.BuildT(ddtv, dins)
	if err != nil {
		t.Fatal(err)
	}

	eng := NewEngine(pairs, ddtv, tbl)
	eng.TrueRK = rk

	ch, counters, err := eng.Run(context.Background(), Params{
		MaxRK10: 1, MaxRK9: 1, CheckCorrectFirst: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	var found []Candidate
	for c := range ch {
		found = append(found, c)
	}

	wantL := byte(halfloop.InvLinearLayer(rk[7]) >> 16)
	ok := false
	for _, c := range found {
		if c.LInvRK7_0 == wantL && c.RK8 == rk[8] && c.RK9 == rk[9] && c.RK10 == rk[10] {
			ok = true
			break
		}
	}
	if !ok {
		t.Fatalf("true round-key material not among %d emitted candidates", len(found))
	}
	if counters.SurvivesRK7 == 0 {
		t.Error("SurvivesRK7 counter not incremented despite a surviving candidate")
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	pairs, _ := buildPairs(t, 0x2b7e151628aed2a6, 0xabf7158809cf4f3c)
	ddtv := differential.Build()
	dins := []byte{pairs[0].D, pairs[1].D, pairs[2].D}
	tbl, err := differential.BuildT(ddtv, dins)
	if err != nil {
		t.Fatal(err)
	}

	eng := NewEngine(pairs, ddtv, tbl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch, _, err := eng.Run(ctx, Params{MaxRK10: 1 << 16, MaxRK9: 1 << 16, Parallel: true, Workers: 2})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected no candidates once context is already cancelled")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel did not close after context cancellation")
	}
}

func TestRunRejectsEmptyParams(t *testing.T) {
	eng := NewEngine(nil, differential.Build(), &differential.Table{})
	if _, _, err := eng.Run(context.Background(), Params{}); err == nil {
		t.Fatal("expected error for zero MaxRK10/MaxRK9")
	}
}

func TestCountersAdd(t *testing.T) {
	a := Counters{RK8Lane: [3]uint64{1, 2, 3}, SurvivesRK8: 4, SurvivesDY6: 5, SurvivesRK7: 6}
	b := Counters{RK8Lane: [3]uint64{10, 20, 30}, SurvivesRK8: 40, SurvivesDY6: 50, SurvivesRK7: 60}
	a.Add(b)
	want := Counters{RK8Lane: [3]uint64{11, 22, 33}, SurvivesRK8: 44, SurvivesDY6: 55, SurvivesRK7: 66}
	if a != want {
		t.Fatalf("Add() = %+v, want %+v", a, want)
	}
}
