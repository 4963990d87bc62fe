package search

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"halfloop24-keyrecovery/internal/byteset"
	"halfloop24-keyrecovery/internal/differential"
	"halfloop24-keyrecovery/internal/halfloop"
)

// Engine holds everything a process() call needs: the pairs under attack,
// the precomputed differential tables, and the search bounds.
type Engine struct {
	Pairs []Pair
	DDTV  *differential.DDTV
	T     *differential.Table

	// TrueRK is the attacked master key's full round-key schedule under
	// tweak 0, i.e. the normalized round keys candidates are reported in. It is
	// never used to decide anything about the search; it only lets Run
	// optionally check the actually-correct guess first, the way the
	// reference implementation's CHECK_CORRECT_FIRST diagnostic does, to
	// confirm the filters really do let the right key through.
	TrueRK [11]uint32

	norm8 [3][]byte
	once  sync.Once
}

// NewEngine builds an Engine from pairs and precomputed tables.
func NewEngine(pairs []Pair, ddtv *differential.DDTV, t *differential.Table) *Engine {
	return &Engine{Pairs: pairs, DDTV: ddtv, T: t}
}

func (e *Engine) prepare() {
	e.once.Do(func() {
		n := len(e.Pairs)
		for lane := 0; lane < 3; lane++ {
			e.norm8[lane] = make([]byte, n)
		}
		for i := range e.Pairs {
			norm := halfloop.InvLinearLayer(halfloop.NormalizeRoundKey(0, e.Pairs[i].T, 8))
			e.norm8[0][i] = byte(norm >> 16)
			e.norm8[1][i] = byte(norm >> 8)
			e.norm8[2][i] = byte(norm)
		}
	})
}

// Run enumerates rk10Norm in [0, params.MaxRK10) and lInvRK9Norm in
// [0, params.MaxRK9), sharding the outer range across params.Workers
// goroutines (runtime.GOMAXPROCS(0) if unset, or if !params.Parallel a
// single worker). Surviving candidates stream out on the returned channel,
// which is closed once every worker has finished; *Counters is safe to
// read only after the channel has been drained, since the close
// happens-after every counter update.
func (e *Engine) Run(ctx context.Context, params Params) (<-chan Candidate, *Counters, error) {
	if params.MaxRK10 == 0 || params.MaxRK9 == 0 {
		return nil, nil, fmt.Errorf("search: MaxRK10 and MaxRK9 must both be nonzero")
	}
	if len(e.Pairs) == 0 {
		return nil, nil, fmt.Errorf("search: no pairs loaded")
	}
	e.prepare()

	workers := params.Workers
	if !params.Parallel {
		workers = 1
	} else if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ch := make(chan Candidate, 64)
	counters := &Counters{}
	var mu sync.Mutex

	go func() {
		defer close(ch)

		if params.CheckCorrectFirst {
			lInvRK9Correct := halfloop.InvLinearLayer(halfloop.NormalizeRoundKey(e.TrueRK[9], e.Pairs[0].T, 9))
			rk10Correct := halfloop.NormalizeRoundKey10(e.TrueRK[10], byte(halfloop.LinearLayer(lInvRK9Correct)), e.Pairs[0].T)
			candidates, local := e.process(rk10Correct, lInvRK9Correct)
			counters.Add(local)
			for _, c := range candidates {
				select {
				case ch <- c:
				case <-ctx.Done():
					return
				}
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		span := (params.MaxRK10 + uint32(workers) - 1) / uint32(workers)
		if span == 0 {
			span = 1
		}
		for w := 0; w < workers; w++ {
			lo := uint32(w) * span
			hi := lo + span
			if hi > params.MaxRK10 {
				hi = params.MaxRK10
			}
			if lo >= hi {
				continue
			}
			g.Go(func() error {
				var local Counters
				for rk10Norm := lo; rk10Norm < hi; rk10Norm++ {
					select {
					case <-gctx.Done():
						return gctx.Err()
					default:
					}
					for lInvRK9Norm := uint32(0); lInvRK9Norm < params.MaxRK9; lInvRK9Norm++ {
						candidates, c := e.process(rk10Norm, lInvRK9Norm)
						local.Add(c)
						for _, cand := range candidates {
							select {
							case ch <- cand:
							case <-gctx.Done():
								return gctx.Err()
							}
						}
					}
				}
				mu.Lock()
				counters.Add(local)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()

	return ch, counters, nil
}

// process is one iteration of the reference implementation's nested
// (rk10_, L_inv_rk9_) loop body: denormalize the guess per pair, peel
// round 10 and round 9 off every ciphertext, filter round-8 byte
// candidates through the T table, and for each surviving rk8 filter
// round-7's MSB byte through the DDTV_shift table.
func (e *Engine) process(rk10Norm, lInvRK9Norm uint32) ([]Candidate, Counters) {
	n := len(e.Pairs)
	var counters Counters

	lInvRK9 := make([]uint32, n)
	rk10 := make([]uint32, n)
	rk10Prime := make([]uint32, n)
	lInvRK9[0] = lInvRK9Norm
	rk10[0] = rk10Norm
	rk10Prime[0] = rk10[0] ^ uint32(e.Pairs[0].D)<<16
	for i := 1; i < n; i++ {
		lInvRK9[i] = lInvRK9[0] ^ halfloop.InvLinearLayer(halfloop.NormalizeRoundKey(0, e.Pairs[0].T^e.Pairs[i].T, 9))
		rk10[i] = halfloop.NormalizeRoundKey10(
			halfloop.NormalizeRoundKey10(rk10[0], byte(halfloop.LinearLayer(lInvRK9[0])), e.Pairs[0].T),
			byte(halfloop.LinearLayer(lInvRK9[i])), e.Pairs[i].T)
		rk10Prime[i] = rk10[i] ^ uint32(e.Pairs[i].D)<<16
	}

	x8 := make([]uint32, n)
	x8Prime := make([]uint32, n)
	v8 := make([]laneBytes, n)
	bytesPair := make([]laneSets, n)

	for i := 0; i < n; i++ {
		x8[i] = halfloop.InvRoundWithMCInvKey(halfloop.InvRoundNoMC(e.Pairs[i].C, rk10[i]), lInvRK9[i])
		x8Prime[i] = halfloop.InvRoundWithMCInvKey(halfloop.InvRoundNoMC(e.Pairs[i].CPrime, rk10Prime[i]), lInvRK9[i])
		deltaZ7 := x8[i] ^ x8Prime[i] ^ uint32(e.Pairs[i].D)
		bytesPair[i] = e.T.Lookup(i, deltaZ7)

		v8full := halfloop.InvLinearLayer(x8[i])
		v8[i][0] = byte(v8full >> 16)
		v8[i][1] = byte(v8full >> 8)
		v8[i][2] = byte(v8full)
	}

	var intersection laneSets
	for j := 0; j < 3; j++ {
		counters.RK8Lane[j] += uint64(bytesPair[0][j].Size())
		intersection[j] = bytesPair[0][j]
		for i := 1; i < n; i++ {
			counters.RK8Lane[j] += uint64(bytesPair[i][j].Size())
			c := v8[0][j] ^ e.norm8[j][0] ^ v8[i][j] ^ e.norm8[j][i]
			intersection[j] = byteset.Intersect(intersection[j], bytesPair[i][j].Shift(c))
		}
	}
	for j := 0; j < 3; j++ {
		if intersection[j].IsEmpty() {
			return nil, counters
		}
	}
	counters.SurvivesRK8++

	var candidates []Candidate
	for _, e0 := range intersection[0].Elements() {
		rk8_0 := e0 ^ v8[0][0] ^ e.norm8[0][0]
		for _, e1 := range intersection[1].Elements() {
			rk8_1 := e1 ^ v8[0][1] ^ e.norm8[1][0]
			for _, e2 := range intersection[2].Elements() {
				rk8_2 := e2 ^ v8[0][2] ^ e.norm8[2][0]

				rk8 := halfloop.LinearLayer(uint32(rk8_0)<<16 | uint32(rk8_1)<<8 | uint32(rk8_2))

				lInvRK7_0 := byteset.Full()
				bad := false
				for i := 0; i < n; i++ {
					rk8Norm := halfloop.NormalizeRoundKey(rk8, e.Pairs[i].T, 8)
					rk8PrimeNorm := rk8Norm ^ uint32(e.Pairs[i].D)
					v7 := halfloop.InvLinearLayer(halfloop.InvRoundWithMC(x8[i], rk8Norm))
					v7Prime := halfloop.InvLinearLayer(halfloop.InvRoundWithMC(x8Prime[i], rk8PrimeNorm) ^ uint32(e.Pairs[i].D)<<8)
					if (v7^v7Prime)&0x00FFFF != 0 {
						bad = true
						break
					}
					counters.SurvivesDY6++

					deltaV7_0 := byte((v7 ^ v7Prime) >> 16)
					norm7_0 := byte(halfloop.InvLinearLayer(halfloop.NormalizeRoundKey(0, e.Pairs[i].T, 7)) >> 16)
					v7_0 := byte(v7 >> 16)
					lInvRK7_0 = byteset.Intersect(lInvRK7_0, e.DDTV.Shifted(e.Pairs[i].D, deltaV7_0, v7_0^norm7_0))
				}
				if bad {
					continue
				}
				for _, l := range lInvRK7_0.Elements() {
					counters.SurvivesRK7++
					candidates = append(candidates, Candidate{
						LInvRK7_0: l,
						RK8:       rk8,
						RK9:       halfloop.NormalizeRoundKey(halfloop.LinearLayer(lInvRK9Norm), e.Pairs[0].T, 9),
						RK10:      halfloop.NormalizeRoundKey10(rk10Norm, byte(halfloop.LinearLayer(lInvRK9Norm)), e.Pairs[0].T),
					})
				}
			}
		}
	}
	return candidates, counters
}
