// Package search implements the two-level nested key-recovery engine: given
// a handful of chosen-plaintext pairs under known input differences, it
// enumerates normalized (rk10, L^-1(rk9)) guesses and, for each, filters
// candidate round-8 and round-7 key bytes through the precomputed
// differential tables.
package search

import "halfloop24-keyrecovery/internal/byteset"

// Pair is one chosen-plaintext/chosen-tweak query: plaintext p encrypted
// under tweak t yields ciphertext c, and p^d encrypted under a
// correspondingly adjusted tweak yields c_prime.
type Pair struct {
	P      uint32
	T      uint64
	D      byte
	C      uint32
	CPrime uint32
}

// Candidate is one surviving key-material guess the engine emits: the MSB
// byte of L^-1(rk7), plus the full rk8/rk9/rk10 guess it was found under.
type Candidate struct {
	LInvRK7_0 byte
	RK8       uint32
	RK9       uint32
	RK10      uint32
}

// Params bounds how much of the (rk10, L^-1(rk9)) space to search and how
// the search is scheduled. A full attack sets MaxRK10 and MaxRK9 to
// 1<<24; smaller bounds let a run check correctness or benchmark
// throughput without the full 2^48 guesses.
type Params struct {
	MaxRK10           uint32
	NPairs            int
	MaxRK9            uint32
	CheckCorrectFirst bool
	Counters          bool
	Parallel          bool
	Workers           int
}

// Counters tallies how many guesses survive each filter stage, the way the
// reference implementation's COUNTERS build does, to verify the attack's
// predicted survival rates experimentally.
type Counters struct {
	RK8Lane     [3]uint64
	SurvivesRK8 uint64
	SurvivesDY6 uint64
	SurvivesRK7 uint64
}

// Add accumulates other's tallies into c.
func (c *Counters) Add(other Counters) {
	for j := 0; j < 3; j++ {
		c.RK8Lane[j] += other.RK8Lane[j]
	}
	c.SurvivesRK8 += other.SurvivesRK8
	c.SurvivesDY6 += other.SurvivesDY6
	c.SurvivesRK7 += other.SurvivesRK7
}

type laneSets = [3]byteset.Set
type laneBytes = [3]byte
