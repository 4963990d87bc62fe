package driver

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"

	"halfloop24-keyrecovery/internal/differential"
	"halfloop24-keyrecovery/internal/halfloop"
	"halfloop24-keyrecovery/internal/search"
)

// Config bounds and schedules one Attack run. It mirrors internal/config's
// Config minus the fields (Reps, ConfigFile) that only make sense at the
// CLI layer, one above a single attack.
type Config struct {
	MaxRK10           uint32
	MaxRK9            uint32
	NPairs            int
	CheckCorrectFirst bool
	Counters          bool
	Parallel          bool
	Workers           int
}

// GenerateKey draws a fresh 128-bit master key from the system CSPRNG.
func GenerateKey() ([16]byte, error) {
	var key [16]byte
	if _, err := rand.Read(key[:]); err != nil {
		return key, fmt.Errorf("driver: generate master key: %w", err)
	}
	return key, nil
}

// GeneratePairs draws n chosen-plaintext/chosen-tweak queries under
// masterKey: for each, a random tweak and plaintext and a nonzero,
// pairwise-distinct one-byte input difference d, then encrypts both p and
// p^d (with d folded into the tweak's byte 5, matching the reference's
// plaintext/tweak differential convention) to get C and C'.
func GeneratePairs(n int, masterKey [16]byte) ([]search.Pair, error) {
	if n <= 0 {
		return nil, fmt.Errorf("driver: NPairs must be positive, got %d", n)
	}
	if n > 255 {
		return nil, fmt.Errorf("driver: NPairs=%d exceeds the 255 distinct nonzero one-byte differences available", n)
	}

	keyHi := binary.BigEndian.Uint64(masterKey[0:8])
	keyLo := binary.BigEndian.Uint64(masterKey[8:16])

	pairs := make([]search.Pair, n)
	seen := make(map[byte]bool, n)

	for i := 0; i < n; i++ {
		var d byte
		for {
			b, err := randomByte()
			if err != nil {
				return nil, err
			}
			if b != 0 && !seen[b] {
				d = b
				break
			}
		}
		seen[d] = true

		tweak, err := randomUint64()
		if err != nil {
			return nil, err
		}
		plain, err := randomUint32_24()
		if err != nil {
			return nil, err
		}

		c := halfloop.Encrypt(plain, keyHi, keyLo, tweak)
		cPrime := halfloop.Encrypt(plain^uint32(d), keyHi, keyLo, tweak^(uint64(d)<<40))

		pairs[i] = search.Pair{P: plain, T: tweak, D: d, C: c, CPrime: cPrime}
	}
	return pairs, nil
}

func randomByte() (byte, error) {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("driver: entropy read: %w", err)
	}
	return b[0], nil
}

func randomUint64() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("driver: entropy read: %w", err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func randomUint32_24() (uint32, error) {
	var b [3]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("driver: entropy read: %w", err)
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

// Attack performs steps 0-3 of one end-to-end run: fix a key, gather
// pairs, precompute the differential tables, and search. The returned
// Report carries the true normalized round-key schedule (the schedule under
// tweak 0, which is what candidates are reported in) purely for diagnostics
// (CheckCorrectFirst and test harnesses); the search itself never
// consults it.
func Attack(cfg Config) (*Report, error) {
	if cfg.NPairs == 0 {
		return nil, fmt.Errorf("driver: configuration error: NPairs must be nonzero")
	}
	if cfg.MaxRK10 == 0 || cfg.MaxRK9 == 0 {
		return nil, fmt.Errorf("driver: configuration error: MaxRK10 and MaxRK9 must both be nonzero")
	}

	if err := halfloop.SelfTest(); err != nil {
		return nil, fmt.Errorf("driver: cipher self-test failed: %w", err)
	}

	masterKey, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	gatherStart := time.Now()
	pairs, err := GeneratePairs(cfg.NPairs, masterKey)
	if err != nil {
		return nil, err
	}
	gatherElapsed := time.Since(gatherStart)

	keyHi := binary.BigEndian.Uint64(masterKey[0:8])
	keyLo := binary.BigEndian.Uint64(masterKey[8:16])
	trueRK := halfloop.KeySchedule(keyHi, keyLo, 0)

	precomputeStart := time.Now()
	ddtv := differential.Build()
	dins := make([]byte, len(pairs))
	for i, p := range pairs {
		dins[i] = p.D
	}
	tbl, err := differential.BuildT(ddtv, dins)
	if err != nil {
		return nil, fmt.Errorf("driver: precompute T table: %w", err)
	}
	precomputeElapsed := time.Since(precomputeStart)

	eng := search.NewEngine(pairs, ddtv, tbl)
	eng.TrueRK = trueRK

	searchStart := time.Now()
	ch, counters, err := eng.Run(context.Background(), search.Params{
		MaxRK10:           cfg.MaxRK10,
		MaxRK9:            cfg.MaxRK9,
		NPairs:            cfg.NPairs,
		CheckCorrectFirst: cfg.CheckCorrectFirst,
		Counters:          cfg.Counters,
		Parallel:          cfg.Parallel,
		Workers:           cfg.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("driver: start search: %w", err)
	}

	var candidates []search.Candidate
	for c := range ch {
		candidates = append(candidates, c)
	}
	searchElapsed := time.Since(searchStart)

	runID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("driver: generate run id: %w", err)
	}

	return &Report{
		RunID:             runID,
		MasterKey:         masterKey,
		TrueRK:            trueRK,
		Pairs:             pairs,
		Candidates:        candidates,
		Counters:          *counters,
		GatherElapsed:     gatherElapsed,
		PrecomputeElapsed: precomputeElapsed,
		SearchElapsed:     searchElapsed,
	}, nil
}

// RunRepeated runs Attack reps times with fresh keys and pairs each time,
// the driver-level equivalent of the reference's REP loop around
// new_attack(). The halfloop package's SBOX/linear-layer tables stay
// resident across calls; each Attack call rebuilds the DDTV and the
// tweak-dependent T table.
func RunRepeated(cfg Config, reps int) ([]*Report, error) {
	if reps <= 0 {
		return nil, fmt.Errorf("driver: configuration error: reps must be positive, got %d", reps)
	}
	reports := make([]*Report, 0, reps)
	for i := 0; i < reps; i++ {
		r, err := Attack(cfg)
		if err != nil {
			return reports, fmt.Errorf("driver: run %d/%d: %w", i+1, reps, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}
