// Package driver wires the cipher, byteset, differential, and search
// packages into the end-to-end attack described by new_attack(): fix a
// key, gather chosen-plaintext pairs, precompute the differential tables,
// run the search engine, and collect the results into a Report.
package driver

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"halfloop24-keyrecovery/internal/fn"
	"halfloop24-keyrecovery/internal/search"
	"halfloop24-keyrecovery/pkg/util"
)

// Report is everything one Attack run produced: the true normalized
// round-key schedule, i.e. the schedule under tweak 0 (kept so callers and
// tests can check the search actually found it), the surviving candidates, the per-stage counters, and timing for
// each of the three precomputation/search steps.
type Report struct {
	RunID uuid.UUID

	MasterKey [16]byte
	TrueRK    [11]uint32
	Pairs     []search.Pair

	Candidates []search.Candidate
	Counters   search.Counters

	GatherElapsed     time.Duration
	PrecomputeElapsed time.Duration
	SearchElapsed     time.Duration
}

// render builds the full diagnostic text into a StrBuf: round-key table,
// per-step durations in both seconds and nanoseconds, one Candidate line
// per surviving guess, and a counter summary.
func (r *Report) render() *util.StrBuf {
	sb := util.NewStrBuf()
	sb.Writef("run %s\n", r.RunID)
	sb.Writef("master key = %x\n", r.MasterKey)
	for i, rk := range r.TrueRK {
		sb.Writef("  rk%-2d = 0x%06x\n", i, rk)
	}
	sb.Writef("gather:     %9s (%d ns)\n", r.GatherElapsed, r.GatherElapsed.Nanoseconds())
	sb.Writef("precompute: %9s (%d ns)\n", r.PrecomputeElapsed, r.PrecomputeElapsed.Nanoseconds())
	sb.Writef("search:     %9s (%d ns)\n", r.SearchElapsed, r.SearchElapsed.Nanoseconds())

	noun := fn.T(len(r.Candidates) == 1, "candidate", "candidates")
	sb.Writef("%d %s survived\n", len(r.Candidates), noun)
	for _, c := range r.Candidates {
		sb.Writef("Candidate: L_inv_rk7_0 = 0x%02x, rk8 = 0x%06x, rk9 = 0x%06x, rk10 = 0x%06x\n",
			c.LInvRK7_0, c.RK8, c.RK9, c.RK10)
	}

	sb.Writef("counters: rk8_lane=%v survives_rk8=%d survives_dy6=%d survives_rk7=%d\n",
		r.Counters.RK8Lane, r.Counters.SurvivesRK8, r.Counters.SurvivesDY6, r.Counters.SurvivesRK7)
	return sb
}

// Print renders the human-readable diagnostic form to w.
func (r *Report) Print(w io.Writer) {
	fmt.Fprint(w, r.render().String())
}

// WriteCompressed writes a zstd-compressed dump of Print's output, for
// archiving runs with large candidate counts without paying full size on
// disk.
func (r *Report) WriteCompressed(w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("driver: open zstd writer: %w", err)
	}
	if _, err := zw.Write([]byte(r.render().String())); err != nil {
		zw.Close()
		return fmt.Errorf("driver: write compressed report: %w", err)
	}
	return zw.Close()
}
