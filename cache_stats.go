// cache_stats.go - monotonic, atomic cache counters and their textual report

/*
CacheStats tracks the four monotonic counters a SetAssociativeCache
maintains. They are deliberately relaxed/observational: nothing in
the hit/miss/fill path ever reads them back to make a control decision,
so a plain atomic.Uint64 per counter is enough - no mutex, no sequential
consistency requirement beyond what the atomic package already gives each
individual counter.

The two textual reports (single-line and full block) mirror the original
C++ implementation's std::formatter<CacheStats> specialisation
(cache_stats_formatter.hpp), which dispatches on a format specifier and
raises std::format_error on an unrecognised one. Go has no equivalent
compile-time format-spec mini-language, so the same contract is expressed
as an explicit function returning (string, error).
*/

package main

import (
	"fmt"
	"sync/atomic"
)

// CacheStats holds the monotonic, atomically-updated counters for a
// SetAssociativeCache. The zero value is ready to use.
type CacheStats struct {
	nHits        atomic.Uint64
	nMisses      atomic.Uint64
	nEvictions   atomic.Uint64
	nCPUAccesses atomic.Uint64
}

func (s *CacheStats) recordAccess() { s.nCPUAccesses.Add(1) }
func (s *CacheStats) recordHit()    { s.nHits.Add(1) }
func (s *CacheStats) recordMiss()   { s.nMisses.Add(1) }
func (s *CacheStats) recordEviction(wasValid bool) {
	if wasValid {
		s.nEvictions.Add(1)
	}
}

// Hits, Misses, Evictions and CPUAccesses expose the raw counters.
func (s *CacheStats) Hits() uint64        { return s.nHits.Load() }
func (s *CacheStats) Misses() uint64      { return s.nMisses.Load() }
func (s *CacheStats) Evictions() uint64   { return s.nEvictions.Load() }
func (s *CacheStats) CPUAccesses() uint64 { return s.nCPUAccesses.Load() }

// HitRate returns n_hits/n_cpu_accesses, or 0 if there have been no
// accesses yet.
func (s *CacheStats) HitRate() float64 {
	accesses := s.nCPUAccesses.Load()
	if accesses == 0 {
		return 0
	}
	return float64(s.nHits.Load()) / float64(accesses)
}

// MissRate returns 1 - HitRate().
func (s *CacheStats) MissRate() float64 {
	return 1 - s.HitRate()
}

// Format style names accepted by FormatStats.
const (
	formatSingleLine = ""
	formatFull       = "full"
)

// FormatStats renders the counters per the named style: "" for the
// single-line summary, "full" for a header line followed by a six-line
// block. Any other style
// returns ErrFormatSpec.
func (s *CacheStats) FormatStats(style string) (string, error) {
	switch style {
	case formatSingleLine:
		return fmt.Sprintf("Hits %d, Misses %d  HR %.2f%%  MR %.2f%%",
			s.Hits(), s.Misses(), s.HitRate()*100, s.MissRate()*100), nil

	case formatFull:
		return fmt.Sprintf(
			"Cache statistics\n"+
				"    CPU accesses : %10d\n"+
				"    Hits         : %10d\n"+
				"    Misses       : %10d\n"+
				"    Evictions    : %10d\n"+
				"    Hit rate     : %5.2f %%\n"+
				"    Miss rate    : %5.2f %%\n",
			s.CPUAccesses(), s.Hits(), s.Misses(), s.Evictions(),
			s.HitRate()*100, s.MissRate()*100), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrFormatSpec, style)
	}
}

// String implements fmt.Stringer with the single-line summary, so a
// CacheStats prints sensibly under %v/%s without the caller having to
// know about FormatStats.
func (s *CacheStats) String() string {
	text, _ := s.FormatStats(formatSingleLine)
	return text
}
