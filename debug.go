package rowan

import (
	"fmt"
	"os"
	"time"
)

// globalDebug mirrors the most recently set Scheduler debug flag so that
// cells (which lack a Scheduler pointer) can check it cheaply. Only valid
// with a single Scheduler; multiple Schedulers with differing debug modes
// will reflect whichever called SetDebugMode last.
var globalDebug bool

// debugWarn prints an advisory line to stderr when debug mode is on.
// Advisories never alter behavior.
func debugWarn(format string, args ...any) {
	if !globalDebug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "[rowan] warning: "+format+"\n", args...)
}

// tickStats holds per-tick timing metrics. Only populated when the
// scheduler's debug mode is on.
type tickStats struct {
	resolveTime time.Duration
	stepTime    time.Duration
	cellCount   int
	stepCount   int
}

// debugLog prints tick timing stats to stderr.
func (s *Scheduler) debugLog(stats tickStats) {
	if !s.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[rowan] resolve: %v (%d cells) | steps: %v (%d steps) | total: %v\n",
		stats.resolveTime, stats.cellCount,
		stats.stepTime, stats.stepCount,
		stats.resolveTime+stats.stepTime)
}
