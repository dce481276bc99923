package domain

import "time"

// RunOutcome describes how a harvesting run ended.
type RunOutcome string

const (
	RunExhausted RunOutcome = "exhausted" // Feed drained naturally
	RunFailed    RunOutcome = "failed"    // Page fetch retries spent; partial totals remain valid
)

// RunStats aggregates the result of one harvesting run for a single tag.
type RunStats struct {
	Tag        string
	Pages      int
	New        int
	Duplicate  int
	Skipped    int // Malformed nodes dropped with a warning
	Excluded   int // Posts dropped by the hashtag exclusion set
	Outcome    RunOutcome
	Elapsed    time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
}
