package build

import "time"

// Outcome is the final state of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report captures what a single build did.
type Report struct {
	BuildID        string
	Started        time.Time
	Duration       time.Duration
	Outcome        Outcome
	Pages          int
	ManifestHash   string
	StageDurations map[string]time.Duration
}

func newReport(buildID string) *Report {
	return &Report{
		BuildID:        buildID,
		Started:        time.Now(),
		StageDurations: make(map[string]time.Duration),
	}
}

func (r *Report) finish(outcome Outcome) {
	r.Duration = time.Since(r.Started)
	r.Outcome = outcome
}
