package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/mheir/blogsmith/internal/logfields"
)

// StageFn does one unit of pipeline work against the shared build state.
type StageFn func(ctx context.Context, st *state) error

// StageDef names a stage and binds its function.
type StageDef struct {
	Name string
	Kind ErrorKind
	Fn   StageFn
}

// runStages executes stages in order, recording timing and stopping on the
// first error. A canceled context aborts before the next stage starts.
func runStages(ctx context.Context, st *state, stages []StageDef) error {
	for _, sd := range stages {
		select {
		case <-ctx.Done():
			return newStageError(sd.Name, KindCanceled, ctx.Err())
		default:
		}

		t0 := time.Now()
		err := sd.Fn(ctx, st)
		dur := time.Since(t0)

		st.report.StageDurations[sd.Name] = dur
		st.recorder.ObserveStageDuration(sd.Name, dur)

		if err != nil {
			if ctx.Err() != nil {
				return newStageError(sd.Name, KindCanceled, ctx.Err())
			}
			return newStageError(sd.Name, sd.Kind, err)
		}

		slog.Debug("Stage complete",
			logfields.BuildID(st.report.BuildID),
			logfields.Stage(sd.Name),
			logfields.DurationMS(float64(dur.Milliseconds())),
		)
	}
	return nil
}
