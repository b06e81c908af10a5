package build

import "fmt"

// ErrorKind classifies where in the pipeline a build failed.
type ErrorKind string

const (
	KindTheme    ErrorKind = "theme"
	KindContent  ErrorKind = "content"
	KindRender   ErrorKind = "render"
	KindOutput   ErrorKind = "output"
	KindCanceled ErrorKind = "canceled"
)

// StageError wraps an error with the stage it occurred in and its kind.
type StageError struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func newStageError(stage string, kind ErrorKind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
