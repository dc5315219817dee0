package ingest

// Stage names the step of a run that failed.
type Stage string

const (
	StageInput     Stage = "input"
	StageConfig    Stage = "config"
	StageConnect   Stage = "connect"
	StageProvision Stage = "provision"
	StageWrite     Stage = "write"
)

// StageError tags a run failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return string(e.Stage) + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(s Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: s, Err: err}
}
