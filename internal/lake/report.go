package lake

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type StepStatus string

const (
	StepSucceeded StepStatus = "ok"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

type StepResult struct {
	Name      string
	Status    StepStatus
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Report collects the outcome of every step of a workflow run.
type Report struct {
	Workflow   string
	Policy     Policy
	StartedAt  time.Time
	FinishedAt time.Time

	Steps []StepResult
}

// Step returns the result of the named step.
func (r *Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}

	return StepResult{}, false
}

func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			failed = append(failed, s)
		}
	}

	return failed
}

// Err aggregates all step failures into one error. It is nil when every step succeeded or was skipped.
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(failed))
	for _, s := range failed {
		msgs = append(msgs, s.Name+": "+s.Err.Error())
	}

	return errors.Errorf("%s: %d step(s) failed: %s", r.Workflow, len(failed), strings.Join(msgs, "; "))
}

// Log writes one line per step and a summary line.
func (r *Report) Log(logger zerolog.Logger) {
	for _, s := range r.Steps {
		logger.Info().
			Str("workflow", r.Workflow).
			Str("step", s.Name).
			Str("status", string(s.Status)).
			Dur("elapsed", s.Duration).
			Msg("step summary")
	}

	ev := logger.Info()
	if len(r.Failed()) > 0 {
		ev = logger.Warn()
	}

	ev.Str("workflow", r.Workflow).
		Str("policy", string(r.Policy)).
		Int("failed", len(r.Failed())).
		Dur("elapsed", r.FinishedAt.Sub(r.StartedAt)).
		Msg("workflow has been finished")
}
