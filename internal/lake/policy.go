package lake

import (
	"context"
	"time"

	"github.com/lodthe/nba-datalake/internal/metrics"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Policy defines what happens after a step fails.
type Policy string

const (
	// BestEffort runs every step regardless of earlier failures and reports all of them at the end.
	BestEffort Policy = "best_effort"

	// FailFast stops at the first failed step. The remaining steps are reported as skipped.
	FailFast Policy = "fail_fast"
)

// errSkip is returned by a step that has nothing to do.
var errSkip = errors.New("step skipped")

type step struct {
	name string
	run  func(ctx context.Context) error
}

// runSteps executes steps sequentially according to the policy.
func runSteps(ctx context.Context, logger zerolog.Logger, workflow string, policy Policy, steps []step) *Report {
	report := &Report{
		Workflow:  workflow,
		Policy:    policy,
		StartedAt: time.Now(),
	}

	halted := false
	for _, s := range steps {
		res := StepResult{
			Name:      s.name,
			StartedAt: time.Now(),
		}

		if halted {
			res.Status = StepSkipped
			report.Steps = append(report.Steps, res)
			logger.Debug().Str("step", s.name).Msg("step skipped after an earlier failure")

			continue
		}

		logger.Info().Str("step", s.name).Msg("step started")

		err := s.run(ctx)
		res.Duration = time.Since(res.StartedAt)

		switch {
		case err == nil:
			res.Status = StepSucceeded

		case errors.Is(err, errSkip):
			res.Status = StepSkipped
			logger.Info().Str("step", s.name).Msg("step skipped")

		default:
			res.Status = StepFailed
			res.Err = err
			logger.Error().Err(err).Str("step", s.name).Msg("step failed")

			if policy == FailFast {
				halted = true
			}
		}

		metrics.Workflow.StepProcessed(workflow, s.name, string(res.Status), res.Duration)
		report.Steps = append(report.Steps, res)
	}

	report.FinishedAt = time.Now()

	return report
}
