package runlog

import (
	"time"

	"github.com/lodthe/nba-datalake/internal/lake"

	"github.com/google/uuid"
)

// Run is a journal entry describing one workflow run.
type Run struct {
	ID string `dynamodbav:"Id"`

	Workflow   string    `dynamodbav:"Workflow"`
	Policy     string    `dynamodbav:"Policy"`
	StartedAt  time.Time `dynamodbav:"StartedAt"`
	FinishedAt time.Time `dynamodbav:"FinishedAt"`
	Failed     int       `dynamodbav:"Failed"`

	Steps []Step `dynamodbav:"Steps"`
}

type Step struct {
	Name       string `dynamodbav:"Name"`
	Status     string `dynamodbav:"Status"`
	Error      string `dynamodbav:"Error,omitempty"`
	DurationMs int64  `dynamodbav:"DurationMs"`
}

func FromReport(report *lake.Report) *Run {
	run := &Run{
		ID:         uuid.New().String(),
		Workflow:   report.Workflow,
		Policy:     string(report.Policy),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Failed:     len(report.Failed()),
	}

	for _, s := range report.Steps {
		step := Step{
			Name:       s.Name,
			Status:     string(s.Status),
			DurationMs: s.Duration.Milliseconds(),
		}
		if s.Err != nil {
			step.Error = s.Err.Error()
		}

		run.Steps = append(run.Steps, step)
	}

	return run
}
