package query

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const DefaultPollInterval = time.Second

var ErrQueryFailed = errors.New("query failed")

// AthenaAPI is the subset of the Athena client used by Engine.
type AthenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

// Engine submits queries to Athena with results written to a fixed location.
type Engine struct {
	client AthenaAPI
	logger zerolog.Logger

	outputLocation string
	pollInterval   time.Duration
}

func NewEngine(client AthenaAPI, logger zerolog.Logger, outputLocation string) *Engine {
	return &Engine{
		client:         client,
		logger:         logger.With().Str("output_location", outputLocation).Logger(),
		outputLocation: outputLocation,
		pollInterval:   DefaultPollInterval,
	}
}

func (e *Engine) OutputLocation() string {
	return e.outputLocation
}

// Start submits the query and returns its execution id without waiting for the result.
func (e *Engine) Start(ctx context.Context, query string) (string, error) {
	out, err := e.client.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString:        aws.String(query),
		ClientRequestToken: aws.String(uuid.NewString()),
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(e.outputLocation),
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "start query execution failed")
	}

	id := aws.ToString(out.QueryExecutionId)
	e.logger.Info().Str("query_execution_id", id).Str("query", query).Msg("query has been submitted")

	return id, nil
}

// Wait polls the execution state until it is terminal or maxWait elapses.
// FAILED and CANCELLED executions are reported as ErrQueryFailed.
func (e *Engine) Wait(ctx context.Context, id string, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	t := time.NewTicker(e.pollInterval)
	defer t.Stop()

	for {
		out, err := e.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(id),
		})
		if err != nil {
			return errors.Wrap(err, "get query execution failed")
		}

		var state types.QueryExecutionState
		var reason string
		if out.QueryExecution != nil && out.QueryExecution.Status != nil {
			state = out.QueryExecution.Status.State
			reason = aws.ToString(out.QueryExecution.Status.StateChangeReason)
		}

		switch state {
		case types.QueryExecutionStateSucceeded:
			e.logger.Debug().Str("query_execution_id", id).Msg("query has succeeded")
			return nil

		case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
			return errors.Wrapf(ErrQueryFailed, "%s: %s", state, reason)
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "query %s is still %s", id, state)

		case <-t.C:
		}
	}
}

// Exec submits the query and, when maxWait is positive, waits for its completion.
func (e *Engine) Exec(ctx context.Context, query string, maxWait time.Duration) (string, error) {
	id, err := e.Start(ctx, query)
	if err != nil {
		return "", err
	}

	if maxWait <= 0 {
		return id, nil
	}

	return id, e.Wait(ctx, id, maxWait)
}
