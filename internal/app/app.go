// Package app holds the bootstrap shared by the provision and deprovision commands.
package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/lodthe/nba-datalake/internal/catalog"
	"github.com/lodthe/nba-datalake/internal/config"
	"github.com/lodthe/nba-datalake/internal/lake"
	"github.com/lodthe/nba-datalake/internal/metrics"
	"github.com/lodthe/nba-datalake/internal/runlog"
	"github.com/lodthe/nba-datalake/internal/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type App struct {
	Config *config.Config
	Logger zerolog.Logger
	AWS    aws.Config

	S3 *s3.Client

	journal runlog.Repository
}

// Context returns a context cancelled on SIGINT or SIGTERM.
func Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// New loads the config, initializes the logger and the AWS SDK config.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "config cannot be loaded")
	}

	logger, err := cfg.InitLogger()
	if err != nil {
		return nil, err
	}

	awsConfig, err := cfg.LoadAWS(ctx)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		AWS:    awsConfig,
		S3:     s3.NewFromConfig(awsConfig),
	}

	if cfg.AWS.RunsTableName != "" {
		a.journal = runlog.NewRepository(dynamodb.NewFromConfig(awsConfig), cfg.AWS.RunsTableName)
	}

	return a, nil
}

// DataBucket returns the data lake bucket.
func (a *App) DataBucket() *storage.Bucket {
	return storage.NewBucket(a.S3, a.Logger, a.Config.Lake.BucketName, a.Config.AWS.Region)
}

// Database returns the Glue catalog database of the lake.
func (a *App) Database() *catalog.Database {
	return catalog.NewDatabase(glue.NewFromConfig(a.AWS), a.Logger, a.Config.Lake.DatabaseName)
}

// Finish reports the workflow outcome and returns the process exit code.
func (a *App) Finish(ctx context.Context, report *lake.Report) int {
	report.Log(a.Logger)

	if a.journal != nil {
		run := runlog.FromReport(report)
		err := a.journal.Create(ctx, run)
		if err != nil {
			a.Logger.Error().Err(err).Msg("failed to save the run to the journal")
		} else {
			a.Logger.Info().Str("run_id", run.ID).Msg("run has been saved to the journal")
		}
	}

	if url := a.Config.Metrics.PushgatewayURL; url != "" {
		err := metrics.Push(url, a.Config.Metrics.Job)
		if err != nil {
			a.Logger.Error().Err(err).Str("url", url).Msg("failed to push metrics")
		}
	}

	err := report.Err()
	if err != nil && report.Policy == lake.FailFast {
		a.Logger.Error().Err(err).Msg("workflow has been stopped")
		return 1
	}

	return 0
}
