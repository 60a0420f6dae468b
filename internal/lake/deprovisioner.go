package lake

import (
	"context"

	"github.com/lodthe/nba-datalake/internal/catalog"
	"github.com/lodthe/nba-datalake/internal/storage"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const DeprovisionWorkflow = "deprovision"

const (
	StepDeleteBucket       = "delete_bucket"
	StepDeleteDatabase     = "delete_database"
	StepDeleteQueryResults = "delete_query_results"
)

type DeprovisionerOpts struct {
	Logger zerolog.Logger
	Policy Policy

	Bucket   Bucket
	Database Database

	// ResultsBucket and ResultsPrefix locate the Athena query results.
	ResultsBucket Bucket
	ResultsPrefix string
}

// Deprovisioner removes everything the Provisioner has created.
// Resources that are already gone are treated as deleted.
type Deprovisioner struct {
	logger zerolog.Logger
	policy Policy

	bucket        Bucket
	database      Database
	resultsBucket Bucket
	resultsPrefix string
}

func NewDeprovisioner(opts DeprovisionerOpts) *Deprovisioner {
	return &Deprovisioner{
		logger:        opts.Logger.With().Str("workflow", DeprovisionWorkflow).Logger(),
		policy:        opts.Policy,
		bucket:        opts.Bucket,
		database:      opts.Database,
		resultsBucket: opts.ResultsBucket,
		resultsPrefix: opts.ResultsPrefix,
	}
}

func (d *Deprovisioner) Deprovision(ctx context.Context) *Report {
	steps := []step{
		{name: StepDeleteBucket, run: d.deleteBucket},
		{name: StepDeleteDatabase, run: d.deleteDatabase},
		{name: StepDeleteQueryResults, run: d.deleteQueryResults},
	}

	return runSteps(ctx, d.logger, DeprovisionWorkflow, d.policy, steps)
}

func (d *Deprovisioner) deleteBucket(ctx context.Context) error {
	deleted, err := d.bucket.DeletePrefix(ctx, "")
	if errors.Is(err, storage.ErrBucketNotFound) {
		d.logger.Info().Str("bucket", d.bucket.Name()).Msg("bucket is already deleted")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to empty bucket")
	}

	d.logger.Info().Str("bucket", d.bucket.Name()).Int("object_count", deleted).Msg("bucket has been emptied")

	err = d.bucket.Delete(ctx)
	if errors.Is(err, storage.ErrBucketNotFound) {
		return nil
	}

	return err
}

func (d *Deprovisioner) deleteDatabase(ctx context.Context) error {
	deleted, err := d.database.DeleteTables(ctx)
	if errors.Is(err, catalog.ErrDatabaseNotFound) {
		d.logger.Info().Str("database", d.database.Name()).Msg("database is already deleted")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to delete tables")
	}

	d.logger.Info().Str("database", d.database.Name()).Int("table_count", deleted).Msg("tables have been deleted")

	err = d.database.Delete(ctx)
	if errors.Is(err, catalog.ErrDatabaseNotFound) {
		return nil
	}

	return err
}

func (d *Deprovisioner) deleteQueryResults(ctx context.Context) error {
	deleted, err := d.resultsBucket.DeletePrefix(ctx, d.resultsPrefix)
	if errors.Is(err, storage.ErrBucketNotFound) {
		d.logger.Info().Str("bucket", d.resultsBucket.Name()).Msg("query results bucket is already deleted")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to delete query results")
	}

	d.logger.Info().
		Str("bucket", d.resultsBucket.Name()).
		Str("prefix", d.resultsPrefix).
		Int("object_count", deleted).
		Msg("query results have been deleted")

	return nil
}
