package lake

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lodthe/nba-datalake/internal/catalog"
	"github.com/lodthe/nba-datalake/internal/ndjson"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const ProvisionWorkflow = "provision"

const (
	StepCreateBucket         = "create_bucket"
	StepWaitBucket           = "wait_bucket"
	StepCreateDatabase       = "create_database"
	StepFetchPlayers         = "fetch_players"
	StepUploadPlayers        = "upload_players"
	StepCreateTable          = "create_table"
	StepCreateAthenaDatabase = "create_athena_database"
)

const ndjsonContentType = "application/x-ndjson"

type Bucket interface {
	Name() string
	Create(ctx context.Context) error
	WaitExists(ctx context.Context, maxWait time.Duration) error
	Put(ctx context.Context, key string, body []byte, contentType string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Delete(ctx context.Context) error
}

type Database interface {
	Name() string
	Create(ctx context.Context, description string) error
	CreateTable(ctx context.Context, table catalog.Table) error
	DeleteTables(ctx context.Context) (int, error)
	Delete(ctx context.Context) error
}

type QueryEngine interface {
	Exec(ctx context.Context, query string, maxWait time.Duration) (string, error)
}

type PlayerSource interface {
	GetPlayers(ctx context.Context) ([]json.RawMessage, error)
}

// Resources are the names and locations the provisioner creates beside the bucket and the database.
type Resources struct {
	DatabaseDescription string
	TableName           string

	// DataPrefix is the bucket directory the table points at. DataKey must be inside it.
	DataPrefix string
	DataKey    string

	BucketWaitTimeout time.Duration

	// QueryWaitTimeout is how long to wait for the Athena query. Zero means do not wait.
	QueryWaitTimeout time.Duration
}

type ProvisionerOpts struct {
	Logger zerolog.Logger
	Policy Policy

	Bucket    Bucket
	Database  Database
	Engine    QueryEngine
	Source    PlayerSource
	Resources Resources
}

// Provisioner creates the data lake and loads the player data into it.
type Provisioner struct {
	logger zerolog.Logger
	policy Policy

	bucket   Bucket
	database Database
	engine   QueryEngine
	source   PlayerSource
	res      Resources
}

func NewProvisioner(opts ProvisionerOpts) *Provisioner {
	return &Provisioner{
		logger:   opts.Logger.With().Str("workflow", ProvisionWorkflow).Logger(),
		policy:   opts.Policy,
		bucket:   opts.Bucket,
		database: opts.Database,
		engine:   opts.Engine,
		source:   opts.Source,
		res:      opts.Resources,
	}
}

// Provision runs all provisioning steps. Step failures are collected in the report.
func (p *Provisioner) Provision(ctx context.Context) *Report {
	var players []json.RawMessage

	steps := []step{
		{
			name: StepCreateBucket,
			run:  p.bucket.Create,
		},
		{
			name: StepWaitBucket,
			run: func(ctx context.Context) error {
				return p.bucket.WaitExists(ctx, p.res.BucketWaitTimeout)
			},
		},
		{
			name: StepCreateDatabase,
			run: func(ctx context.Context) error {
				return p.database.Create(ctx, p.res.DatabaseDescription)
			},
		},
		{
			name: StepFetchPlayers,
			run: func(ctx context.Context) error {
				var err error
				players, err = p.source.GetPlayers(ctx)
				if err != nil {
					players = nil
					return errors.Wrap(err, "failed to fetch players")
				}

				p.logger.Info().Int("player_count", len(players)).Msg("players have been fetched")

				return nil
			},
		},
		{
			name: StepUploadPlayers,
			run: func(ctx context.Context) error {
				if len(players) == 0 {
					return errSkip
				}

				return p.uploadPlayers(ctx, players)
			},
		},
		{
			name: StepCreateTable,
			run: func(ctx context.Context) error {
				return p.database.CreateTable(ctx, catalog.Table{
					Name:     p.res.TableName,
					Location: fmt.Sprintf("s3://%s/%s/", p.bucket.Name(), p.res.DataPrefix),
					Columns:  catalog.PlayerColumns,
				})
			},
		},
		{
			name: StepCreateAthenaDatabase,
			run: func(ctx context.Context) error {
				query := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", p.database.Name())
				_, err := p.engine.Exec(ctx, query, p.res.QueryWaitTimeout)

				return err
			},
		},
	}

	return runSteps(ctx, p.logger, ProvisionWorkflow, p.policy, steps)
}

func (p *Provisioner) uploadPlayers(ctx context.Context, players []json.RawMessage) error {
	body, err := ndjson.Encode(players)
	if err != nil {
		return errors.Wrap(err, "failed to encode players")
	}

	return p.bucket.Put(ctx, p.res.DataKey, body, ndjsonContentType)
}
