package main

import (
	"os"

	"github.com/lodthe/nba-datalake/internal/app"
	"github.com/lodthe/nba-datalake/internal/lake"
	"github.com/lodthe/nba-datalake/internal/storage"

	zlog "github.com/rs/zerolog/log"
)

func main() {
	ctx, cancel := app.Context()
	defer cancel()

	a, err := app.New(ctx)
	if err != nil {
		zlog.Fatal().Err(err).Msg("initialization failed")
	}

	cfg := a.Config

	resultsBucketName, resultsPrefix, err := storage.ParseURI(cfg.Lake.QueryOutputLocation)
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid query output location")
	}

	deprov := lake.NewDeprovisioner(lake.DeprovisionerOpts{
		Logger:        a.Logger,
		Policy:        cfg.FailurePolicy,
		Bucket:        a.DataBucket(),
		Database:      a.Database(),
		ResultsBucket: storage.NewBucket(a.S3, a.Logger, resultsBucketName, cfg.AWS.Region),
		ResultsPrefix: resultsPrefix,
	})

	report := deprov.Deprovision(ctx)

	code := a.Finish(ctx, report)
	cancel()
	os.Exit(code)
}
