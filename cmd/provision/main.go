package main

import (
	"net/http"
	"os"

	"github.com/lodthe/nba-datalake/internal/app"
	"github.com/lodthe/nba-datalake/internal/lake"
	"github.com/lodthe/nba-datalake/internal/query"
	"github.com/lodthe/nba-datalake/pkg/sportsdata"

	"github.com/aws/aws-sdk-go-v2/service/athena"
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
	if cfg.SportsData.APIKey == "" {
		a.Logger.Warn().Msg("sports_data.api_key is empty, the players fetch will most likely fail")
	}

	sportsCli := sportsdata.NewClient(
		cfg.SportsData.Endpoint,
		cfg.SportsData.APIKey,
		cfg.SportsData.MaxRPS,
		&http.Client{Timeout: cfg.SportsData.Timeout},
	)

	prov := lake.NewProvisioner(lake.ProvisionerOpts{
		Logger:   a.Logger,
		Policy:   cfg.FailurePolicy,
		Bucket:   a.DataBucket(),
		Database: a.Database(),
		Engine:   query.NewEngine(athena.NewFromConfig(a.AWS), a.Logger, cfg.Lake.QueryOutputLocation),
		Source:   sportsCli,
		Resources: lake.Resources{
			DatabaseDescription: cfg.Lake.DatabaseDescription,
			TableName:           cfg.Lake.TableName,
			DataPrefix:          cfg.Lake.DataPrefix,
			DataKey:             cfg.Lake.DataKey,
			BucketWaitTimeout:   cfg.Lake.BucketWaitTimeout,
			QueryWaitTimeout:    cfg.Lake.QueryWaitTimeout,
		},
	})

	report := prov.Provision(ctx)

	code := a.Finish(ctx, report)
	cancel()
	os.Exit(code)
}
