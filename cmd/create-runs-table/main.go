package main

import (
	"context"
	"os"

	"github.com/lodthe/nba-datalake/internal/config"
	"github.com/lodthe/nba-datalake/internal/runlog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("config cannot be loaded")
	}

	tableName := cfg.AWS.RunsTableName
	if tableName == "" {
		zlog.Fatal().Msg("aws.runs_table is not set")
	}

	awsConfig, err := cfg.LoadAWS(context.Background())
	if err != nil {
		zlog.Fatal().Err(err).Msg("AWS config cannot be loaded")
	}

	client := dynamodb.NewFromConfig(awsConfig)

	_, err = client.CreateTable(context.TODO(), runlog.CreateTableInput(tableName))
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			zlog.Info().Str("table_name", tableName).Msg("table already exists")
			return
		}

		zlog.Fatal().Err(err).Msg("table creation failed")
	}

	zlog.Info().Str("table_name", tableName).Msg("created successfully")
}
