package config

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconf "github.com/aws/aws-sdk-go-v2/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger and returns it.
func (c *Config) InitLogger() (zerolog.Logger, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if c.LogFormat == PrettyLogFormat {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zlog.Logger, errors.Wrap(err, "invalid log level")
	}

	zlog.Logger = zlog.Logger.Level(lvl)

	return zlog.Logger, nil
}

// LoadAWS loads the AWS SDK config for the configured region.
func (c *Config) LoadAWS(ctx context.Context) (aws.Config, error) {
	var awsOpts []func(*awsconf.LoadOptions) error
	if c.AWS.AccessKeyID != "" {
		// Static credentials from the config file win.
		// Otherwise, we let SDK to pick credentials from available sources automatically.
		awsOpts = append(awsOpts, awsconf.WithCredentialsProvider(c))
	}

	awsOpts = append(awsOpts, awsconf.WithRegion(c.AWS.Region))

	awsConfig, err := awsconf.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "failed to load AWS config")
	}

	return awsConfig, nil
}
