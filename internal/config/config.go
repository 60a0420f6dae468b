package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/lodthe/nba-datalake/internal/lake"
	"github.com/lodthe/nba-datalake/pkg/sportsdata"

	"github.com/aws/aws-sdk-go-v2/aws"
	gconfig "github.com/gookit/config/v2"
	gyaml "github.com/gookit/config/v2/yaml"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const DefaultConfigPath = "config.yaml"

type LogFormat string

const (
	PrettyLogFormat LogFormat = "pretty"
	JSONLogFormat   LogFormat = "json"
)

type Config struct {
	LogLevel  string    `mapstructure:"log_level"`
	LogFormat LogFormat `mapstructure:"log_format"`

	AWS        AWS        `mapstructure:"aws"`
	Lake       Lake       `mapstructure:"lake"`
	SportsData SportsData `mapstructure:"sports_data"`
	Metrics    Metrics    `mapstructure:"metrics"`

	FailurePolicy lake.Policy `mapstructure:"failure_policy"`
}

type AWS struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`

	// RunsTableName enables the run journal when set.
	RunsTableName string `mapstructure:"runs_table"`
}

// Lake holds every resource identifier shared by the provision and deprovision commands.
type Lake struct {
	BucketName          string `mapstructure:"bucket"`
	DatabaseName        string `mapstructure:"database"`
	DatabaseDescription string `mapstructure:"database_description"`
	TableName           string `mapstructure:"table"`

	DataPrefix string `mapstructure:"data_prefix"`
	DataKey    string `mapstructure:"data_key"`

	// QueryOutputLocation is an s3:// URI where Athena writes query results.
	QueryOutputLocation string `mapstructure:"query_output_location"`

	BucketWaitTimeout time.Duration `mapstructure:"bucket_wait_timeout"`
	QueryWaitTimeout  time.Duration `mapstructure:"query_wait_timeout"`
}

type SportsData struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	MaxRPS   int           `mapstructure:"max_rps"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Metrics struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// Load reads the config file located at CONFIG_PATH (or the default path).
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultConfigPath
	}

	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	c := gconfig.NewWithOptions("nba-datalake",
		gconfig.ParseEnv,
		gconfig.Readonly,
		func(opts *gconfig.Options) {
			opts.DecoderConfig = &mapstructure.DecoderConfig{
				TagName:          "mapstructure",
				WeaklyTypedInput: true,
				// A custom hook replaces the gookit default one, so env references are resolved here.
				DecodeHook: mapstructure.ComposeDecodeHookFunc(
					gconfig.ValDecodeHookFunc(true, false),
					mapstructure.StringToTimeDurationHookFunc(),
				),
			}
		},
	)
	c.AddDriver(gyaml.Driver)

	err := c.LoadFiles(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	cfg := new(Config)
	err = c.BindStruct("", cfg)
	if err != nil {
		return nil, errors.Wrap(err, "config binding failed")
	}

	err = cfg.validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return cfg, nil
}

// validate verifies the loaded config and sets default values for missed fields.
func (c *Config) validate() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = PrettyLogFormat
	}

	if c.AWS.Region == "" {
		return errors.New("aws.region is required")
	}

	l := &c.Lake
	if l.BucketName == "" {
		return errors.New("lake.bucket is required")
	}
	if l.DatabaseName == "" {
		return errors.New("lake.database is required")
	}
	if l.TableName == "" {
		return errors.New("lake.table is required")
	}
	if l.DatabaseDescription == "" {
		l.DatabaseDescription = "NBA player data lake"
	}
	if l.DataPrefix == "" {
		l.DataPrefix = "raw-data"
	}
	l.DataPrefix = strings.Trim(l.DataPrefix, "/")
	if l.DataKey == "" {
		l.DataKey = l.DataPrefix + "/nba_player_data.jsonl"
	}
	if l.QueryOutputLocation == "" {
		l.QueryOutputLocation = "s3://" + l.BucketName + "/athena-results/"
	}
	if !strings.HasPrefix(l.QueryOutputLocation, "s3://") {
		return errors.Errorf("lake.query_output_location must be an s3:// uri, got %q", l.QueryOutputLocation)
	}
	if l.BucketWaitTimeout == 0 {
		l.BucketWaitTimeout = 30 * time.Second
	}

	s := &c.SportsData
	if s.Endpoint == "" {
		s.Endpoint = sportsdata.PlayersURL
	}
	if s.MaxRPS == 0 {
		s.MaxRPS = sportsdata.DefaultMaxRPS
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}

	if c.Metrics.Job == "" {
		c.Metrics.Job = "nba_datalake"
	}

	switch c.FailurePolicy {
	case lake.BestEffort, lake.FailFast:

	case "":
		c.FailurePolicy = lake.BestEffort

	default:
		return errors.Errorf("unknown failure policy %s (supported: %s, %s)", c.FailurePolicy, lake.BestEffort, lake.FailFast)
	}

	return nil
}

func (c *Config) Retrieve(_ context.Context) (aws.Credentials, error) {
	return aws.Credentials{
		AccessKeyID:     c.AWS.AccessKeyID,
		SecretAccessKey: c.AWS.SecretAccessKey,
		Source:          "local config",
	}, nil
}
