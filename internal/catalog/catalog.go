package catalog

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var ErrDatabaseNotFound = errors.New("database not found")

// GlueAPI is the subset of the Glue client used by Database.
type GlueAPI interface {
	CreateDatabase(ctx context.Context, params *glue.CreateDatabaseInput, optFns ...func(*glue.Options)) (*glue.CreateDatabaseOutput, error)
	CreateTable(ctx context.Context, params *glue.CreateTableInput, optFns ...func(*glue.Options)) (*glue.CreateTableOutput, error)
	GetTables(ctx context.Context, params *glue.GetTablesInput, optFns ...func(*glue.Options)) (*glue.GetTablesOutput, error)
	DeleteTable(ctx context.Context, params *glue.DeleteTableInput, optFns ...func(*glue.Options)) (*glue.DeleteTableOutput, error)
	DeleteDatabase(ctx context.Context, params *glue.DeleteDatabaseInput, optFns ...func(*glue.Options)) (*glue.DeleteDatabaseOutput, error)
}

// Database manages a Glue catalog database and its tables.
type Database struct {
	client GlueAPI
	logger zerolog.Logger

	name string
}

func NewDatabase(client GlueAPI, logger zerolog.Logger, name string) *Database {
	return &Database{
		client: client,
		logger: logger.With().Str("database", name).Logger(),
		name:   name,
	}
}

func (d *Database) Name() string {
	return d.name
}

// Create creates the database. An existing database is not an error.
func (d *Database) Create(ctx context.Context, description string) error {
	_, err := d.client.CreateDatabase(ctx, &glue.CreateDatabaseInput{
		DatabaseInput: &types.DatabaseInput{
			Name:        aws.String(d.name),
			Description: aws.String(description),
		},
	})
	if err != nil {
		var exists *types.AlreadyExistsException
		if errors.As(err, &exists) {
			d.logger.Info().Msg("database already exists")
			return nil
		}

		return errors.Wrap(err, "create database failed")
	}

	d.logger.Info().Msg("database has been created")

	return nil
}

// CreateTable registers an external JSON table. An existing table is left untouched.
func (d *Database) CreateTable(ctx context.Context, table Table) error {
	columns := make([]types.Column, 0, len(table.Columns))
	for _, c := range table.Columns {
		columns = append(columns, types.Column{
			Name: aws.String(c.Name),
			Type: aws.String(c.Type),
		})
	}

	_, err := d.client.CreateTable(ctx, &glue.CreateTableInput{
		DatabaseName: aws.String(d.name),
		TableInput: &types.TableInput{
			Name:      aws.String(table.Name),
			TableType: aws.String(externalTableType),
			Parameters: map[string]string{
				"classification": "json",
				"EXTERNAL":       "TRUE",
			},
			StorageDescriptor: &types.StorageDescriptor{
				Columns:      columns,
				Location:     aws.String(table.Location),
				InputFormat:  aws.String(TextInputFormat),
				OutputFormat: aws.String(HiveIgnoreKeyTextOutputFormat),
				SerdeInfo: &types.SerDeInfo{
					SerializationLibrary: aws.String(OpenXJSONSerDe),
				},
			},
		},
	})
	if err != nil {
		var exists *types.AlreadyExistsException
		if errors.As(err, &exists) {
			d.logger.Info().Str("table", table.Name).Msg("table already exists")
			return nil
		}

		return errors.Wrap(d.classify(err), "create table failed")
	}

	d.logger.Info().Str("table", table.Name).Str("location", table.Location).Msg("table has been created")

	return nil
}

// ListTables returns names of the database tables.
// Only the first page of GetTables is fetched.
func (d *Database) ListTables(ctx context.Context) ([]string, error) {
	out, err := d.client.GetTables(ctx, &glue.GetTablesInput{
		DatabaseName: aws.String(d.name),
	})
	if err != nil {
		return nil, errors.Wrap(d.classify(err), "get tables failed")
	}

	names := make([]string, 0, len(out.TableList))
	for _, t := range out.TableList {
		names = append(names, aws.ToString(t.Name))
	}

	return names, nil
}

// DeleteTables deletes every table ListTables finds and returns how many were deleted.
func (d *Database) DeleteTables(ctx context.Context) (int, error) {
	names, err := d.ListTables(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, name := range names {
		_, err = d.client.DeleteTable(ctx, &glue.DeleteTableInput{
			DatabaseName: aws.String(d.name),
			Name:         aws.String(name),
		})
		if err != nil {
			return deleted, errors.Wrapf(d.classify(err), "delete table %s failed", name)
		}

		deleted++
		d.logger.Info().Str("table", name).Msg("table has been deleted")
	}

	return deleted, nil
}

// Delete deletes the database itself.
func (d *Database) Delete(ctx context.Context) error {
	_, err := d.client.DeleteDatabase(ctx, &glue.DeleteDatabaseInput{
		Name: aws.String(d.name),
	})
	if err != nil {
		return errors.Wrap(d.classify(err), "delete database failed")
	}

	d.logger.Info().Msg("database has been deleted")

	return nil
}

func (d *Database) classify(err error) error {
	var notFound *types.EntityNotFoundException
	if errors.As(err, &notFound) {
		return ErrDatabaseNotFound
	}

	return err
}
