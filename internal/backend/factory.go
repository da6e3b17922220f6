package backend

import (
	"context"
	"errors"
	"fmt"
	"os"

	"salesdash/assets"
	"salesdash/internal/amqp"
	"salesdash/internal/log"
	"salesdash/internal/sheets"
	gsheet "salesdash/internal/sheets/google"
	"salesdash/internal/sheets/memory"
	"salesdash/internal/storage"
)

var _ Factory = (*DefaultFactory)(nil)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Default(log.ComponentApp)
	}
	return &DefaultFactory{logger: logger}
}

// Create opens the default dataset source, the load history and the event
// publisher. A broker that cannot be reached is logged and skipped; the
// other two fail the call.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	source, err := f.createSource(ctx, config)
	if err != nil {
		return nil, err
	}

	res := &Result{Default: source}
	var closers []func() error

	if config.HistoryDBPath != "" {
		repo, err := f.OpenHistory(config.HistoryDBPath)
		if err != nil {
			return nil, err
		}
		res.History = repo
		closers = append(closers, repo.Close)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, amqp.WithLogger(f.logger))
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, recording loads directly",
				log.FieldOperation, log.OpStartup,
				log.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.Events = client
			closers = append(closers, client.Close)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return res, nil
}

// OpenHistory opens (and migrates) the load history database.
func (f *DefaultFactory) OpenHistory(path string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize load history: %w", err)
	}
	f.logger.Info("Initialized load history",
		"db_path", path,
		"schema_version", repo.SchemaVersion())
	return repo, nil
}

func (f *DefaultFactory) createSource(ctx context.Context, config Config) (sheets.DatasetReader, error) {
	switch config.Source {
	case FileSource:
		if _, err := os.Stat(config.DefaultDataPath); err != nil {
			f.logger.Warn("Default data file not available, using embedded sample",
				log.FieldSource, config.DefaultDataPath,
				log.FieldError, err)
			return memory.New(assets.SampleName, assets.SampleCSV), nil
		}
		f.logger.Info("Default dataset from file", log.FieldSource, config.DefaultDataPath)
		return memory.NewFromFile(config.DefaultDataPath), nil

	case SheetsSource:
		cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetRange)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Default dataset from Google Sheets", log.FieldSource, cli.Source())
		return cli, nil

	case SampleSource:
		f.logger.Info("Default dataset from embedded sample", log.FieldSource, assets.SampleName)
		return memory.New(assets.SampleName, assets.SampleCSV), nil

	default:
		return nil, fmt.Errorf("unsupported data source: %s", config.Source)
	}
}
