package backend

import (
	"fmt"

	"salesdash/internal/config"
)

// Config holds configuration for dependency creation
type Config struct {
	Source SourceType

	// File source
	DefaultDataPath string

	// Sheets source
	GoogleSpreadsheetID string
	GoogleSheetRange    string

	// Load history; empty disables
	HistoryDBPath string

	// Events; empty URL disables
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	source := SourceType(appConfig.DataSource)
	if !source.IsValid() {
		return Config{}, fmt.Errorf("invalid data source in config: %s", appConfig.DataSource)
	}

	return Config{
		Source:              source,
		DefaultDataPath:     appConfig.DefaultDataPath,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetRange:    appConfig.GoogleSheetRange,
		HistoryDBPath:       appConfig.HistoryDBPath,
		AMQPURL:             appConfig.AMQPURL,
		AMQPExchange:        appConfig.AMQPExchange,
		AMQPQueue:           appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Source.IsValid() {
		return fmt.Errorf("invalid data source: %s", c.Source)
	}

	switch c.Source {
	case FileSource:
		if c.DefaultDataPath == "" {
			return fmt.Errorf("default data path is required for file source")
		}
	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets source")
		}
	case SampleSource:
		// embedded, nothing to check
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}

// GetSourceTypes returns all valid source types
func GetSourceTypes() []SourceType {
	return []SourceType{FileSource, SheetsSource, SampleSource}
}
