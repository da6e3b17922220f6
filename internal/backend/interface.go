package backend

import (
	"context"

	"salesdash/internal/services"
	"salesdash/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds the external dependencies of the dashboard. History and
// Events are nil when not configured.
type Result struct {
	Default sheets.DatasetReader
	History services.History
	Events  services.EventPublisher
	Cleanup CleanupFunc
}

// Factory creates dependencies based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// SourceType selects where the default dataset comes from.
type SourceType string

const (
	FileSource   SourceType = "file"
	SheetsSource SourceType = "sheets"
	SampleSource SourceType = "sample"
)

// String implements fmt.Stringer
func (st SourceType) String() string {
	return string(st)
}

// IsValid returns true if the source type is known
func (st SourceType) IsValid() bool {
	switch st {
	case FileSource, SheetsSource, SampleSource:
		return true
	default:
		return false
	}
}
