package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"salesdash/internal/amqp"
	"salesdash/internal/cache"
	"salesdash/internal/core"
	"salesdash/internal/loader"
	"salesdash/internal/log"
	"salesdash/internal/report"
	"salesdash/internal/session"
	"salesdash/internal/sheets"
	"salesdash/internal/storage"
)

// ErrNoHistory is returned when load history is not configured.
var ErrNoHistory = errors.New("load history disabled")

// History stores and lists load metadata.
type History interface {
	RecordLoad(ctx context.Context, rec storage.LoadRecord) (int64, error)
	RecentLoads(ctx context.Context, limit int) ([]storage.LoadRecord, error)
}

// EventPublisher announces loads to other processes.
type EventPublisher interface {
	PublishDatasetLoaded(ctx context.Context, msg *amqp.DatasetLoadedMessage) error
}

// Options wires a DashboardService. Loader, Sessions and Default are
// required; History and Events may be nil.
type Options struct {
	Loader         *loader.Loader
	Sessions       *session.Store
	Default        sheets.DatasetReader
	History        History
	Events         EventPublisher
	CurrencySymbol string
	// DefaultRefresh bounds how long the default dataset is reused before
	// its source is read again. Zero reads it once.
	DefaultRefresh time.Duration
	Logger         *log.Logger
}

const defaultKey = "default"

// DashboardService resolves which dataset a session sees and derives the
// dashboard view from it. Load side effects (history, events) never fail
// the request.
type DashboardService struct {
	loader   *loader.Loader
	sessions *session.Store
	source   sheets.DatasetReader
	history  History
	events   EventPublisher
	symbol   string
	logger   *log.Logger

	mu       sync.Mutex
	defaults *cache.LRUCache[*core.Dataset]
}

func NewDashboardService(opts Options) *DashboardService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentApp)
	}
	symbol := opts.CurrencySymbol
	if symbol == "" {
		symbol = report.DefaultCurrencySymbol
	}
	return &DashboardService{
		loader:   opts.Loader,
		sessions: opts.Sessions,
		source:   opts.Default,
		history:  opts.History,
		events:   opts.Events,
		symbol:   symbol,
		logger:   logger,
		defaults: cache.NewLRUCache[*core.Dataset](1, opts.DefaultRefresh),
	}
}

// CurrencySymbol returns the configured KPI prefix.
func (s *DashboardService) CurrencySymbol() string { return s.symbol }

// Upload loads r into the session, replacing any earlier upload. On error
// the session keeps what it had.
func (s *DashboardService) Upload(ctx context.Context, sessionID string, r io.Reader, filename string) (*core.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &core.SourceError{Source: filename, Err: err}
	}
	ds, hit, err := s.loader.Load(ctx, data, filename)
	if err != nil {
		return nil, err
	}
	s.sessions.Put(sessionID, ds)
	s.afterLoad(ctx, ds, storage.OriginUpload, hit)
	return ds, nil
}

// Reset drops the session's upload.
func (s *DashboardService) Reset(sessionID string) {
	s.sessions.Clear(sessionID)
}

// Current returns the session's upload, or the default dataset when it has
// none. The flag reports whether the default is in use.
func (s *DashboardService) Current(ctx context.Context, sessionID string) (*core.Dataset, bool, error) {
	if ds, ok := s.sessions.Dataset(sessionID); ok {
		return ds, false, nil
	}
	ds, err := s.Default(ctx)
	if err != nil {
		return nil, true, err
	}
	return ds, true, nil
}

// Default returns the default dataset, reading its source when nothing is
// cached or the cached copy has expired. Failures are not cached.
func (s *DashboardService) Default(ctx context.Context) (*core.Dataset, error) {
	if ds, ok := s.defaults.Get(defaultKey); ok {
		return ds, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ds, ok := s.defaults.Get(defaultKey); ok {
		return ds, nil
	}

	data, name, err := s.source.ReadDataset(ctx)
	if err != nil {
		return nil, &core.SourceError{Source: name, Err: err}
	}
	ds, hit, err := s.loader.Load(ctx, data, name)
	if err != nil {
		return nil, fmt.Errorf("load default dataset: %w", err)
	}
	s.defaults.Set(defaultKey, ds)
	if !hit {
		s.afterLoad(ctx, ds, storage.OriginDefault, hit)
	}
	return ds, nil
}

// View filters the session's dataset by sel and builds the dashboard.
func (s *DashboardService) View(ctx context.Context, sessionID string, sel core.FilterSelection) (report.View, error) {
	ds, usingDefault, err := s.Current(ctx, sessionID)
	if err != nil {
		return report.View{}, err
	}
	v := report.BuildView(ds, sel, report.Options{
		CurrencySymbol: s.symbol,
		UsingDefault:   usingDefault,
	})
	return v, nil
}

// Filtered returns the session dataset and its rows matching sel, for
// export.
func (s *DashboardService) Filtered(ctx context.Context, sessionID string, sel core.FilterSelection) (*core.Dataset, []core.Row, error) {
	ds, _, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return ds, core.Filter(ds.Rows, sel), nil
}

// RecentLoads lists load history, newest first.
func (s *DashboardService) RecentLoads(ctx context.Context, limit int) ([]storage.LoadRecord, error) {
	if s.history == nil {
		return nil, ErrNoHistory
	}
	return s.history.RecentLoads(ctx, limit)
}

// Ready reports whether the default dataset can be served.
func (s *DashboardService) Ready(ctx context.Context) error {
	_, err := s.Default(ctx)
	return err
}

// LoaderStats exposes memo counters for diagnostics.
func (s *DashboardService) LoaderStats() loader.Stats {
	return s.loader.Stats()
}

// afterLoad publishes the load, or records it directly when no broker is
// configured. With a broker, the worker owns the history.
func (s *DashboardService) afterLoad(ctx context.Context, ds *core.Dataset, origin string, hit bool) {
	if s.events != nil {
		msg := amqp.NewDatasetLoadedMessage(ds.Hash, ds.Source, origin, ds.Len(), hit)
		if err := s.events.PublishDatasetLoaded(ctx, msg); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish dataset loaded event",
				log.FieldOperation, log.OpPublish,
				log.FieldDatasetHash, ds.Hash,
				log.FieldError, err)
			// Don't fail the request - fall through to direct recording
		} else {
			return
		}
	}

	if s.history == nil {
		return
	}
	_, err := s.history.RecordLoad(ctx, storage.LoadRecord{
		Hash:     ds.Hash,
		Source:   ds.Source,
		Origin:   origin,
		Rows:     ds.Len(),
		CacheHit: hit,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to record dataset load",
			log.FieldOperation, log.OpRecord,
			log.FieldDatasetHash, ds.Hash,
			log.FieldError, err)
	}
}
