package worker

import (
	"context"
	"fmt"

	"salesdash/internal/amqp"
	"salesdash/internal/log"
	"salesdash/internal/storage"
)

// HistoryStore persists load metadata.
type HistoryStore interface {
	RecordLoad(ctx context.Context, rec storage.LoadRecord) (int64, error)
}

// HistoryWorker writes dataset-loaded events into the load history.
type HistoryWorker struct {
	store  HistoryStore
	logger *log.Logger
}

// NewHistoryWorker creates a worker. A nil logger uses the default.
func NewHistoryWorker(store HistoryStore, logger *log.Logger) *HistoryWorker {
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}
	return &HistoryWorker{store: store, logger: logger.WithComponent(log.ComponentStorage)}
}

// HandleDatasetLoaded records one event. A failed insert is returned so the
// message is requeued.
func (w *HistoryWorker) HandleDatasetLoaded(ctx context.Context, msg *amqp.DatasetLoadedMessage) error {
	id, err := w.store.RecordLoad(ctx, storage.LoadRecord{
		Hash:     msg.Hash,
		Source:   msg.Source,
		Origin:   msg.Origin,
		Rows:     msg.Rows,
		CacheHit: msg.CacheHit,
		LoadedAt: msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("record load: %w", err)
	}

	w.logger.InfoContext(ctx, "Recorded dataset load",
		log.FieldOperation, log.OpRecord,
		log.FieldDatasetHash, msg.Hash,
		log.FieldRows, msg.Rows,
		"id", id,
		"origin", msg.Origin)
	return nil
}
