package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"stream-market/internal/metrics"
	"stream-market/internal/models"
)

// ExpiredStreamLister finds active streams whose trading window has closed.
type ExpiredStreamLister interface {
	ListExpiredStreams(ctx context.Context, limit int) ([]models.Stream, error)
}

// ExpiryWatcher periodically reports streams that stopped trading but have
// no declared winner. Ending a stream stays with its authority.
type ExpiryWatcher struct {
	lister   ExpiredStreamLister
	metrics  *metrics.Metrics
	log      zerolog.Logger
	interval time.Duration
	batch    int
	stopChan chan struct{}
	done     chan struct{}
}

// NewExpiryWatcher creates a new expiry watcher job
func NewExpiryWatcher(lister ExpiredStreamLister, m *metrics.Metrics, log zerolog.Logger, interval time.Duration) *ExpiryWatcher {
	return &ExpiryWatcher{
		lister:   lister,
		metrics:  m,
		log:      log,
		interval: interval,
		batch:    100,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the scan loop until Stop is called
func (w *ExpiryWatcher) Start() {
	defer close(w.done)
	w.log.Info().Dur("interval", w.interval).Msg("starting expiry watcher")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Scan(context.Background())
	for {
		select {
		case <-ticker.C:
			w.Scan(context.Background())
		case <-w.stopChan:
			w.log.Info().Msg("stopping expiry watcher")
			return
		}
	}
}

// Stop ends the scan loop and waits for it to return
func (w *ExpiryWatcher) Stop() {
	close(w.stopChan)
	<-w.done
}

// Scan runs one pass and returns the number of expired streams found.
func (w *ExpiryWatcher) Scan(ctx context.Context) int {
	streams, err := w.lister.ListExpiredStreams(ctx, w.batch)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to list expired streams")
		return 0
	}

	w.metrics.ExpiredStreams.Set(float64(len(streams)))
	for _, stream := range streams {
		w.log.Warn().
			Uint64("stream_id", stream.StreamID).
			Str("authority", stream.Authority).
			Int64("end_time", stream.EndTime).
			Msg("stream expired without a declared winner")
	}
	return len(streams)
}
