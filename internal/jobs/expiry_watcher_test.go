package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"stream-market/internal/metrics"
	"stream-market/internal/models"
)

type stubLister struct {
	streams []models.Stream
	err     error
	calls   int
}

func (s *stubLister) ListExpiredStreams(ctx context.Context, limit int) ([]models.Stream, error) {
	s.calls++
	return s.streams, s.err
}

func TestScanSetsGauge(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	lister := &stubLister{streams: []models.Stream{{StreamID: 1}, {StreamID: 2}}}
	w := NewExpiryWatcher(lister, m, zerolog.Nop(), time.Hour)

	if n := w.Scan(context.Background()); n != 2 {
		t.Errorf("Scan = %d, want 2", n)
	}
	if got := testutil.ToFloat64(m.ExpiredStreams); got != 2 {
		t.Errorf("gauge = %v, want 2", got)
	}

	lister.streams = nil
	w.Scan(context.Background())
	if got := testutil.ToFloat64(m.ExpiredStreams); got != 0 {
		t.Errorf("gauge after drain = %v, want 0", got)
	}
}

func TestScanKeepsGaugeOnError(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	lister := &stubLister{streams: []models.Stream{{StreamID: 1}}}
	w := NewExpiryWatcher(lister, m, zerolog.Nop(), time.Hour)
	w.Scan(context.Background())

	lister.err = errors.New("db down")
	if n := w.Scan(context.Background()); n != 0 {
		t.Errorf("Scan = %d, want 0", n)
	}
	if got := testutil.ToFloat64(m.ExpiredStreams); got != 1 {
		t.Errorf("gauge = %v, want last good value 1", got)
	}
}

func TestStartStop(t *testing.T) {
	lister := &stubLister{}
	w := NewExpiryWatcher(lister, metrics.NewNop(), zerolog.Nop(), time.Hour)

	go w.Start()
	w.Stop()

	if lister.calls != 1 {
		t.Errorf("calls = %d, want the initial scan only", lister.calls)
	}
}
