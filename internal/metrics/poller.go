package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/ev-risk/internal/model"
)

// AnalyticsSource is the slice of store.Store the poller reads.
type AnalyticsSource interface {
	Analytics(ctx context.Context, since time.Time) (*model.Analytics, error)
}

// Poller refreshes the report gauges from the store in the background.
type Poller struct {
	source   AnalyticsSource
	metrics  *Metrics
	interval time.Duration
	lookback time.Duration
	now      func() time.Time
}

// NewPoller creates a poller. Non-positive durations fall back to a
// one-minute interval and a 30-day lookback.
func NewPoller(source AnalyticsSource, m *Metrics, interval, lookback time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	if lookback <= 0 {
		lookback = 30 * 24 * time.Hour
	}
	return &Poller{
		source:   source,
		metrics:  m,
		interval: interval,
		lookback: lookback,
		now:      time.Now,
	}
}

// Run polls once immediately and then on every tick. It blocks until ctx is
// cancelled.
func (p *Poller) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "metrics.poller"))
	log.Info("starting report stats poller",
		zap.Duration("interval", p.interval),
		zap.Duration("lookback", p.lookback),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, log)
	for {
		select {
		case <-ctx.Done():
			log.Info("report stats poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx, log)
		}
	}
}

func (p *Poller) poll(ctx context.Context, log *zap.Logger) {
	a, err := p.source.Analytics(ctx, p.now().Add(-p.lookback))
	if err != nil {
		if ctx.Err() == nil {
			log.Error("metrics: failed to read report analytics", zap.Error(err))
		}
		return
	}
	p.metrics.SetReportStats(a)
	log.Debug("metrics: report stats refreshed", zap.Int("total_reports", a.TotalReports))
}
