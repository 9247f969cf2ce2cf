package scoring

import (
	"go.uber.org/zap"

	"github.com/sells-group/ev-risk/internal/model"
	"github.com/sells-group/ev-risk/internal/refdata"
	"github.com/sells-group/ev-risk/internal/resolve"
)

// Observer is notified of every completed score.
type Observer interface {
	ObserveScore(c model.BuyConfidence)
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers o to receive each result.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine scores vehicles against one reference data snapshot. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	snap     *refdata.Snapshot
	resolver *resolve.Resolver
	observer Observer
}

// NewEngine creates an Engine over snap.
func NewEngine(snap *refdata.Snapshot, opts ...Option) *Engine {
	e := &Engine{
		snap:     snap,
		resolver: resolve.New(snap),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns the reference data the engine scores against.
func (e *Engine) Snapshot() *refdata.Snapshot {
	return e.snap
}

// Score computes the Buy Confidence for in. asOfYear is the calendar year
// vehicle age is measured against. Input is assumed to be validated; lookup
// misses fall back to neutral or conservative defaults and never fail.
func (e *Engine) Score(in model.ScoringInput, asOfYear int) model.BuyConfidence {
	m := e.resolver.Resolve(in.Model, in.Year, in.ZipCode)

	battery := Battery(in, asOfYear, BatteryInput{
		Range:   m.Range,
		Climate: m.ClimateZone,
		Data:    e.snap.Battery(),
	})
	platform := Platform(m.Recalls, m.OwnerIssues)
	ownership := Ownership(in, OwnershipInput{
		Climate: m.ClimateZone,
		Charger: m.ChargerDensity,
		Range:   m.Range,
	})

	c := Aggregate(battery, platform, ownership, in.RiskTolerance)

	zap.L().Debug("scoring: scored vehicle",
		zap.String("model", in.Model),
		zap.Int("year", in.Year),
		zap.Int("as_of_year", asOfYear),
		zap.Bool("range_matched", m.Range != nil),
		zap.Int("recalls", len(m.Recalls)),
		zap.Bool("owner_issues_matched", m.OwnerIssues != nil),
		zap.Bool("climate_matched", m.ClimateZone != nil),
		zap.Int("battery", battery.Score),
		zap.Int("platform", platform.Score),
		zap.Int("ownership", ownership.Score),
		zap.Int("weighted", c.WeightedScore),
		zap.Int("overall", c.OverallScore),
		zap.String("rating", string(c.Rating)),
	)

	if e.observer != nil {
		e.observer.ObserveScore(c)
	}
	return c
}
