package service

import (
	"time"

	"github.com/okian/fraudlens/internal/adapters/charts"
	"github.com/okian/fraudlens/internal/adapters/session"
	"github.com/okian/fraudlens/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithThreshold sets the decision threshold. Values outside (0, 1] are ignored.
func WithThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(st session.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.sessions = st
		}
	}
}

// WithCharts sets the chart renderer.
func WithCharts(r *charts.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.charts = r
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
