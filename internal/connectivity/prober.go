package connectivity

import (
	"context"
	"log/slog"
	"time"
)

// ProbeFunc checks reachability of the remote service. A nil error
// means reachable.
type ProbeFunc func(ctx context.Context) error

// Prober derives a connectivity Signal from periodic probes.
type Prober struct {
	broadcaster
	probe    ProbeFunc
	interval time.Duration
	logger   *slog.Logger
}

// NewProber creates a prober that runs the given probe every interval.
// If logger is nil, a default logger will be used.
func NewProber(probe ProbeFunc, interval time.Duration, logger *slog.Logger) *Prober {
	if probe == nil {
		panic("probe cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Prober{
		probe:    probe,
		interval: interval,
		logger:   logger.With(slog.String("component", "connectivity_prober")),
	}
}

// Ensure Prober implements the Signal interface
var _ Signal = (*Prober)(nil)

// Run probes immediately and then on every tick until ctx is cancelled.
func (p *Prober) Run(ctx context.Context) {
	p.check(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.check(ctx)
		}
	}
}

func (p *Prober) check(ctx context.Context) {
	err := p.probe(ctx)
	online := err == nil

	if p.set(online) {
		if online {
			p.logger.Info("connectivity regained")
		} else {
			p.logger.Info("connectivity lost", slog.String("error", err.Error()))
		}
	}
}

// Manual is a Signal driven explicitly by the host. Tests and
// embedders that track connectivity themselves use it instead of the
// prober.
type Manual struct {
	broadcaster
}

// NewManual creates a manual signal with the given initial state.
func NewManual(online bool) *Manual {
	m := &Manual{}
	m.online = online
	return m
}

// Ensure Manual implements the Signal interface
var _ Signal = (*Manual)(nil)

// Set records a new reachability state, notifying subscribers on change.
func (m *Manual) Set(online bool) {
	m.set(online)
}
