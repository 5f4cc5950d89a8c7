package connectivity

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/dex/internal/pokeapi"
)

const (
	defaultProbeInterval = 15 * time.Second
	maxBackoff           = 30 * time.Second

	// OfflineThreshold is the number of consecutive failed probes that mark the monitor offline.
	OfflineThreshold = 2
)

// Prober pings the API on a cadence and feeds the monitor.
type Prober struct {
	pinger   pokeapi.Pinger
	monitor  *Monitor
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	failures int
}

// NewProber builds a prober. A non-positive interval uses the default.
func NewProber(pinger pokeapi.Pinger, monitor *Monitor, interval time.Duration, logger *slog.Logger) *Prober {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Prober{pinger: pinger, monitor: monitor, interval: interval, logger: logger}
}

// Prime probes once synchronously. Failure marks the monitor offline at once.
func (p *Prober) Prime(ctx context.Context) bool {
	err := p.pinger.Ping(ctx)

	p.mu.Lock()
	if err != nil {
		p.failures = OfflineThreshold
	} else {
		p.failures = 0
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("connectivity probe failed", slog.String("error", err.Error()))
	}
	p.monitor.Set(err == nil)
	return err == nil
}

// Start launches a background goroutine that probes until ctx is cancelled.
// It returns immediately.
func (p *Prober) Start(ctx context.Context) {
	go func() {
		timer := time.NewTimer(p.nextDelay())
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			p.probe(ctx)
			timer.Reset(p.nextDelay())
		}
	}()
}

// Failures returns the current run of failed probes.
func (p *Prober) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

func (p *Prober) probe(ctx context.Context) {
	err := p.pinger.Ping(ctx)
	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	if err != nil {
		p.failures++
	} else {
		p.failures = 0
	}
	failures := p.failures
	p.mu.Unlock()

	if err == nil {
		p.monitor.Set(true)
		return
	}
	p.logger.Debug("connectivity probe failed", slog.Int("failures", failures), slog.String("error", err.Error()))
	if failures >= OfflineThreshold {
		p.monitor.Set(false)
	}
}

func (p *Prober) nextDelay() time.Duration {
	return calculateBackoff(p.Failures(), p.interval)
}

// calculateBackoff doubles the base interval per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 || base >= maxBackoff {
		return base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
