// Package health implements Kubernetes-style /livez and /readyz probes.
//
// Probes run on a shared interval, each in its own goroutine, and carry
// failure/success thresholds so a single slow database ping does not flip
// the pod out of rotation: a probe must fail FailureThreshold times in a
// row to become unhealthy and succeed SuccessThreshold times in a row to
// recover.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// Probe describes one periodic check. Zero thresholds default to 3 failures
// to trip and 1 success to recover.
type Probe struct {
	Name             string
	Timeout          time.Duration
	Check            CheckFunc
	FailureThreshold int
	SuccessThreshold int
}

// probeState is a Probe plus its runtime state. tick() runs on a single
// goroutine, so the consecutive counters need no synchronization; healthy
// and lastErr are read by HTTP handlers and use atomics.
type probeState struct {
	Probe

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func (p *probeState) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	err := p.Check(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.oks = 0
		p.fails++
		if p.fails >= p.FailureThreshold {
			p.healthy.Store(false)
		}
		return
	}
	p.fails = 0
	p.oks++
	if p.oks >= p.SuccessThreshold {
		p.healthy.Store(true)
	}
}

func (p *probeState) status() string {
	if p.healthy.Load() {
		return "ok"
	}
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error()
	}
	return "unhealthy"
}

// Service aggregates probes behind the two endpoints. It starts not-ready;
// call SetReady(true) after initialization and SetReady(false) to drain
// during shutdown.
type Service struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probeState
	readiness []*probeState
	cancel    context.CancelFunc
}

// New creates an empty, not-ready Service.
func New() *Service {
	return &Service{}
}

func newState(p Probe) *probeState {
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = 3
	}
	if p.SuccessThreshold <= 0 {
		p.SuccessThreshold = 1
	}
	s := &probeState{Probe: p}
	// Assume healthy until the first results arrive.
	s.healthy.Store(true)
	return s
}

// AddLiveness registers a liveness probe: is the process itself functional.
func (s *Service) AddLiveness(p Probe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, newState(p))
}

// AddReadiness registers a readiness probe: can the service take traffic.
// Database and cache connectivity belong here.
func (s *Service) AddReadiness(p Probe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, newState(p))
}

// Start launches one goroutine per registered probe, each ticking at the
// given interval. Register all probes before calling Start.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	probes := make([]*probeState, 0, len(s.liveness)+len(s.readiness))
	probes = append(probes, s.liveness...)
	probes = append(probes, s.readiness...)
	s.mu.Unlock()

	for _, p := range probes {
		go func(p *probeState) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.tick(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.tick(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels all probe goroutines. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady flips the manual readiness gate.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// is currently healthy.
func (s *Service) IsReady() bool {
	if !s.ready.Load() {
		return false
	}
	s.mu.RLock()
	probes := s.readiness
	s.mu.RUnlock()

	for _, p := range probes {
		if !p.healthy.Load() {
			return false
		}
	}
	return true
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while every liveness probe is healthy,
// 503 with per-probe detail otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	probes := make([]*probeState, len(s.liveness))
	copy(probes, s.liveness)
	s.mu.RUnlock()

	writeProbes(w, probes, true)
}

// ReadyEndpoint serves /readyz: 200 while the manual gate is open and every
// readiness probe is healthy.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	probes := make([]*probeState, len(s.readiness))
	copy(probes, s.readiness)
	s.mu.RUnlock()

	writeProbes(w, probes, s.ready.Load())
}

// writeProbes reports every probe's status, not only failures, so a probe
// page shows which dependency tripped.
func writeProbes(w http.ResponseWriter, probes []*probeState, gate bool) {
	resp := probeResponse{Status: "ok", Checks: make(map[string]string, len(probes))}
	healthy := gate
	if !gate {
		resp.Checks["service"] = "not ready"
	}
	for _, p := range probes {
		st := p.status()
		resp.Checks[p.Name] = st
		if st != "ok" {
			healthy = false
		}
	}
	if len(resp.Checks) == 0 {
		resp.Checks = nil
	}

	status := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
