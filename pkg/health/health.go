// Package health provides Kubernetes-style liveness and readiness probe
// endpoints backed by periodically executed checks.
//
// A check flips to unhealthy only after three consecutive failures and back
// to healthy after one success, so a single slow database ping does not pull
// the pod out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Failure and success thresholds, matching Kubernetes probe defaults.
const (
	failAfter    = 3
	recoverAfter = 1
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

type probeKind int

const (
	liveness probeKind = iota
	readiness
)

// probe is one registered check with its debounced state. All state is
// guarded by mu: the ticker goroutine writes, HTTP handlers read.
type probe struct {
	name    string
	kind    probeKind
	timeout time.Duration
	check   CheckFunc

	mu       sync.Mutex
	healthy  bool
	lastErr  error
	failRun  int
	passRun  int
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := p.check(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		p.passRun = 0
		p.failRun++
		if p.failRun >= failAfter {
			p.healthy = false
		}
		return
	}
	p.failRun = 0
	p.passRun++
	if p.passRun >= recoverAfter {
		p.healthy = true
	}
}

// state returns the probe's current health and last observed error.
func (p *probe) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.healthy, p.lastErr
}

// Health runs registered probes in the background and serves their combined
// state on /livez and /readyz style endpoints.
type Health struct {
	mu     sync.Mutex
	probes []*probe
	ready  bool
	cancel context.CancelFunc
}

// New creates a Health service. It starts not ready; call SetReady(true)
// once initialization is done.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe answering "is this process still
// functional", e.g. goroutine count or GC pauses.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.add(name, liveness, timeout, check)
}

// AddReadinessCheck registers a probe answering "can this process serve
// traffic", e.g. database or cache connectivity.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.add(name, readiness, timeout, check)
}

func (h *Health) add(name string, kind probeKind, timeout time.Duration, check CheckFunc) {
	p := &probe{
		name:    name,
		kind:    kind,
		timeout: timeout,
		check:   check,
		healthy: true, // assume healthy until proven otherwise
	}
	h.mu.Lock()
	h.probes = append(h.probes, p)
	h.mu.Unlock()
}

// Start launches one goroutine per registered probe, each running its check
// immediately and then every interval. Register all probes before calling.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, len(h.probes))
	copy(probes, h.probes)
	h.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.run(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels the background probe goroutines. Safe to call repeatedly.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Set false during graceful
// shutdown so load balancers stop routing new traffic here.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	h.ready = ready
	h.mu.Unlock()
}

// IsReady reports whether the manual gate is open and every readiness probe
// is passing.
func (h *Health) IsReady() bool {
	h.mu.Lock()
	ready := h.ready
	probes := h.snapshot(readiness)
	h.mu.Unlock()

	if !ready {
		return false
	}
	for _, p := range probes {
		if ok, _ := p.state(); !ok {
			return false
		}
	}
	return true
}

// snapshot returns the probes of the given kind. Caller must hold h.mu.
func (h *Health) snapshot(kind probeKind) []*probe {
	out := make([]*probe, 0, len(h.probes))
	for _, p := range h.probes {
		if p.kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// statusResponse is the JSON body served by both endpoints. Checks maps each
// probe name to "ok" or its failure message.
type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves the liveness probe: 200 while every liveness check
// passes, 503 with per-check detail otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	probes := h.snapshot(liveness)
	h.mu.Unlock()

	writeStatus(w, probes, true)
}

// ReadyEndpoint serves the readiness probe: 200 only when the manual gate is
// open and every readiness check passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	ready := h.ready
	probes := h.snapshot(readiness)
	h.mu.Unlock()

	writeStatus(w, probes, ready)
}

func writeStatus(w http.ResponseWriter, probes []*probe, gate bool) {
	resp := statusResponse{
		Status: "ok",
		Checks: make(map[string]string, len(probes)),
	}
	code := http.StatusOK

	for _, p := range probes {
		ok, err := p.state()
		if ok {
			resp.Checks[p.name] = "ok"
			continue
		}
		code = http.StatusServiceUnavailable
		resp.Status = "unhealthy"
		if err != nil {
			resp.Checks[p.name] = err.Error()
		} else {
			resp.Checks[p.name] = "unhealthy"
		}
	}
	if !gate {
		code = http.StatusServiceUnavailable
		resp.Status = "unhealthy"
		resp.Checks["_gate"] = "service is not ready"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
