// Package health provides readiness state tracking, dependency probes and
// HTTP health check handlers.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// State constants for the readiness state machine.
const (
	stateStarting int32 = iota
	stateReady
	stateDraining
)

// DefaultProbeTimeout bounds each probe run by the readiness handler.
const DefaultProbeTimeout = 5 * time.Second

// Probe checks that a dependency is reachable.
type Probe interface {
	Ping(ctx context.Context) error
}

// ProbeFunc adapts a function to a Probe.
type ProbeFunc func(ctx context.Context) error

// Ping implements Probe.
func (f ProbeFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Checker tracks the readiness state of the server and the probes that
// must pass for it to be ready.
// It is safe for concurrent use.
type Checker struct {
	state        atomic.Int32
	probeTimeout time.Duration

	mu     sync.RWMutex
	probes map[string]Probe
}

// NewChecker creates a Checker in the Starting state.
func NewChecker() *Checker {
	return &Checker{
		probeTimeout: DefaultProbeTimeout,
		probes:       make(map[string]Probe),
	}
}

// SetProbeTimeout changes the per-probe timeout.
func (c *Checker) SetProbeTimeout(d time.Duration) {
	if d > 0 {
		c.probeTimeout = d
	}
}

// AddProbe registers a dependency probe under name, replacing any probe
// already registered with that name.
func (c *Checker) AddProbe(name string, p Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = p
}

// SetReady transitions to the Ready state.
func (c *Checker) SetReady() {
	c.state.Store(stateReady)
}

// SetDraining transitions to the Draining state.
func (c *Checker) SetDraining() {
	c.state.Store(stateDraining)
}

// IsReady returns true when the state is Ready.
func (c *Checker) IsReady() bool {
	return c.state.Load() == stateReady
}

// State returns the current state as a human-readable string.
func (c *Checker) State() string {
	switch c.state.Load() {
	case stateReady:
		return "ready"
	case stateDraining:
		return "draining"
	default:
		return "starting"
	}
}

// CheckProbes runs every probe concurrently and returns the failures keyed
// by probe name. An empty map means every probe passed.
func (c *Checker) CheckProbes(ctx context.Context) map[string]string {
	c.mu.RLock()
	probes := make(map[string]Probe, len(c.probes))
	for name, p := range c.probes {
		probes[name] = p
	}
	c.mu.RUnlock()

	var (
		wg       sync.WaitGroup
		failMu   sync.Mutex
		failures = map[string]string{}
	)
	for name, p := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
			defer cancel()
			if err := p.Ping(pctx); err != nil {
				slog.Warn("health probe failed", "probe", name, "error", err)
				failMu.Lock()
				failures[name] = err.Error()
				failMu.Unlock()
			}
		}()
	}
	wg.Wait()
	return failures
}

// healthResponse is the JSON body returned by health endpoints.
type healthResponse struct {
	Status string            `json:"status"`
	Failed []string          `json:"failed,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// LivenessHandler returns an http.HandlerFunc that always responds 200 OK.
// Use this for K8s livenessProbe (/healthz).
func (*Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// ReadinessHandler returns an http.HandlerFunc that responds 200 when ready
// and every probe passes, and 503 otherwise.
// Use this for K8s readinessProbe (/readyz).
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.IsReady() {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: c.State()})
			return
		}

		failures := c.CheckProbes(r.Context())
		if len(failures) > 0 {
			failed := make([]string, 0, len(failures))
			for name := range failures {
				failed = append(failed, name)
			}
			sort.Strings(failed)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status: "degraded",
				Failed: failed,
				Errors: failures,
			})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: c.State()})
	}
}

func writeJSON(w http.ResponseWriter, code int, v healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
