package security

import (
	"sync"
	"sync/atomic"
)

// Mesh is the top-level Behavior Scoring & Response Mesh: the stable
// contract exposed to the embedding service (spec §6). It owns C1-C6 by
// exclusive composition; there is no process-global singleton.
//
// If Initialize has not been called, ProcessRequest fails open (allows
// every request). This is a deliberate, documented default — deployments
// that require fail-closed behavior must refuse requests at the caller
// until Initialize returns.
type Mesh struct {
	registry   *Registry
	store      *Store
	scorer     *Scorer
	thresholds *ThresholdManager
	limiter    *RateLimiter
	response   *ResponseEngine

	initialized atomic.Bool
	mu          sync.Mutex
}

// NewMesh constructs a Mesh wired with the given Sinks. Sub-components are
// built with their default configuration (10,000 history entries, 100 rps).
func NewMesh(sinks Sinks) *Mesh {
	registry := NewRegistry()
	return &Mesh{
		registry:   registry,
		store:      NewStore(),
		scorer:     NewScorer(),
		thresholds: NewThresholdManager(),
		limiter:    NewRateLimiter(),
		response:   NewResponseEngine(registry, sinks),
	}
}

// Initialize marks the mesh ready to serve requests.
func (m *Mesh) Initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized.Store(true)
}

// ProcessRequest runs the full control flow for one incoming observation:
// check the rate limit, record the behavior, score it, and — for MEDIUM or
// above — reinforce thresholds, tighten the rate cap, and respond. It
// returns true (allow) unless the rate limit denied the request, the
// scored level is CRITICAL, or PAYLOAD_INJECTION was detected.
//
// ProcessRequest never fails observably: a scoring error is not possible
// in this implementation (Score is a pure function of already-validated
// data), so availability is preserved by construction rather than by a
// recovered panic.
func (m *Mesh) ProcessRequest(clientID string, metrics BehaviorMetrics) bool {
	if !m.initialized.Load() {
		return true
	}

	allowedByLimiter := m.limiter.CheckLimit(clientID)

	m.store.Record(metrics)
	hist, _ := m.store.Snapshot(clientID)
	anomaly := m.scorer.Score(clientID, hist)

	if anomaly.Level >= ThreatMedium {
		m.thresholds.Reinforce(anomaly)
		m.limiter.EnforceDynamic(anomaly)
		m.response.Respond(anomaly)
	}

	if !allowedByLimiter {
		return false
	}
	if anomaly.Level >= ThreatCritical {
		return false
	}
	if anomaly.HasPattern(PatternPayloadInjection) {
		return false
	}
	return true
}

// GetThreatLevel returns the client's current threat level without
// recording a new observation.
func (m *Mesh) GetThreatLevel(clientID string) ThreatLevel {
	return m.GetAnomalyScore(clientID).Level
}

// GetAnomalyScore returns the client's current anomaly score without
// recording a new observation. An unknown client scores SAFE.
func (m *Mesh) GetAnomalyScore(clientID string) AnomalyScore {
	hist, _ := m.store.Snapshot(clientID)
	return m.scorer.Score(clientID, hist)
}

// EnforceDefense is the administrative override: it runs the Response
// Engine's decision table for anomaly without going through
// ProcessRequest's scoring pipeline.
func (m *Mesh) EnforceDefense(anomaly AnomalyScore) {
	m.response.Respond(anomaly)
}

// Registry exposes the underlying Signature Registry for introspection.
func (m *Mesh) Registry() *Registry { return m.registry }

// Thresholds exposes the underlying Threshold Manager for introspection
// and administrative tuning.
func (m *Mesh) Thresholds() *ThresholdManager { return m.thresholds }

// RateLimiter exposes the underlying Rate Limiter for introspection.
func (m *Mesh) RateLimiter() *RateLimiter { return m.limiter }

// ResponseEngine exposes the underlying Response Engine, e.g. to read the
// isolation log for externalization.
func (m *Mesh) ResponseEngine() *ResponseEngine { return m.response }

// Reset clears rate limiter policies and threshold reinforcement,
// restoring defaults. Behavior history and the isolation log are left
// intact — there is no durable state to lose across a Reset.
func (m *Mesh) Reset() {
	m.limiter.Reset()
	m.thresholds.Reset()
}
