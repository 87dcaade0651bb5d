package security

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// AlertSink receives a published anomaly alert.
type AlertSink interface {
	Alert(anomaly AnomalyScore)
}

// ThrottleSink receives a request to reduce a client's effective
// throughput by factor, a value in (0,1].
type ThrottleSink interface {
	Throttle(clientID string, factor float64)
}

// IsolationSink receives a durable isolation record for externalization.
type IsolationSink interface {
	Isolate(record ClientIsolation)
}

// RerouteSink receives a request to reroute a client's traffic elsewhere.
type RerouteSink interface {
	Reroute(clientID string)
}

// Sinks bundles the four outbound integration hooks the Response Engine
// publishes to. Any field left nil is simply not invoked — the engine does
// no I/O itself.
type Sinks struct {
	Alert    AlertSink
	Throttle ThrottleSink
	Isolate  IsolationSink
	Reroute  RerouteSink
}

// ResponseEngine is the Response Engine (C6): it maps a scored anomaly to
// an action and keeps the append-only isolation log.
type ResponseEngine struct {
	mu         sync.RWMutex
	isolations []ClientIsolation
	registry   *Registry
	sinks      Sinks
	now        func() time.Time
}

// NewResponseEngine returns a response engine that consults registry for
// reason strings and publishes to sinks.
func NewResponseEngine(registry *Registry, sinks Sinks) *ResponseEngine {
	return &ResponseEngine{registry: registry, sinks: sinks, now: time.Now}
}

// Respond applies the decision table in spec §4.6 for anomaly.Level:
// CRITICAL isolates and alerts; HIGH throttles at 0.5 and alerts; MEDIUM
// throttles at 0.7; LOW/SAFE are no-ops.
func (re *ResponseEngine) Respond(anomaly AnomalyScore) {
	switch {
	case anomaly.Level >= ThreatCritical:
		re.isolate(anomaly)
	case anomaly.Level >= ThreatHigh:
		re.throttle(anomaly.ClientID, 0.5)
		re.alert(anomaly)
	case anomaly.Level >= ThreatMedium:
		re.throttle(anomaly.ClientID, 0.7)
	}
}

func (re *ResponseEngine) isolate(anomaly AnomalyScore) {
	reason := "threat level reached CRITICAL"
	for pattern := range anomaly.DetectedPatterns {
		if r, ok := re.registry.ReasonFor(pattern); ok {
			reason = r
			break
		}
	}
	record := ClientIsolation{
		ID:       uuid.NewString(),
		ClientID: anomaly.ClientID,
		Level:    anomaly.Level,
		Start:    re.now(),
		Reason:   reason,
	}

	re.mu.Lock()
	re.isolations = append(re.isolations, record)
	re.mu.Unlock()

	if re.sinks.Isolate != nil {
		re.sinks.Isolate.Isolate(record)
	}
	re.alert(anomaly)
}

func (re *ResponseEngine) throttle(clientID string, factor float64) {
	if re.sinks.Throttle != nil {
		re.sinks.Throttle.Throttle(clientID, factor)
	}
}

func (re *ResponseEngine) alert(anomaly AnomalyScore) {
	if re.sinks.Alert != nil {
		re.sinks.Alert.Alert(anomaly)
	}
}

// Reroute publishes a reroute request for clientID. It is an
// administrative action never invoked automatically from Respond.
func (re *ResponseEngine) Reroute(clientID string) {
	if re.sinks.Reroute != nil {
		re.sinks.Reroute.Reroute(clientID)
	}
}

// ListIsolations returns a copy of the isolation log accumulated so far.
func (re *ResponseEngine) ListIsolations() []ClientIsolation {
	re.mu.RLock()
	defer re.mu.RUnlock()
	out := make([]ClientIsolation, len(re.isolations))
	copy(out, re.isolations)
	return out
}

// IsolationsSince returns isolation records with Start at or after t.
func (re *ResponseEngine) IsolationsSince(t time.Time) []ClientIsolation {
	re.mu.RLock()
	defer re.mu.RUnlock()
	var out []ClientIsolation
	for _, r := range re.isolations {
		if !r.Start.Before(t) {
			out = append(out, r)
		}
	}
	return out
}
