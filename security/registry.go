package security

import "sync"

// Registry is the Signature Registry (C1): an unordered catalog of named
// threat patterns and their trigger parameters. It is reference data —
// the Scorer computes anomaly sub-scores independently of it (see
// scorer.go) — and exists for introspection and for producing
// human-readable reason strings for the Response Engine.
type Registry struct {
	mu         sync.RWMutex
	signatures map[string]ThreatSignature
}

// NewRegistry returns a Registry seeded with the default signatures.
func NewRegistry() *Registry {
	r := &Registry{signatures: make(map[string]ThreatSignature)}
	for _, sig := range defaultSignatures() {
		r.Add(sig)
	}
	return r
}

func defaultSignatures() []ThreatSignature {
	return []ThreatSignature{
		{ID: "rapid_failures", Pattern: PatternRapidFailures, Threshold: 5, WindowMS: 60_000, Severity: ThreatMedium, Description: "5 failed requests in 1 minute"},
		{ID: "enumeration_attack", Pattern: PatternEnumeration, Threshold: 20, WindowMS: 300_000, Severity: ThreatHigh, Description: "20+ path enumeration attempts"},
		{ID: "payload_injection", Pattern: PatternPayloadInjection, Threshold: 1, WindowMS: 1_000, Severity: ThreatCritical, Description: "Malicious payload detected"},
		{ID: "timing_attack", Pattern: PatternTimingAttack, Threshold: 50, WindowMS: 60_000, Severity: ThreatMedium, Description: "Abnormal request timing pattern"},
		{ID: "resource_abuse", Pattern: PatternResourceAbuse, Threshold: 100, WindowMS: 60_000, Severity: ThreatHigh, Description: "Excessive resource consumption"},
	}
}

// Add inserts or replaces a signature by its ID.
func (r *Registry) Add(sig ThreatSignature) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signatures[sig.ID] = sig
}

// Get returns the signature registered under id, if any.
func (r *Registry) Get(id string) (ThreatSignature, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sig, ok := r.signatures[id]
	return sig, ok
}

// MatchesPattern reports whether any registered signature targets p.
func (r *Registry) MatchesPattern(p BehaviorPattern) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sig := range r.signatures {
		if sig.Pattern == p {
			return true
		}
	}
	return false
}

// ReasonFor returns the description of the highest-severity registered
// signature targeting p, for use in isolation records and alert payloads.
// Returns false if no signature targets p.
func (r *Registry) ReasonFor(p BehaviorPattern) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best ThreatSignature
	found := false
	for _, sig := range r.signatures {
		if sig.Pattern != p {
			continue
		}
		if !found || sig.Severity > best.Severity {
			best = sig
			found = true
		}
	}
	if !found {
		return "", false
	}
	return best.Description, true
}
