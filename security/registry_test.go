package security

import "testing"

func TestRegistry_DefaultSignaturesSeeded(t *testing.T) {
	r := NewRegistry()
	sig, ok := r.Get("payload_injection")
	if !ok {
		t.Fatalf("expected payload_injection to be seeded")
	}
	if sig.Severity != ThreatCritical {
		t.Fatalf("expected CRITICAL severity, got %s", sig.Severity)
	}
	if !r.MatchesPattern(PatternEnumeration) {
		t.Fatalf("expected enumeration_attack to match ENUMERATION")
	}
	if r.MatchesPattern(PatternNormal) {
		t.Fatalf("expected no signature to match NORMAL")
	}
}

func TestRegistry_AddReplacesByID(t *testing.T) {
	r := NewRegistry()
	r.Add(ThreatSignature{ID: "rapid_failures", Pattern: PatternRapidFailures, Severity: ThreatCritical, Description: "updated"})
	sig, ok := r.Get("rapid_failures")
	if !ok {
		t.Fatalf("expected signature present")
	}
	if sig.Severity != ThreatCritical || sig.Description != "updated" {
		t.Fatalf("expected replace-by-id semantics, got %+v", sig)
	}
}

func TestRegistry_ReasonForPicksHighestSeverity(t *testing.T) {
	r := NewRegistry()
	r.Add(ThreatSignature{ID: "extra_enum", Pattern: PatternEnumeration, Severity: ThreatCritical, Description: "critical variant"})
	reason, ok := r.ReasonFor(PatternEnumeration)
	if !ok {
		t.Fatalf("expected a reason")
	}
	if reason != "critical variant" {
		t.Fatalf("expected highest severity signature's description, got %q", reason)
	}
}

func TestRegistry_ReasonForUnknownPattern(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.ReasonFor(PatternNormal); ok {
		t.Fatalf("expected no reason for NORMAL")
	}
}
