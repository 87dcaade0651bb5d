package security

import (
	"testing"
	"time"
)

func TestMesh_FailsOpenBeforeInitialize(t *testing.T) {
	m := NewMesh(Sinks{})
	allowed := m.ProcessRequest("c1", BehaviorMetrics{ClientID: "c1", Timestamp: time.Now(), Pattern: PatternPayloadInjection})
	if !allowed {
		t.Fatalf("expected fail-open before Initialize, even for a malicious observation")
	}
}

func TestMesh_PayloadInjectionForcesDeny(t *testing.T) {
	m := NewMesh(Sinks{})
	m.Initialize()

	allowed := m.ProcessRequest("c1", BehaviorMetrics{ClientID: "c1", Timestamp: time.Now(), Pattern: PatternPayloadInjection, Confidence: 1.0})
	if allowed {
		t.Fatalf("expected deny on PAYLOAD_INJECTION")
	}
}

func TestMesh_CriticalLevelForcesDeny(t *testing.T) {
	rec := &recordingSinks{}
	m := NewMesh(Sinks{Alert: rec, Isolate: rec})
	m.Initialize()

	now := time.Now()
	// Drive every sub-score to its maximum to guarantee a CRITICAL score.
	for i := 0; i < 30; i++ {
		m.ProcessRequest("c1", BehaviorMetrics{
			ClientID:   "c1",
			ResourceID: "resource-" + string(rune('a'+i%26)),
			Timestamp:  now.Add(time.Duration(i) * time.Millisecond),
			Pattern:    PatternEnumeration,
			Confidence: 0.95,
			Indicators: map[string]float64{"resource_usage": 0.95},
		})
	}
	allowed := m.ProcessRequest("c1", BehaviorMetrics{
		ClientID:   "c1",
		ResourceID: "resource-z",
		Timestamp:  now.Add(31 * time.Millisecond),
		Pattern:    PatternPayloadInjection,
		Confidence: 0.99,
		Indicators: map[string]float64{"resource_usage": 0.99},
	})
	if allowed {
		t.Fatalf("expected deny once anomaly level reaches CRITICAL")
	}
	if len(rec.isolated) == 0 {
		t.Fatalf("expected an isolation record once CRITICAL was reached")
	}
}

func TestMesh_RateLimiterDeniesIndependentlyOfScore(t *testing.T) {
	m := NewMesh(Sinks{})
	m.Initialize()

	for i := 0; i < DefaultRPS; i++ {
		m.ProcessRequest("c1", BehaviorMetrics{ClientID: "c1", Timestamp: time.Now(), Pattern: PatternNormal})
	}
	allowed := m.ProcessRequest("c1", BehaviorMetrics{ClientID: "c1", Timestamp: time.Now(), Pattern: PatternNormal})
	if allowed {
		t.Fatalf("expected deny once the per-second rate cap is exceeded")
	}
}

func TestMesh_GetAnomalyScoreDoesNotRecord(t *testing.T) {
	m := NewMesh(Sinks{})
	m.Initialize()

	before := m.GetAnomalyScore("c1")
	if before.Level != ThreatSafe {
		t.Fatalf("expected SAFE for unseen client")
	}

	m.ProcessRequest("c1", BehaviorMetrics{ClientID: "c1", Timestamp: time.Now(), Pattern: PatternNormal})
	afterProcess := m.GetAnomalyScore("c1")

	afterRead := m.GetAnomalyScore("c1")
	if afterProcess.Score != afterRead.Score {
		t.Fatalf("GetAnomalyScore should not mutate state between calls")
	}
}

func TestMesh_EnforceDefenseIsAdministrative(t *testing.T) {
	rec := &recordingSinks{}
	m := NewMesh(Sinks{Isolate: rec, Alert: rec})
	m.EnforceDefense(AnomalyScore{ClientID: "c1", Level: ThreatCritical})
	if len(rec.isolated) != 1 {
		t.Fatalf("expected EnforceDefense to isolate regardless of Initialize state")
	}
}
