package security

import (
	"testing"
	"time"
)

func TestRateLimiter_DeniesOverCap(t *testing.T) {
	rl := NewRateLimiterWithDefault(100)
	fixed := time.Now()
	rl.now = func() time.Time { return fixed }

	for i := 0; i < 100; i++ {
		if !rl.CheckLimit("c1") {
			t.Fatalf("expected allow on request %d", i)
		}
	}
	if rl.CheckLimit("c1") {
		t.Fatalf("expected the 101st request to be denied")
	}

	rl.now = func() time.Time { return fixed.Add(1100 * time.Millisecond) }
	if !rl.CheckLimit("c1") {
		t.Fatalf("expected allow after window rotation")
	}
}

func TestRateLimiter_EnforceDynamicTightensOnly(t *testing.T) {
	rl := NewRateLimiterWithDefault(100)
	rl.CheckLimit("c1") // seed the policy

	rl.EnforceDynamic(AnomalyScore{ClientID: "c1", Level: ThreatHigh})
	if rl.policies["c1"].rpsCap != 10 {
		t.Fatalf("expected cap 10 after HIGH reinforcement, got %d", rl.policies["c1"].rpsCap)
	}

	// A later MEDIUM-level anomaly must not relax the cap back up.
	rl.EnforceDynamic(AnomalyScore{ClientID: "c1", Level: ThreatMedium})
	if rl.policies["c1"].rpsCap != 10 {
		t.Fatalf("expected cap to remain tightened at 10, got %d", rl.policies["c1"].rpsCap)
	}
}

func TestRateLimiter_ResetRestoresDefault(t *testing.T) {
	rl := NewRateLimiterWithDefault(100)
	rl.EnforceDynamic(AnomalyScore{ClientID: "c1", Level: ThreatHigh})
	rl.Reset()

	for i := 0; i < 100; i++ {
		if !rl.CheckLimit("c1") {
			t.Fatalf("expected default cap restored, denied at request %d", i)
		}
	}
}
