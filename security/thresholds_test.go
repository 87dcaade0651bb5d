package security

import "testing"

func TestThresholdManager_Defaults(t *testing.T) {
	tm := NewThresholdManager()
	if tm.Get(thresholdRateLimit) != 100 {
		t.Fatalf("expected default rate_limit 100, got %v", tm.Get(thresholdRateLimit))
	}
	if tm.Get("unknown") != defaultThresholdValue {
		t.Fatalf("expected default value for unknown threshold")
	}
}

func TestThresholdManager_ReinforceIsMonotoneAndFloored(t *testing.T) {
	tm := NewThresholdManager()
	prevRate := tm.Get(thresholdRateLimit)
	prevScore := tm.Get(thresholdAnomalyScore)

	for i := 0; i < 200; i++ {
		tm.Reinforce(AnomalyScore{Level: ThreatHigh})
		rate := tm.Get(thresholdRateLimit)
		score := tm.Get(thresholdAnomalyScore)
		if rate > prevRate {
			t.Fatalf("rate_limit increased under reinforcement: %v -> %v", prevRate, rate)
		}
		if score > prevScore {
			t.Fatalf("anomaly_score increased under reinforcement: %v -> %v", prevScore, score)
		}
		if rate < rateLimitFloor {
			t.Fatalf("rate_limit fell below floor: %v", rate)
		}
		if score < anomalyScoreFloor {
			t.Fatalf("anomaly_score fell below floor: %v", score)
		}
		prevRate, prevScore = rate, score
	}
}

func TestThresholdManager_ReinforceIgnoresSubHighLevels(t *testing.T) {
	tm := NewThresholdManager()
	before := tm.Get(thresholdRateLimit)
	tm.Reinforce(AnomalyScore{Level: ThreatMedium})
	if tm.Get(thresholdRateLimit) != before {
		t.Fatalf("expected no tightening below HIGH, got %v -> %v", before, tm.Get(thresholdRateLimit))
	}
	if tm.HitCount(ThreatMedium) != 1 {
		t.Fatalf("expected hit count incremented regardless of level")
	}
}

func TestThresholdManager_ResetRestoresDefaults(t *testing.T) {
	tm := NewThresholdManager()
	tm.Reinforce(AnomalyScore{Level: ThreatCritical})
	tm.Reset()
	if tm.Get(thresholdRateLimit) != 100 {
		t.Fatalf("expected rate_limit restored to 100, got %v", tm.Get(thresholdRateLimit))
	}
	if tm.HitCount(ThreatCritical) != 0 {
		t.Fatalf("expected hit counts cleared")
	}
}
