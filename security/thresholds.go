package security

import (
	"math"
	"sync"
)

const (
	// defaultThresholdValue is returned by Get for unrecognized names.
	defaultThresholdValue = 0.5

	thresholdRateLimit    = "rate_limit"
	thresholdAnomalyScore = "anomaly_score"

	rateLimitFloor    = 10.0
	anomalyScoreFloor = 0.2

	reinforceRateLimitFactor    = 0.9
	reinforceAnomalyScoreFactor = 0.95
)

// ThresholdManager is the Threshold Manager (C4): a named mapping of
// scalar thresholds that tightens monotonically under sustained attack.
// Only Reset or an explicit Set relaxes a tightened threshold.
type ThresholdManager struct {
	mu        sync.Mutex
	values    map[string]float64
	hitCounts map[ThreatLevel]uint32
}

// NewThresholdManager returns a manager seeded with the default thresholds.
func NewThresholdManager() *ThresholdManager {
	tm := &ThresholdManager{hitCounts: make(map[ThreatLevel]uint32)}
	tm.values = defaultThresholds()
	return tm
}

func defaultThresholds() map[string]float64 {
	return map[string]float64{
		thresholdRateLimit:     100,
		thresholdAnomalyScore:  0.5,
		"failure_count":        5,
		"enumeration_attempts": 20,
	}
}

// Get returns the current value of name, or defaultThresholdValue if name
// is unrecognized.
func (tm *ThresholdManager) Get(name string) float64 {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if v, ok := tm.values[name]; ok {
		return v
	}
	return defaultThresholdValue
}

// Set assigns v to name, relaxing any prior reinforcement.
func (tm *ThresholdManager) Set(name string, v float64) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.values[name] = v
}

// Reinforce tightens thresholds when anomaly.Level is HIGH or above:
// rate_limit is multiplied by 0.9 (floored at 10.0) and anomaly_score by
// 0.95 (floored at 0.2). A per-level hit counter is always incremented.
func (tm *ThresholdManager) Reinforce(anomaly AnomalyScore) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.hitCounts[anomaly.Level]++

	if anomaly.Level < ThreatHigh {
		return
	}
	tm.values[thresholdRateLimit] = math.Max(tm.values[thresholdRateLimit]*reinforceRateLimitFactor, rateLimitFloor)
	tm.values[thresholdAnomalyScore] = math.Max(tm.values[thresholdAnomalyScore]*reinforceAnomalyScoreFactor, anomalyScoreFloor)
}

// HitCount returns how many times Reinforce has observed the given level
// since the last Reset.
func (tm *ThresholdManager) HitCount(level ThreatLevel) uint32 {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.hitCounts[level]
}

// Reset clears hit counts and restores default threshold values.
func (tm *ThresholdManager) Reset() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.values = defaultThresholds()
	tm.hitCounts = make(map[ThreatLevel]uint32)
}
