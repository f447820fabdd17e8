package usecase

import (
	"NotiGate/internal/domain/models"
)

// Admission thresholds for immediate send.
const (
	minRiskReward    = 1.5
	minFallbackScore = 6
	urgentRiskReward = 2.0
)

// ShouldAdmit decides whether a signal qualifies for immediate notification.
// Rules are evaluated in order; the first failing condition rejects:
//  1. LEVEL_3 signals are digest-only, never sent immediately.
//  2. When risk/reward is present it must be >= 1.5.
//  3. When risk/reward is absent the score must be >= 6.
//  4. Both stop-loss and take-profit must be set.
//
// Pure function: no I/O, no state across calls.
func ShouldAdmit(sig *models.TradingSignal) bool {
	if sig.Level == models.LevelThree {
		return false
	}
	if rr, ok := sig.RiskReward(); ok {
		if rr < minRiskReward {
			return false
		}
	} else if sig.Score < minFallbackScore {
		return false
	}
	return sig.HasTradePlan()
}

// PriorityOf maps a signal to its scheduling tier, independent of admission.
func PriorityOf(sig *models.TradingSignal) models.Priority {
	switch sig.Level {
	case models.LevelOne:
		if rr, ok := sig.RiskReward(); ok && rr > urgentRiskReward {
			return models.PriorityUrgent
		}
		return models.PriorityHigh
	case models.LevelTwo:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
