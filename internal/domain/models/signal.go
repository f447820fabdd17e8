package models

import (
	"encoding/json"
	"time"
)

// SignalLevel is the conviction tier assigned by the upstream analysis engine.
// LEVEL_1 is highest conviction.
type SignalLevel string

const (
	LevelOne   SignalLevel = "LEVEL_1"
	LevelTwo   SignalLevel = "LEVEL_2"
	LevelThree SignalLevel = "LEVEL_3"
)

// Valid reports whether the level is one of the known tiers.
func (l SignalLevel) Valid() bool {
	switch l {
	case LevelOne, LevelTwo, LevelThree:
		return true
	}
	return false
}

// Priority is the scheduling tier derived from a signal, independent of
// whether the signal is admitted for immediate send.
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// TradingSignal is an immutable recommendation produced upstream.
// Level and Score are independent axes: level drives admission, score is the
// fallback when risk/reward is absent from Details.
type TradingSignal struct {
	Symbol     string                 `json:"symbol"`
	Indicator  string                 `json:"indicator"`
	Type       string                 `json:"type"`
	Level      SignalLevel            `json:"level"`
	Score      int                    `json:"score"`
	StopLoss   float64                `json:"stop_loss"`
	TakeProfit float64                `json:"take_profit"` // 0.0 means unset
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// CooldownKey identifies a symbol+type pair for dedup purposes.
func (s *TradingSignal) CooldownKey() string {
	return s.Symbol + "_" + s.Type
}

// HasTradePlan reports whether both stop-loss and take-profit are set.
func (s *TradingSignal) HasTradePlan() bool {
	return s.StopLoss != 0 && s.TakeProfit != 0
}

// RiskReward extracts a numeric risk_reward_ratio from Details if present.
func (s *TradingSignal) RiskReward() (float64, bool) {
	if s.Details == nil {
		return 0, false
	}
	v, ok := s.Details["risk_reward_ratio"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
