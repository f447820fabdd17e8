package usecase

import (
	"testing"

	"NotiGate/internal/domain/models"
)

func sig(level models.SignalLevel, score int, sl, tp float64, rr interface{}) *models.TradingSignal {
	s := &models.TradingSignal{
		Symbol:     "BTCUSDT",
		Type:       "breakout",
		Level:      level,
		Score:      score,
		StopLoss:   sl,
		TakeProfit: tp,
	}
	if rr != nil {
		s.Details = map[string]interface{}{"risk_reward_ratio": rr}
	}
	return s
}

func TestShouldAdmitLevelThreeNever(t *testing.T) {
	if ShouldAdmit(sig(models.LevelThree, 10, 1, 2, 5.0)) {
		t.Fatalf("LEVEL_3 must never be admitted")
	}
}

func TestShouldAdmitRiskRewardThreshold(t *testing.T) {
	if ShouldAdmit(sig(models.LevelOne, 10, 1, 2, 1.4)) {
		t.Fatalf("rr below 1.5 must reject")
	}
	if !ShouldAdmit(sig(models.LevelOne, 0, 1, 2, 1.5)) {
		t.Fatalf("rr at 1.5 must admit even with low score")
	}
}

func TestShouldAdmitScoreFallback(t *testing.T) {
	if ShouldAdmit(sig(models.LevelTwo, 5, 1, 2, nil)) {
		t.Fatalf("score below 6 without rr must reject")
	}
	if !ShouldAdmit(sig(models.LevelTwo, 6, 1, 2, nil)) {
		t.Fatalf("score 6 without rr must admit")
	}
}

func TestShouldAdmitRequiresTradePlan(t *testing.T) {
	if ShouldAdmit(sig(models.LevelOne, 10, 0, 2, 3.0)) {
		t.Fatalf("missing stop-loss must reject")
	}
	if ShouldAdmit(sig(models.LevelOne, 10, 1, 0, 3.0)) {
		t.Fatalf("missing take-profit must reject")
	}
}

func TestShouldAdmitNonNumericRiskReward(t *testing.T) {
	// non-numeric rr falls back to score
	if !ShouldAdmit(sig(models.LevelOne, 7, 1, 2, "n/a")) {
		t.Fatalf("non-numeric rr with score 7 must admit")
	}
}

func TestPriorityOf(t *testing.T) {
	cases := []struct {
		s    *models.TradingSignal
		want models.Priority
	}{
		{sig(models.LevelOne, 8, 1, 2, 2.5), models.PriorityUrgent},
		{sig(models.LevelOne, 8, 1, 2, 2.0), models.PriorityHigh}, // boundary: not strictly greater
		{sig(models.LevelOne, 8, 1, 2, nil), models.PriorityHigh},
		{sig(models.LevelTwo, 8, 1, 2, 3.0), models.PriorityMedium},
		{sig(models.LevelThree, 8, 1, 2, 3.0), models.PriorityLow},
	}
	for i, c := range cases {
		if got := PriorityOf(c.s); got != c.want {
			t.Fatalf("case %d: got %s want %s", i, got, c.want)
		}
	}
}
