package models

// Requests for the admission HTTP endpoints. Defined in domain for consistency and reuse.

type SubmitSignalsRequest struct {
	Signals []SignalPayload `json:"signals" validate:"required,min=1,max=200,dive"`
}

// SignalPayload mirrors TradingSignal for ingestion; validated before conversion.
type SignalPayload struct {
	Symbol     string                 `json:"symbol" validate:"required"`
	Indicator  string                 `json:"indicator"`
	Type       string                 `json:"type" validate:"required"`
	Level      string                 `json:"level" validate:"required,oneof=LEVEL_1 LEVEL_2 LEVEL_3"`
	Score      int                    `json:"score" validate:"gte=0,lte=10"`
	StopLoss   float64                `json:"stop_loss"`
	TakeProfit float64                `json:"take_profit"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

func (p *SignalPayload) ToSignal() TradingSignal {
	return TradingSignal{
		Symbol:     p.Symbol,
		Indicator:  p.Indicator,
		Type:       p.Type,
		Level:      SignalLevel(p.Level),
		Score:      p.Score,
		StopLoss:   p.StopLoss,
		TakeProfit: p.TakeProfit,
		Details:    p.Details,
	}
}

type AddEventRequest struct {
	Asset  string `json:"asset" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Time   string `json:"time" validate:"required"`
	Impact string `json:"impact" default:"MEDIUM" validate:"oneof=LOW MEDIUM HIGH"`
}

type SafeCheckRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
}

type UpcomingEventsRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
}

// SubmitSignalsResponse reports batch admission outcomes.
type SubmitSignalsResponse struct {
	Admitted int             `json:"admitted"`
	Digested int             `json:"digested"`
	Dropped  int             `json:"dropped"`
	Signals  []TradingSignal `json:"admitted_signals,omitempty"`
}

// DigestResponse reports the current digest cache contents.
type DigestResponse struct {
	Count    int                        `json:"count"`
	BySymbol map[string][]TradingSignal `json:"by_symbol"`
	Signals  []TradingSignal            `json:"signals"`
}
