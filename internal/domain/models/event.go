package models

import "time"

// ImpactTier classifies a scheduled economic event by expected market impact.
type ImpactTier string

const (
	ImpactLow    ImpactTier = "LOW"
	ImpactMedium ImpactTier = "MEDIUM"
	ImpactHigh   ImpactTier = "HIGH"
)

// EconomicEvent is a scheduled market event, stored per base asset.
type EconomicEvent struct {
	Time   time.Time  `json:"time"`
	Name   string     `json:"name"`
	Impact ImpactTier `json:"impact"`
}
