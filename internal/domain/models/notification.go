package models

import "time"

// NotificationKind distinguishes delivery paths.
type NotificationKind string

const (
	KindSignal NotificationKind = "signal"
	KindDigest NotificationKind = "digest"
	KindAlert  NotificationKind = "alert"
)

// Notification is a rendered payload handed to the dispatch sink.
type Notification struct {
	Kind       NotificationKind       `json:"kind"`
	Subject    string                 `json:"subject"`
	Body       string                 `json:"body"`
	Recipients []string               `json:"recipients"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// NotificationRecord is the audit entry persisted for each decided signal.
type NotificationRecord struct {
	Timestamp time.Time `json:"ts"`
	Symbol    string    `json:"symbol"`
	Type      string    `json:"type"`
	Level     string    `json:"level"`
	Priority  string    `json:"priority"`
	Outcome   string    `json:"outcome"` // admitted, digested, dispatched, dispatch_failed
	Subject   string    `json:"subject"`
}
