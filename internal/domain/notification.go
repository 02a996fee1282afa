package domain

import (
	"fmt"
	"time"
)

// ImpactLevel is the 3-tier urgency classification assigned to newly
// discovered regulatory documents.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "LOW"
	ImpactMedium ImpactLevel = "MEDIUM"
	ImpactHigh   ImpactLevel = "HIGH"
)

// Notification announces a newly discovered document to users. It is created
// by the impact classifier on the discovery path, or by a watcher with a
// generic message when classification is skipped or fails.
type Notification struct {
	ID          int64
	Title       string
	Message     string
	DocName     string
	SourceURL   string
	ImpactLevel ImpactLevel
	ActionDraft string
	CreatedAt   time.Time
}

// ValidateNotification validates a Notification instance
func ValidateNotification(n *Notification) error {
	if n == nil {
		return fmt.Errorf("notification cannot be nil")
	}

	if n.Title == "" {
		return fmt.Errorf("notification Title is required")
	}

	if n.DocName == "" {
		return fmt.Errorf("notification DocName is required")
	}

	if !isValidImpactLevel(n.ImpactLevel) {
		return fmt.Errorf("notification ImpactLevel is invalid: %s", n.ImpactLevel)
	}

	return nil
}

// isValidImpactLevel checks if an ImpactLevel is one of the three tiers
func isValidImpactLevel(l ImpactLevel) bool {
	switch l {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return true
	}
	return false
}

// ParseImpactLevel maps free-form model output onto the closed 3-value set,
// defaulting to LOW for anything unrecognized.
func ParseImpactLevel(s string) ImpactLevel {
	switch ImpactLevel(s) {
	case ImpactHigh:
		return ImpactHigh
	case ImpactMedium:
		return ImpactMedium
	default:
		return ImpactLow
	}
}
