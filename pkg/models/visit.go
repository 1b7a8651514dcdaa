package models

import "time"

// VisitStatus is the lifecycle state of a visit.
type VisitStatus string

const (
	VisitStatusDraft     VisitStatus = "draft"
	VisitStatusPending   VisitStatus = "pending"
	VisitStatusConfirmed VisitStatus = "confirmed"
	VisitStatusDisputed  VisitStatus = "disputed"
	VisitStatusCancelled VisitStatus = "cancelled"
)

// ActiveVisitStatuses are the statuses that count toward points and
// eligibility queries. Cancelled and disputed visits carry no awards.
var ActiveVisitStatuses = []VisitStatus{
	VisitStatusConfirmed,
	VisitStatusDraft,
	VisitStatusPending,
}

// IsValidVisitStatus reports whether s is one of the allowed statuses.
func IsValidVisitStatus(s string) bool {
	switch VisitStatus(s) {
	case VisitStatusDraft, VisitStatusPending, VisitStatusConfirmed,
		VisitStatusDisputed, VisitStatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the status earns points.
func (s VisitStatus) IsActive() bool {
	switch s {
	case VisitStatusConfirmed, VisitStatusDraft, VisitStatusPending:
		return true
	}
	return false
}

// Visit is one recorded bathhouse attendance event. VisitedAt is the
// date of the bathing event itself; CreatedAt is when it was reported.
// MessageID/ChatID correlate the visit with the chat message that
// created it and are used only for ingestion dedup, never for scoring.
type Visit struct {
	ID        int64       `json:"id"`
	BathID    *int64      `json:"bathId"`
	CreatedBy *int64      `json:"createdBy"`
	MessageID *int64      `json:"messageId,omitempty"`
	ChatID    *int64      `json:"chatId,omitempty"`
	Status    VisitStatus `json:"status"`
	VisitedAt time.Time   `json:"visitedAt"`
	FlagLong  bool        `json:"flagLong"`
	// FlagUltraUnique is a stored marker only. The authoritative
	// ultra-unique determination is recomputed live by the scoring
	// engine and never read from this column.
	FlagUltraUnique bool      `json:"flagUltraunique"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
