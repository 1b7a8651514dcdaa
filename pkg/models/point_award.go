package models

import "time"

// AwardReason identifies which scoring rule produced an award.
type AwardReason string

const (
	ReasonBase        AwardReason = "base"
	ReasonLong        AwardReason = "long"
	ReasonUltraUnique AwardReason = "ultraunique"
	ReasonNewRegion   AwardReason = "new_region"
	ReasonNewCountry  AwardReason = "new_country"
)

// PointAward attributes points to one participant of one visit for one
// rule that fired. Award rows are owned exclusively by the scoring
// engine: every recalculation replaces the full set for the visit.
type PointAward struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	VisitID   int64       `json:"visitId"`
	Points    float64     `json:"points"`
	Reason    AwardReason `json:"reason"`
	CreatedAt time.Time   `json:"createdAt"`
}
