package model

// Lot represents one procurement listing scraped from the public search results.
// lot_id is the upstream identifier; it is not guaranteed unique across runs.
type Lot struct {
	LotID        string  `json:"lot_id"`
	Announcement string  `json:"announcement"`
	Customer     string  `json:"customer"`
	Subject      string  `json:"subject"`
	SubjectLink  string  `json:"subject_link"`
	Quantity     float64 `json:"quantity"`
	Amount       float64 `json:"amount"`
	PurchaseType string  `json:"purchase_type"`
	Status       string  `json:"status,omitempty"`
}

// SuspicionLevel buckets a suspicion percentage into a three-tier label.
type SuspicionLevel string

const (
	SuspicionLow    SuspicionLevel = "Low"
	SuspicionMedium SuspicionLevel = "Medium"
	SuspicionHigh   SuspicionLevel = "High"
)

// LevelFor maps a 0-100 suspicion percentage to its tier. The thresholds are
// strict: exactly 30 is Low, exactly 70 is Medium.
func LevelFor(pct float64) SuspicionLevel {
	switch {
	case pct > 70:
		return SuspicionHigh
	case pct > 30:
		return SuspicionMedium
	default:
		return SuspicionLow
	}
}

// ScoredLot is a Lot enriched with an ensemble prediction.
type ScoredLot struct {
	Lot
	SuspicionPercentage float64        `json:"suspicion_percentage"`
	SuspicionLevel      SuspicionLevel `json:"suspicion_level"`
}

// Scored attaches a suspicion percentage and its tier to the lot.
func (l Lot) Scored(pct float64) ScoredLot {
	return ScoredLot{
		Lot:                 l,
		SuspicionPercentage: pct,
		SuspicionLevel:      LevelFor(pct),
	}
}
