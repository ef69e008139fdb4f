// Package vehicle defines the auction vehicle record, its funnel status,
// and the bidding parameter set used to qualify records.
package vehicle

import "strings"

// Status is the funnel stage of a vehicle record.
type Status string

const (
	StatusNew       Status = "new"
	StatusQualified Status = "qualified"
	StatusBid       Status = "bid"
	StatusNoBid     Status = "noBid"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
)

// ValidStatuses returns all recognized status values.
func ValidStatuses() []Status {
	return []Status{StatusNew, StatusQualified, StatusBid, StatusNoBid, StatusWon, StatusLost}
}

// IsValid reports whether s is a recognized status value.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// Sticky reports whether the status was set manually and overrides
// automatic qualification. New and qualified records are re-evaluated
// against the bidding parameters; the other four are not.
func (s Status) Sticky() bool {
	switch s {
	case StatusBid, StatusNoBid, StatusWon, StatusLost:
		return true
	}
	return false
}

// Record is a single auction vehicle. ID is the registration mark (VRM)
// and is the unique key across the active record set.
type Record struct {
	ID                     string   `json:"id"`
	Make                   string   `json:"make"`
	Model                  string   `json:"model"`
	Mileage                int      `json:"mileage"`
	CarYear                int      `json:"carYear"`
	ReserveOrBuyNowPrice   float64  `json:"reserveOrBuyNowPrice"`
	PreviousOwnersCount    int      `json:"previousOwnersCount"`
	ServiceHistory         string   `json:"serviceHistory"`
	AutoTraderRetailRating float64  `json:"autoTraderRetailRating,omitempty"`
	DaysToSell             int      `json:"daysToSell,omitempty"`
	RetailValuation        float64  `json:"retailValuation,omitempty"`
	Status                 Status   `json:"status"`
	WonPrice               *float64 `json:"wonPrice,omitempty"`
}

// Update is a partial record keyed by ID, as produced from a follow-up
// CSV. Nil fields leave the original value untouched.
type Update struct {
	ID      string
	Mileage *int
	Make    *string
	Model   *string
}

// Merge overlays updates onto originals by case-insensitive ID match.
// Originals with no matching update pass through unchanged; updates with
// no matching original are dropped.
func Merge(originals []Record, updates []Update) []Record {
	byID := make(map[string]Update, len(updates))
	for _, u := range updates {
		byID[strings.ToLower(u.ID)] = u
	}

	merged := make([]Record, len(originals))
	for i, rec := range originals {
		merged[i] = rec
		u, ok := byID[strings.ToLower(rec.ID)]
		if !ok {
			continue
		}
		if u.Mileage != nil {
			merged[i].Mileage = *u.Mileage
		}
		if u.Make != nil {
			merged[i].Make = *u.Make
		}
		if u.Model != nil {
			merged[i].Model = *u.Model
		}
	}
	return merged
}
