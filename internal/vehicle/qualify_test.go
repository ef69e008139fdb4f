package vehicle

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func baseParams() Parameters {
	return Parameters{
		MaxPrice:          50000,
		MaxAge:            10,
		MaxMileage:        100000,
		MinRetailRating:   3,
		MaxDaysToSell:     30,
		MaxPreviousOwners: 2,
		ServiceHistory:    []string{"full", "part"},
	}
}

func baseRecord() Record {
	return Record{
		ID:                     "DF17UXG",
		Make:                   "Honda",
		Model:                  "Civic",
		Mileage:                42000,
		CarYear:                2017,
		ReserveOrBuyNowPrice:   12500,
		PreviousOwnersCount:    1,
		ServiceHistory:         "full",
		AutoTraderRetailRating: 4.2,
		DaysToSell:             21,
		Status:                 StatusNew,
	}
}

func TestQualifies(t *testing.T) {
	const year = 2026

	tests := []struct {
		name     string
		mutate   func(*Record)
		expected bool
	}{
		{"all bounds satisfied", func(r *Record) {}, true},
		{"price above cap", func(r *Record) { r.ReserveOrBuyNowPrice = 50001 }, false},
		{"price exactly at cap", func(r *Record) { r.ReserveOrBuyNowPrice = 50000 }, true},
		{"too old", func(r *Record) { r.CarYear = 2010 }, false},
		{"age exactly at cap", func(r *Record) { r.CarYear = year - 10 }, true},
		{"mileage above cap", func(r *Record) { r.Mileage = 100001 }, false},
		{"mileage exactly at cap", func(r *Record) { r.Mileage = 100000 }, true},
		{"rating below floor", func(r *Record) { r.AutoTraderRetailRating = 2.9 }, false},
		{"rating exactly at floor", func(r *Record) { r.AutoTraderRetailRating = 3 }, true},
		{"slow to sell", func(r *Record) { r.DaysToSell = 31 }, false},
		{"too many owners", func(r *Record) { r.PreviousOwnersCount = 3 }, false},
		{"disallowed service history", func(r *Record) { r.ServiceHistory = "none" }, false},
		{"empty service history", func(r *Record) { r.ServiceHistory = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := baseRecord()
			tt.mutate(&rec)
			check.Equal(t, tt.expected, Qualifies(rec, baseParams(), year))
		})
	}
}

// A record with no car year is treated as age 0 and can never be excluded
// by MaxAge.
func TestQualifies_MissingCarYear(t *testing.T) {
	rec := baseRecord()
	rec.CarYear = 0

	p := baseParams()
	p.MaxAge = 0

	check.True(t, Qualifies(rec, p, 2026))
}

// Zero-valued numeric fields pass every upper bound; only the rating floor
// can exclude a record with missing data.
func TestQualifies_MissingNumericFields(t *testing.T) {
	rec := Record{ID: "AB12CDE", ServiceHistory: "full", Status: StatusNew}
	p := baseParams()

	check.False(t, Qualifies(rec, p, 2026))

	p.MinRetailRating = 0
	check.True(t, Qualifies(rec, p, 2026))
}

// Relaxing any single threshold while holding the rest fixed never turns a
// qualified record into a disqualified one.
func TestQualifies_MonotonicInEachBound(t *testing.T) {
	const year = 2026
	rec := baseRecord()
	p := baseParams()
	check.True(t, Qualifies(rec, p, year))

	relaxations := []struct {
		name  string
		relax func(*Parameters)
	}{
		{"maxPrice", func(p *Parameters) { p.MaxPrice += 10000 }},
		{"maxAge", func(p *Parameters) { p.MaxAge += 5 }},
		{"maxMileage", func(p *Parameters) { p.MaxMileage += 50000 }},
		{"minRetailRating", func(p *Parameters) { p.MinRetailRating -= 1 }},
		{"maxDaysToSell", func(p *Parameters) { p.MaxDaysToSell += 30 }},
		{"maxPreviousOwners", func(p *Parameters) { p.MaxPreviousOwners += 2 }},
		{"serviceHistory", func(p *Parameters) { p.ServiceHistory = append(p.ServiceHistory, "none") }},
	}

	for _, tt := range relaxations {
		t.Run(tt.name, func(t *testing.T) {
			relaxed := baseParams()
			tt.relax(&relaxed)
			check.True(t, Qualifies(rec, relaxed, year))
		})
	}
}

func TestStatusSticky(t *testing.T) {
	check.False(t, StatusNew.Sticky())
	check.False(t, StatusQualified.Sticky())
	check.True(t, StatusBid.Sticky())
	check.True(t, StatusNoBid.Sticky())
	check.True(t, StatusWon.Sticky())
	check.True(t, StatusLost.Sticky())
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range ValidStatuses() {
		check.True(t, s.IsValid())
	}
	check.False(t, Status("pending").IsValid())
	check.False(t, Status("").IsValid())
}
