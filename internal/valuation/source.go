// Package valuation resolves retail valuations for vehicle registrations.
package valuation

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when no valuation exists for a registration.
var ErrNotFound = errors.New("valuation not found")

// Valuation is a third-party retail estimate for a registration.
type Valuation struct {
	Registration    string  `json:"registration"`
	Make            string  `json:"make"`
	Model           string  `json:"model"`
	RetailValuation float64 `json:"retailValuation"`
}

// Source looks up a valuation by registration, matched case-insensitively.
type Source interface {
	Lookup(ctx context.Context, registration string) (Valuation, error)
}

// StaticSource serves valuations from a fixed in-memory table.
type StaticSource struct {
	entries []Valuation
}

// NewStaticSource builds a source over the given entries.
func NewStaticSource(entries []Valuation) *StaticSource {
	return &StaticSource{entries: entries}
}

// SeedSource returns the built-in demo valuation table.
func SeedSource() *StaticSource {
	return NewStaticSource([]Valuation{
		{Registration: "ABC123", Make: "Toyota", Model: "Camry", RetailValuation: 25000},
		{Registration: "XYZ789", Make: "Honda", Model: "Civic", RetailValuation: 20000},
		{Registration: "DF17UXG", Make: "Honda", Model: "Civic", RetailValuation: 15000},
	})
}

func (s *StaticSource) Lookup(_ context.Context, registration string) (Valuation, error) {
	for _, v := range s.entries {
		if strings.EqualFold(v.Registration, registration) {
			return v, nil
		}
	}
	return Valuation{}, ErrNotFound
}

// Chain tries each source in order, returning the first hit. Sources
// failing with ErrNotFound fall through; any other error stops the chain.
type Chain []Source

func (c Chain) Lookup(ctx context.Context, registration string) (Valuation, error) {
	for _, src := range c {
		v, err := src.Lookup(ctx, registration)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Valuation{}, err
		}
	}
	return Valuation{}, ErrNotFound
}
