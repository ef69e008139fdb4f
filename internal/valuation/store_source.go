package valuation

import (
	"context"
	"errors"
	"time"

	"github.com/DealerGen/bidbuddy/internal/storage"
	"github.com/DealerGen/bidbuddy/internal/vehicle"
)

// StoreSource serves valuations from the uploaded record set. Only
// vehicles admitted to the funnel answer: a sticky qualified status, or a
// new record passing the current bidding parameters. Records without a
// retail valuation are reported as not found.
type StoreSource struct {
	store VehicleStore
	now   func() time.Time
}

// VehicleStore is the subset of the storage API the source needs.
type VehicleStore interface {
	GetVehicle(id string) (vehicle.Record, error)
	LoadParameters() (vehicle.Parameters, error)
}

// NewStoreSource builds a source over the vehicle store.
func NewStoreSource(store VehicleStore) *StoreSource {
	return &StoreSource{store: store, now: time.Now}
}

func (s *StoreSource) Lookup(_ context.Context, registration string) (Valuation, error) {
	rec, err := s.store.GetVehicle(registration)
	if errors.Is(err, storage.ErrNotFound) {
		return Valuation{}, ErrNotFound
	}
	if err != nil {
		return Valuation{}, err
	}

	params, err := s.store.LoadParameters()
	if errors.Is(err, storage.ErrNotFound) {
		params = vehicle.DefaultParameters()
	} else if err != nil {
		return Valuation{}, err
	}

	qualified := rec.Status == vehicle.StatusQualified ||
		(rec.Status == vehicle.StatusNew && vehicle.Qualifies(rec, params, s.now().Year()))
	if !qualified || rec.RetailValuation == 0 {
		return Valuation{}, ErrNotFound
	}

	return Valuation{
		Registration:    rec.ID,
		Make:            rec.Make,
		Model:           rec.Model,
		RetailValuation: rec.RetailValuation,
	}, nil
}
