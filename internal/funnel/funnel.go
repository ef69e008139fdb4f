// Package funnel groups vehicle records into the five-stage bidding
// board and applies manual status transitions.
package funnel

import (
	"fmt"
	"strings"

	"github.com/DealerGen/bidbuddy/internal/vehicle"
)

// Board is the five-stage view of the active record set. Records whose
// status is "new" appear under Qualified only when they pass the bidding
// parameters; records that fail qualification appear nowhere on the board
// but remain in the record set.
type Board struct {
	Qualified []vehicle.Record `json:"qualified"`
	Bid       []vehicle.Record `json:"bid"`
	NoBid     []vehicle.Record `json:"noBid"`
	Won       []vehicle.Record `json:"won"`
	Lost      []vehicle.Record `json:"lost"`
}

// Group builds the board for the given parameter set. Sticky statuses
// (bid, noBid, won, lost) are grouped as set by the user and bypass
// re-evaluation; new and qualified records are re-qualified against the
// parameters each time.
func Group(records []vehicle.Record, p vehicle.Parameters, currentYear int) Board {
	b := Board{
		Qualified: []vehicle.Record{},
		Bid:       []vehicle.Record{},
		NoBid:     []vehicle.Record{},
		Won:       []vehicle.Record{},
		Lost:      []vehicle.Record{},
	}

	for _, rec := range records {
		switch rec.Status {
		case vehicle.StatusBid:
			b.Bid = append(b.Bid, rec)
		case vehicle.StatusNoBid:
			b.NoBid = append(b.NoBid, rec)
		case vehicle.StatusWon:
			b.Won = append(b.Won, rec)
		case vehicle.StatusLost:
			b.Lost = append(b.Lost, rec)
		default:
			if vehicle.Qualifies(rec, p, currentYear) {
				b.Qualified = append(b.Qualified, rec)
			}
		}
	}
	return b
}

// Move sets the status of the record with the given id, matched
// case-insensitively, and returns the updated set. Any recognized status
// is accepted from any other; the funnel imposes no transition graph.
// A wonPrice is recorded only when moving to won and cleared otherwise.
func Move(records []vehicle.Record, id string, status vehicle.Status, wonPrice *float64) ([]vehicle.Record, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	out := make([]vehicle.Record, len(records))
	found := false
	for i, rec := range records {
		out[i] = rec
		if !strings.EqualFold(rec.ID, id) {
			continue
		}
		found = true
		out[i].Status = status
		if status == vehicle.StatusWon {
			out[i].WonPrice = wonPrice
		} else {
			out[i].WonPrice = nil
		}
	}
	if !found {
		return nil, fmt.Errorf("vehicle %q not in record set", id)
	}
	return out, nil
}
