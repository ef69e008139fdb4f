package vehicle

import (
	"github.com/shopspring/decimal"
)

const pricePrecision int32 = 2 // pence precision for price comparisons

// priceWithinCap returns true if price is at or below cap.
// Uses decimal arithmetic at pricePrecision to avoid floating-point errors.
func priceWithinCap(price, cap float64) bool {
	priceDecimal := decimal.NewFromFloat(price).Round(pricePrecision)
	capDecimal := decimal.NewFromFloat(cap).Round(pricePrecision)

	return priceDecimal.LessThanOrEqual(capDecimal)
}

// Qualifies evaluates a record against the bidding parameters for the
// given calendar year. Absent numeric fields are zero-valued and so pass
// every upper-bound check; only MinRetailRating can exclude a record with
// missing data. A record missing CarYear is treated as age 0.
//
// Only records with status "new" are subject to automatic qualification;
// callers are expected to skip records with a sticky status.
func Qualifies(rec Record, p Parameters, currentYear int) bool {
	age := 0
	if rec.CarYear != 0 {
		age = currentYear - rec.CarYear
	}

	return priceWithinCap(rec.ReserveOrBuyNowPrice, p.MaxPrice) &&
		age <= p.MaxAge &&
		rec.Mileage <= p.MaxMileage &&
		rec.AutoTraderRetailRating >= p.MinRetailRating &&
		rec.DaysToSell <= p.MaxDaysToSell &&
		rec.PreviousOwnersCount <= p.MaxPreviousOwners &&
		p.AllowsServiceHistory(rec.ServiceHistory)
}
