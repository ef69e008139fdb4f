package pricing

import "github.com/shopspring/decimal"

// Inputs are the per-calculation cost figures supplied by the dealer.
// They are not persisted on the vehicle record.
type Inputs struct {
	Delivery         float64 `json:"delivery"`
	MOT              float64 `json:"mot"`
	Service          float64 `json:"service"`
	Cosmetic         float64 `json:"cosmetic"`
	WarrantyAndValet float64 `json:"warrantyAndValet"`
	DesiredNetProfit float64 `json:"desiredNetProfit"`
}

// Result holds the derived figures of a profit calculation, unrounded.
// Use DisplayString (or Decimal.StringFixed) to format for output.
type Result struct {
	RetailValuation   decimal.Decimal
	CarwowFee         decimal.Decimal
	TotalCosts        decimal.Decimal
	BidPrice          decimal.Decimal
	ActualGrossProfit decimal.Decimal
	VATAmount         decimal.Decimal
	ActualNetProfit   decimal.Decimal
}

// VAT on gross profit is a flat 20%, solved algebraically so the bid
// price derives in one step: the 6/5 factor grosses up the required
// profit and costs, and VAT recovers as 1/6 of the gross profit.
var (
	grossUpFactor = decimal.NewFromInt(6).Div(decimal.NewFromInt(5))
	vatDivisor    = decimal.NewFromInt(6)
)

// Calculate derives the recommended bid price and resulting net profit
// for a retail valuation, a marketplace fee, and a set of cost inputs.
//
// Inputs are trusted as given: negative or non-finite values are not
// rejected here, callers validate before invocation.
func Calculate(retailValuation float64, fee decimal.Decimal, in Inputs) Result {
	valuation := decimal.NewFromFloat(retailValuation)
	desired := decimal.NewFromFloat(in.DesiredNetProfit)

	totalCosts := fee.
		Add(decimal.NewFromFloat(in.Delivery)).
		Add(decimal.NewFromFloat(in.MOT)).
		Add(decimal.NewFromFloat(in.Service)).
		Add(decimal.NewFromFloat(in.Cosmetic)).
		Add(decimal.NewFromFloat(in.WarrantyAndValet))

	bidPrice := valuation.Sub(grossUpFactor.Mul(desired.Add(totalCosts)))
	grossProfit := valuation.Sub(bidPrice)
	vat := grossProfit.Div(vatDivisor)
	netProfit := grossProfit.Sub(vat).Sub(totalCosts)

	return Result{
		RetailValuation:   valuation,
		CarwowFee:         fee,
		TotalCosts:        totalCosts,
		BidPrice:          bidPrice,
		ActualGrossProfit: grossProfit,
		VATAmount:         vat,
		ActualNetProfit:   netProfit,
	}
}

// CalculateForValuation is Calculate with the fee looked up from the
// schedule for the given valuation.
func CalculateForValuation(retailValuation float64, in Inputs) Result {
	return Calculate(retailValuation, CarwowFee(retailValuation), in)
}
