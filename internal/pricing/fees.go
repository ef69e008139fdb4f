// Package pricing implements the carwow fee schedule and the bid-price /
// net-profit calculation. All arithmetic runs on shopspring decimals;
// callers round only when formatting for display.
package pricing

import "github.com/shopspring/decimal"

// feeBand is one step of the fee schedule: the fee charged for prices up
// to and including ceiling.
type feeBand struct {
	ceiling int64
	fee     int64
}

// Fee bands are ordered ascending; the first band whose ceiling the price
// does not exceed wins. Prices above the last ceiling pay topFee.
var feeBands = []feeBand{
	{2499, 199},
	{4999, 249},
	{7499, 269},
	{9999, 299},
	{14999, 319},
	{19999, 339},
	{29999, 389},
	{39999, 449},
	{49999, 499},
	{59999, 599},
	{69999, 699},
	{79999, 799},
	{89999, 899},
	{99999, 929},
}

const topFee = 999

// CarwowFee returns the fixed marketplace fee tier for a price. The
// schedule is a monotonic step function; input is not validated.
func CarwowFee(price float64) decimal.Decimal {
	priceDecimal := decimal.NewFromFloat(price)
	for _, band := range feeBands {
		if priceDecimal.LessThanOrEqual(decimal.NewFromInt(band.ceiling)) {
			return decimal.NewFromInt(band.fee)
		}
	}
	return decimal.NewFromInt(topFee)
}
