package listing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrPriceBelowMinMargin = errors.New("listing: proposed price falls below minimum margin")
	ErrPriceAboveMaxMargin = errors.New("listing: proposed price exceeds maximum margin")
	ErrPriceCostUnknown    = errors.New("listing: product cost unknown, cannot evaluate margin")
)

// MarginBand is the acceptance window for repriced listings, expressed as
// margin percentages over cost. Listing details may override the backend
// band per marketplace.
type MarginBand struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// EffectiveBand merges a listing-detail override with the backend band.
// A detail band applies when it is non-zero.
func EffectiveBand(backend MarginBand, detail *ListingDetail) MarginBand {
	if detail != nil && (!detail.MinMargin.IsZero() || !detail.MaxMargin.IsZero()) {
		return MarginBand{Min: detail.MinMargin, Max: detail.MaxMargin}
	}
	return backend
}

// EvaluatePrice decides whether a proposed price may be published.
//
// The margin of the proposal is (price - cost - price*feeRate) / cost, in
// percent. Prices below the band are rejected outright; prices above it
// are clamped down to the maximum-margin price rather than rejected, since
// overshooting the band only means leaving money on the table.
func EvaluatePrice(proposed, cost, feeRate decimal.Decimal, band MarginBand) (decimal.Decimal, error) {
	if cost.IsZero() || cost.IsNegative() {
		return decimal.Zero, ErrPriceCostUnknown
	}
	hundred := decimal.NewFromInt(100)

	margin := proposed.Sub(cost).Sub(proposed.Mul(feeRate)).Div(cost).Mul(hundred)
	if margin.LessThan(band.Min) {
		return decimal.Zero, ErrPriceBelowMinMargin
	}
	if band.Max.IsPositive() && margin.GreaterThan(band.Max) {
		// price p such that (p - cost - p*feeRate)/cost == max/100
		one := decimal.NewFromInt(1)
		capPrice := cost.Mul(one.Add(band.Max.Div(hundred))).Div(one.Sub(feeRate))
		return capPrice.Round(2), nil
	}
	return proposed, nil
}

// ShouldPublish suppresses price changes smaller than the backend's
// units-to-change threshold.
func ShouldPublish(current, next, unitsToChange decimal.Decimal) bool {
	if current.IsZero() {
		return true
	}
	return next.Sub(current).Abs().GreaterThanOrEqual(unitsToChange)
}
