package pricing

import (
	"github.com/shopspring/decimal"

	"marketplace-catalog/internal/model"
)

var hundred = decimal.NewFromInt(100)

// EffectiveDiscount resolves the member discount percent for an item.
// A vendor override wins over the community default, even when it is zero;
// without either the discount is 0.
func EffectiveDiscount(vendor *model.Vendor, community *model.Community) float64 {
	if vendor != nil && vendor.DiscountOverride != nil {
		return clampPercent(*vendor.DiscountOverride)
	}
	if community != nil {
		return clampPercent(community.MemberDiscount)
	}
	return 0
}

// ResolveDiscount is EffectiveDiscount scoped to an item. Member discounts
// only exist inside a community, so an item listed outside any community
// always resolves to 0.
func ResolveDiscount(item model.CatalogItem, vendor *model.Vendor, community *model.Community) float64 {
	if item.CommunityID == "" {
		return 0
	}
	return EffectiveDiscount(vendor, community)
}

// MemberPrice returns the discounted price in minor units, rounded half-up,
// or nil when the viewer is not a member or there is no discount.
func MemberPrice(price int64, discountPercent float64, isMember bool) *int64 {
	if !isMember || discountPercent <= 0 {
		return nil
	}
	// shopspring/decimal: exact base-10 arithmetic so 1000 * 0.85 is 850, not 849.99..
	factor := hundred.Sub(decimal.NewFromFloat(clampPercent(discountPercent))).Div(hundred)
	v := decimal.NewFromInt(price).Mul(factor).Round(0).IntPart()
	return &v
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
