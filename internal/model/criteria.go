package model

// DeliveryMethod restricts items by how they can reach the buyer.
type DeliveryMethod string

const (
	DeliveryAny    DeliveryMethod = "any"
	DeliveryRider  DeliveryMethod = "rider"
	DeliveryParcel DeliveryMethod = "parcel"
)

// FilterAll is the "don't care" value for the type and category filters.
const FilterAll = "all"

// Criteria is the filter record driving catalog composition. The zero value
// and DefaultCriteria both admit every item.
type Criteria struct {
	Type           string         `json:"type,omitempty"`
	Category       string         `json:"category,omitempty"`
	Delivery       DeliveryMethod `json:"delivery,omitempty" validate:"omitempty,oneof=any rider parcel"`
	PerishableOnly bool           `json:"perishable_only,omitempty"`
	OpenNow        bool           `json:"open_now,omitempty"`
	NearMe         bool           `json:"near_me,omitempty"`
	RadiusKm       float64        `json:"radius_km,omitempty" validate:"gte=0"`
}

// DefaultCriteria returns criteria with every filter in its "don't care" state.
func DefaultCriteria() Criteria {
	return Criteria{
		Type:     FilterAll,
		Category: FilterAll,
		Delivery: DeliveryAny,
	}
}

// AnnotatedItem is one row of the composed catalog view-model.
type AnnotatedItem struct {
	Item                     CatalogItem `json:"item"`
	EffectiveDiscountPercent float64     `json:"effective_discount_percent"`
	MemberPrice              *int64      `json:"member_price"`
	DistanceKm               *float64    `json:"distance_km"`
}
