package model

// Coordinate is a point on the globe in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// CatalogItem is a listed product as returned by the catalog store.
// CommunityID is empty when the item is not listed inside a community.
type CatalogItem struct {
	ID              string      `json:"id" validate:"required"`
	Name            string      `json:"name" validate:"required"`
	Description     string      `json:"description,omitempty"`
	Price           int64       `json:"price" validate:"gte=0"`
	Currency        string      `json:"currency" validate:"required,len=3,alpha"`
	VendorID        string      `json:"vendor_id" validate:"required"`
	CommunityID     string      `json:"community_id,omitempty"`
	Pickup          *Coordinate `json:"pickup,omitempty" validate:"omitempty"`
	Type            string      `json:"type,omitempty"`
	CategoryTags    []string    `json:"category_tags,omitempty" validate:"dive,required"`
	RiderDelivery   bool        `json:"rider_delivery"`
	ParcelShipping  bool        `json:"parcel_shipping"`
	Perishable      bool        `json:"perishable"`
	PrepTimeMinutes *int        `json:"prep_time_minutes,omitempty" validate:"omitempty,gte=0"`
}

// HasTag reports whether tag is one of the item's category tags.
func (i CatalogItem) HasTag(tag string) bool {
	for _, t := range i.CategoryTags {
		if t == tag {
			return true
		}
	}
	return false
}

// DayHours is one weekday entry of a vendor schedule. Open and Close are
// "HH:MM" wall-clock strings.
type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

// OpeningHours is keyed by lowercase weekday abbreviation ("mon" .. "sun").
type OpeningHours map[string]DayHours

type Vendor struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name,omitempty"`
	// DiscountOverride takes precedence over the community default when set,
	// including an explicit zero.
	DiscountOverride *float64     `json:"discount_override,omitempty" validate:"omitempty,gte=0,lte=100"`
	OpeningHours     OpeningHours `json:"opening_hours,omitempty"`
}

type Community struct {
	ID             string  `json:"id" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	MemberDiscount float64 `json:"member_discount" validate:"gte=0,lte=100"`
}

// MembershipSet holds the community ids the current viewer belongs to.
type MembershipSet map[string]struct{}

// NewMembershipSet builds a set from community ids.
func NewMembershipSet(communityIDs ...string) MembershipSet {
	s := make(MembershipSet, len(communityIDs))
	for _, id := range communityIDs {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set has no members.
func (s MembershipSet) Has(communityID string) bool {
	if communityID == "" {
		return false
	}
	_, ok := s[communityID]
	return ok
}

// IDs returns the community ids in no particular order.
func (s MembershipSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot is a consistent read of the catalog. Items keep listing order.
type Snapshot struct {
	Items       []CatalogItem        `json:"items"`
	Vendors     map[string]Vendor    `json:"vendors"`
	Communities map[string]Community `json:"communities"`
}
