package composer

import (
	"time"

	"marketplace-catalog/internal/eligibility"
	"marketplace-catalog/internal/model"
	"marketplace-catalog/internal/pricing"
)

// Input is one consistent snapshot of everything the catalog view depends on.
// Missing pieces are allowed: unknown vendors and communities resolve to no
// discount and "open", a nil Location disables the proximity filter.
type Input struct {
	Items       []model.CatalogItem
	Vendors     map[string]model.Vendor
	Communities map[string]model.Community
	Memberships model.MembershipSet
	Location    *model.Coordinate
	Criteria    model.Criteria
	Now         time.Time
}

// FromSnapshot fills the catalog part of an Input from a store snapshot.
func FromSnapshot(s model.Snapshot) Input {
	return Input{
		Items:       s.Items,
		Vendors:     s.Vendors,
		Communities: s.Communities,
	}
}

// Compose filters the items and annotates every survivor with its effective
// discount, member price and distance. It performs no I/O and keeps no state,
// so equal inputs always yield equal outputs.
func Compose(in Input) []model.AnnotatedItem {
	candidates := eligibility.Filter(in.Items, in.Criteria, eligibility.Env{
		Vendors:  in.Vendors,
		Location: in.Location,
		Now:      in.Now,
	})

	out := make([]model.AnnotatedItem, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, annotate(in, c))
	}
	return out
}

func annotate(in Input, c eligibility.Candidate) model.AnnotatedItem {
	var vendor *model.Vendor
	if v, ok := in.Vendors[c.Item.VendorID]; ok {
		vendor = &v
	}
	var community *model.Community
	if c.Item.CommunityID != "" {
		if cm, ok := in.Communities[c.Item.CommunityID]; ok {
			community = &cm
		}
	}

	discount := pricing.ResolveDiscount(c.Item, vendor, community)
	isMember := in.Memberships.Has(c.Item.CommunityID)

	return model.AnnotatedItem{
		Item:                     c.Item,
		EffectiveDiscountPercent: discount,
		MemberPrice:              pricing.MemberPrice(c.Item.Price, discount, isMember),
		DistanceKm:               c.DistanceKm,
	}
}
