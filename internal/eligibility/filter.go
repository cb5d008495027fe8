package eligibility

import (
	"sort"
	"time"

	"marketplace-catalog/internal/geo"
	"marketplace-catalog/internal/model"
)

// radiusToleranceKm absorbs floating point error at the radius boundary.
const radiusToleranceKm = 1e-9

// PreparedFoodTypes are item types admitted by the perishable-only filter
// even when the perishable flag is unset.
var PreparedFoodTypes = map[string]bool{
	"prepared_food": true,
	"meal":          true,
}

// Candidate is an item that survived the stages run so far.
type Candidate struct {
	Item       model.CatalogItem
	DistanceKm *float64
}

// Env carries the viewer-side inputs the predicates need.
type Env struct {
	Vendors  map[string]model.Vendor
	Location *model.Coordinate
	Now      time.Time
}

// Stage consumes the previous stage's output and returns a new slice.
type Stage func([]Candidate) []Candidate

// Stages returns the filter pipeline for c in its fixed order:
// type, category, delivery method, perishable, open now, proximity.
func Stages(c model.Criteria, env Env) []Stage {
	return []Stage{
		ByType(c.Type),
		ByCategory(c.Category),
		ByDelivery(c.Delivery),
		PerishableOnly(c.PerishableOnly),
		OpenNow(c.OpenNow, env.Vendors, env.Now),
		Proximity(c.NearMe, env.Location, c.RadiusKm),
	}
}

// Filter runs every stage over items and returns the admissible subset.
func Filter(items []model.CatalogItem, c model.Criteria, env Env) []Candidate {
	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		out = append(out, Candidate{Item: it})
	}
	for _, stage := range Stages(c, env) {
		out = stage(out)
	}
	return out
}

func keep(in []Candidate, pred func(Candidate) bool) []Candidate {
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

func isDontCare(v string) bool {
	return v == "" || v == model.FilterAll
}

// ByType admits items whose type equals t.
func ByType(t string) Stage {
	return func(in []Candidate) []Candidate {
		if isDontCare(t) {
			return append([]Candidate(nil), in...)
		}
		return keep(in, func(c Candidate) bool { return c.Item.Type == t })
	}
}

// ByCategory admits items tagged with tag.
func ByCategory(tag string) Stage {
	return func(in []Candidate) []Candidate {
		if isDontCare(tag) {
			return append([]Candidate(nil), in...)
		}
		return keep(in, func(c Candidate) bool { return c.Item.HasTag(tag) })
	}
}

func ByDelivery(m model.DeliveryMethod) Stage {
	return func(in []Candidate) []Candidate {
		switch m {
		case model.DeliveryRider:
			return keep(in, func(c Candidate) bool { return c.Item.RiderDelivery })
		case model.DeliveryParcel:
			return keep(in, func(c Candidate) bool { return c.Item.ParcelShipping })
		default:
			return append([]Candidate(nil), in...)
		}
	}
}

func PerishableOnly(enabled bool) Stage {
	return func(in []Candidate) []Candidate {
		if !enabled {
			return append([]Candidate(nil), in...)
		}
		return keep(in, func(c Candidate) bool {
			return c.Item.Perishable || PreparedFoodTypes[c.Item.Type]
		})
	}
}

// OpenNow admits items whose vendor is open at now. Items with an unknown
// vendor are treated as open.
func OpenNow(enabled bool, vendors map[string]model.Vendor, now time.Time) Stage {
	return func(in []Candidate) []Candidate {
		if !enabled {
			return append([]Candidate(nil), in...)
		}
		return keep(in, func(c Candidate) bool {
			v, ok := vendors[c.Item.VendorID]
			if !ok {
				return true
			}
			return IsOpen(v.OpeningHours, now)
		})
	}
}

// Proximity admits items within radiusKm of loc, annotates their distance
// and orders them nearest first. Without a viewer location it admits all.
func Proximity(enabled bool, loc *model.Coordinate, radiusKm float64) Stage {
	return func(in []Candidate) []Candidate {
		if !enabled || loc == nil {
			return append([]Candidate(nil), in...)
		}
		out := make([]Candidate, 0, len(in))
		for _, c := range in {
			p := c.Item.Pickup
			if p == nil {
				continue
			}
			d := geo.Distance(loc.Lat, loc.Lng, p.Lat, p.Lng)
			if d > radiusKm+radiusToleranceKm {
				continue
			}
			c.DistanceKm = &d
			out = append(out, c)
		}
		sort.SliceStable(out, func(i, j int) bool {
			return *out[i].DistanceKm < *out[j].DistanceKm
		})
		return out
	}
}
