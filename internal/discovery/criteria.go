package discovery

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"marketplace-catalog/internal/model"
)

// ParseCriteria reads filter criteria from query parameters:
// type, category, delivery, perishable, open_now, near_me, radius_km.
// near_me without radius_km uses defaultRadiusKm.
func ParseCriteria(q url.Values, defaultRadiusKm float64) (model.Criteria, error) {
	c := model.DefaultCriteria()
	if v := q.Get("type"); v != "" {
		c.Type = v
	}
	if v := q.Get("category"); v != "" {
		c.Category = v
	}
	if v := q.Get("delivery"); v != "" {
		c.Delivery = model.DeliveryMethod(strings.ToLower(v))
	}

	var err error
	if c.PerishableOnly, err = parseBool(q, "perishable"); err != nil {
		return c, err
	}
	if c.OpenNow, err = parseBool(q, "open_now"); err != nil {
		return c, err
	}
	if c.NearMe, err = parseBool(q, "near_me"); err != nil {
		return c, err
	}
	if v := q.Get("radius_km"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c, fmt.Errorf("radius_km: %q is not a number", v)
		}
		c.RadiusKm = r
	}
	if c.NearMe && c.RadiusKm == 0 {
		c.RadiusKm = defaultRadiusKm
	}

	if err := validate.Struct(c); err != nil {
		return c, err
	}
	return c, nil
}

func parseBool(q url.Values, key string) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	return b, nil
}
