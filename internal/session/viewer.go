package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"

	"marketplace-catalog/internal/model"
)

// ViewerHeader carries the id of the already-authenticated viewer.
const ViewerHeader = "X-Viewer-ID"

var validate = validator.New()

// ErrInvalid marks errors caused by malformed request parameters.
var ErrInvalid = errors.New("invalid viewer context")

// MembershipLoader resolves a viewer's communities.
type MembershipLoader interface {
	Memberships(ctx context.Context, viewerID string) (model.MembershipSet, error)
}

// Viewer is the per-request context of whoever is browsing. It is built once
// per request and passed down explicitly.
type Viewer struct {
	ID          string
	Memberships model.MembershipSet
	Location    *model.Coordinate
	// Clock is the viewer's timezone; open-now is judged on its wall clock.
	Clock *time.Location
}

// Anonymous reports whether the viewer is not signed in.
func (v Viewer) Anonymous() bool { return v.ID == "" }

// Now returns the current time on the viewer's wall clock.
func (v Viewer) Now() time.Time {
	if v.Clock == nil {
		return time.Now()
	}
	return time.Now().In(v.Clock)
}

// FromRequest builds the viewer from the X-Viewer-ID header and the lat, lng
// and tz query parameters. A location needs both lat and lng.
func FromRequest(r *http.Request, loader MembershipLoader, defaultTZ *time.Location) (Viewer, error) {
	v := Viewer{
		ID:          strings.TrimSpace(r.Header.Get(ViewerHeader)),
		Memberships: model.MembershipSet{},
		Clock:       defaultTZ,
	}
	q := r.URL.Query()

	loc, err := ParseLocation(q.Get("lat"), q.Get("lng"))
	if err != nil {
		return v, err
	}
	v.Location = loc

	if tz := q.Get("tz"); tz != "" {
		clock, err := time.LoadLocation(tz)
		if err != nil {
			return v, fmt.Errorf("%w: tz %q: %v", ErrInvalid, tz, err)
		}
		v.Clock = clock
	}

	if !v.Anonymous() && loader != nil {
		set, err := loader.Memberships(r.Context(), v.ID)
		if err != nil {
			return v, err
		}
		v.Memberships = set
	}
	return v, nil
}

// ParseLocation returns nil when both values are empty.
func ParseLocation(lat, lng string) (*model.Coordinate, error) {
	if lat == "" && lng == "" {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: lat %q", ErrInvalid, lat)
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: lng %q", ErrInvalid, lng)
	}
	c := &model.Coordinate{Lat: la, Lng: ln}
	// go-playground/validator/v10: range tags on model.Coordinate.
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("%w: location: %v", ErrInvalid, err)
	}
	return c, nil
}
