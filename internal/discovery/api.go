package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"marketplace-catalog/internal/composer"
	"marketplace-catalog/internal/currency"
	"marketplace-catalog/internal/httpapi"
	"marketplace-catalog/internal/logger"
	"marketplace-catalog/internal/model"
	"marketplace-catalog/internal/realtime"
	"marketplace-catalog/internal/session"
)

var validate = validator.New()

// SnapshotSource is the read model the catalog is composed from.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
	Memberships(ctx context.Context, viewerID string) (model.MembershipSet, error)
}

type Options struct {
	DefaultRadiusKm float64
	DefaultTZ       *time.Location
}

// Service is the buyer-facing read side.
type Service struct {
	source     SnapshotSource
	subscriber realtime.Subscriber
	opts       Options
}

func NewService(source SnapshotSource, subscriber realtime.Subscriber, opts Options) *Service {
	if opts.DefaultTZ == nil {
		opts.DefaultTZ = time.UTC
	}
	return &Service{source: source, subscriber: subscriber, opts: opts}
}

// RegisterRoutes wires the read side routes.
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/catalog", s.catalogHandler).Methods(http.MethodGet)
	r.HandleFunc("/catalog/compose", s.composeHandler).Methods(http.MethodPost)
	r.HandleFunc("/catalog/stream", s.streamHandler).Methods(http.MethodGet)
}

// ItemView is one rendered catalog row.
type ItemView struct {
	model.AnnotatedItem
	DisplayPrice       string `json:"display_price"`
	DisplayMemberPrice string `json:"display_member_price,omitempty"`
}

type CatalogResponse struct {
	Items    []ItemView     `json:"items"`
	Count    int            `json:"count"`
	Criteria model.Criteria `json:"criteria"`
}

func render(items []model.AnnotatedItem, c model.Criteria) CatalogResponse {
	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, ItemView{
			AnnotatedItem:      it,
			DisplayPrice:       currency.Format(it.Item.Price, it.Item.Currency),
			DisplayMemberPrice: currency.FormatPtr(it.MemberPrice, it.Item.Currency),
		})
	}
	return CatalogResponse{Items: views, Count: len(views), Criteria: c}
}

// catalogHandler composes the catalog from the current snapshot for the
// requesting viewer.
func (s *Service) catalogHandler(w http.ResponseWriter, r *http.Request) {
	criteria, err := ParseCriteria(r.URL.Query(), s.opts.DefaultRadiusKm)
	if err != nil {
		httpapi.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	viewer, err := session.FromRequest(r, s.source, s.opts.DefaultTZ)
	if err != nil {
		if errors.Is(err, session.ErrInvalid) {
			httpapi.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		logger.WithError(err).Error("discovery: viewer lookup failed")
		httpapi.WriteError(w, r, http.StatusInternalServerError, "viewer lookup failed")
		return
	}

	snap, err := s.source.Snapshot(r.Context())
	if err != nil {
		logger.WithError(err).Error("discovery: snapshot load failed")
		httpapi.WriteError(w, r, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	in := composer.FromSnapshot(snap)
	in.Memberships = viewer.Memberships
	in.Location = viewer.Location
	in.Criteria = criteria
	in.Now = viewer.Now()

	httpapi.WriteJSON(w, r, http.StatusOK, render(composer.Compose(in), criteria))
}

// ComposeRequest carries a full caller-side snapshot.
type ComposeRequest struct {
	Items       []model.CatalogItem `json:"items" validate:"dive"`
	Vendors     []model.Vendor      `json:"vendors" validate:"dive"`
	Communities []model.Community   `json:"communities" validate:"dive"`
	Memberships []string            `json:"memberships"`
	Location    *model.Coordinate   `json:"location,omitempty" validate:"omitempty"`
	Criteria    model.Criteria      `json:"criteria"`
	// Now defaults to the server clock; its offset is the viewer's wall clock.
	Now *time.Time `json:"now,omitempty"`
}

// Input maps the request onto the composer input.
func (req ComposeRequest) Input(now time.Time) composer.Input {
	in := composer.Input{
		Items:       req.Items,
		Vendors:     make(map[string]model.Vendor, len(req.Vendors)),
		Communities: make(map[string]model.Community, len(req.Communities)),
		Memberships: model.NewMembershipSet(req.Memberships...),
		Location:    req.Location,
		Criteria:    req.Criteria,
		Now:         now,
	}
	for _, v := range req.Vendors {
		in.Vendors[v.ID] = v
	}
	for _, c := range req.Communities {
		in.Communities[c.ID] = c
	}
	if req.Now != nil {
		in.Now = *req.Now
	}
	return in
}

// composeHandler composes a caller-supplied snapshot without touching the store.
func (s *Service) composeHandler(w http.ResponseWriter, r *http.Request) {
	var req ComposeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 8<<20)).Decode(&req); err != nil {
		httpapi.WriteError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// go-playground/validator/v10: dives into every item, vendor and community.
	if err := validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, http.StatusBadRequest, fmt.Sprintf("validation failed: %v", err))
		return
	}
	if req.Criteria.NearMe && req.Criteria.RadiusKm == 0 {
		req.Criteria.RadiusKm = s.opts.DefaultRadiusKm
	}

	in := req.Input(time.Now().In(s.opts.DefaultTZ))
	httpapi.WriteJSON(w, r, http.StatusOK, render(composer.Compose(in), in.Criteria))
}
