package model

import "time"

// ChangeKind names the entity a CatalogChange carries.
type ChangeKind string

const (
	KindItem       ChangeKind = "item"
	KindVendor     ChangeKind = "vendor"
	KindCommunity  ChangeKind = "community"
	KindMembership ChangeKind = "membership"
)

type ChangeOp string

const (
	OpUpsert ChangeOp = "upsert"
	OpDelete ChangeOp = "delete"
)

// Membership links a viewer to a community.
type Membership struct {
	ViewerID    string `json:"viewer_id" validate:"required"`
	CommunityID string `json:"community_id" validate:"required"`
}

// CatalogChange is the event published to the changes topic after an ingest
// batch passes the gate. It is consumed by the projector, which applies it to
// the snapshot store. Exactly one payload field is set for upserts; deletes
// only carry EntityID (and Membership for membership deletes).
type CatalogChange struct {
	ID         string       `json:"id"`
	Kind       ChangeKind   `json:"kind"`
	Op         ChangeOp     `json:"op"`
	EntityID   string       `json:"entity_id"`
	Item       *CatalogItem `json:"item,omitempty"`
	Vendor     *Vendor      `json:"vendor,omitempty"`
	Community  *Community   `json:"community,omitempty"`
	Membership *Membership  `json:"membership,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// Key is the partitioning key: changes to one entity stay ordered.
func (c CatalogChange) Key() string {
	return string(c.Kind) + ":" + c.EntityID
}

// DeleteRef names an entity to remove in an ingest batch.
type DeleteRef struct {
	Kind ChangeKind `json:"kind" validate:"required,oneof=item vendor community"`
	ID   string     `json:"id" validate:"required"`
}

// IngestBatch is the body of POST /catalog/ingest.
type IngestBatch struct {
	Items       []CatalogItem `json:"items,omitempty"`
	Vendors     []Vendor      `json:"vendors,omitempty"`
	Communities []Community   `json:"communities,omitempty"`
	Memberships []Membership  `json:"memberships,omitempty"`
	// Leaves removes memberships.
	Leaves  []Membership `json:"leaves,omitempty"`
	Deletes []DeleteRef  `json:"deletes,omitempty"`
}
