package schemagate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-catalog/internal/model"
)

func validItem(id string) model.CatalogItem {
	return model.CatalogItem{ID: id, Name: "Item " + id, Price: 1500, Currency: "KES", VendorID: "v1"}
}

func pct(v float64) *float64 { return &v }

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.CatalogItem)
		valid  bool
		reason string
	}{
		{"valid", func(*model.CatalogItem) {}, true, ""},
		{"missing id", func(i *model.CatalogItem) { i.ID = "" }, false, "id failed required"},
		{"negative price", func(i *model.CatalogItem) { i.Price = -1 }, false, "price failed gte=0"},
		{"short currency", func(i *model.CatalogItem) { i.Currency = "KE" }, false, "currency failed len=3"},
		{"lower-case currency", func(i *model.CatalogItem) { i.Currency = "kes" }, false, "currency must be an upper-case ISO 4217 code"},
		{"missing vendor", func(i *model.CatalogItem) { i.VendorID = "" }, false, "vendorid failed required"},
		{"pickup out of range", func(i *model.CatalogItem) { i.Pickup = &model.Coordinate{Lat: 95, Lng: 0} }, false, "lat failed lte=90"},
		{"pickup ok", func(i *model.CatalogItem) { i.Pickup = &model.Coordinate{Lat: -1.29, Lng: 36.82} }, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem("i1")
			tt.mutate(&item)
			valid, reason := ValidateItem(item)
			assert.Equal(t, tt.valid, valid)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestValidateVendor(t *testing.T) {
	ok, _ := ValidateVendor(model.Vendor{ID: "v1", DiscountOverride: pct(0), OpeningHours: model.OpeningHours{"mon": {Closed: true}}})
	assert.True(t, ok)

	ok, reason := ValidateVendor(model.Vendor{ID: "v1", DiscountOverride: pct(120)})
	assert.False(t, ok)
	assert.Equal(t, "discountoverride failed lte=100", reason)

	ok, reason = ValidateVendor(model.Vendor{ID: "v1", OpeningHours: model.OpeningHours{"funday": {}}})
	assert.False(t, ok)
	assert.Contains(t, reason, "funday")
}

func TestValidateCommunityAndMembership(t *testing.T) {
	ok, _ := ValidateCommunity(model.Community{ID: "c1", Name: "Riverside", MemberDiscount: 10})
	assert.True(t, ok)
	ok, _ = ValidateCommunity(model.Community{ID: "c1", Name: "Riverside", MemberDiscount: -1})
	assert.False(t, ok)

	ok, _ = ValidateMembership(model.Membership{ViewerID: "u1"})
	assert.False(t, ok)
}

func TestProcessBatch_PartialAcceptance(t *testing.T) {
	bad := validItem("bad")
	bad.Price = -5
	batch := model.IngestBatch{
		Communities: []model.Community{{ID: "c1", Name: "Riverside", MemberDiscount: 10}},
		Vendors:     []model.Vendor{{ID: "v1"}},
		Items:       []model.CatalogItem{validItem("a"), bad, validItem("b")},
		Memberships: []model.Membership{{ViewerID: "u1", CommunityID: "c1"}},
		Leaves:      []model.Membership{{ViewerID: "u2", CommunityID: "c1"}},
		Deletes:     []model.DeleteRef{{Kind: model.KindItem, ID: "old"}, {Kind: "rider", ID: "r1"}},
	}
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	accepted, rejections, err := ProcessBatch(context.Background(), batch, now)
	require.NoError(t, err)

	require.Len(t, rejections, 2)
	assert.Equal(t, "item:bad", rejections[0].Scope)
	assert.Equal(t, "delete:rider:r1", rejections[1].Scope)

	var got []string
	for _, c := range accepted {
		got = append(got, fmt.Sprintf("%s/%s/%s", c.Kind, c.Op, c.EntityID))
		assert.NotEmpty(t, c.ID)
	}
	assert.Equal(t, []string{
		"community/upsert/c1",
		"vendor/upsert/v1",
		"item/upsert/a",
		"item/upsert/b",
		"membership/upsert/u1:c1",
		"membership/delete/u2:c1",
		"item/delete/old",
	}, got)

	// Batch order becomes listing order.
	assert.True(t, accepted[2].Timestamp.Before(accepted[3].Timestamp))
	assert.NotEqual(t, accepted[2].ID, accepted[3].ID)
	require.NotNil(t, accepted[2].Item)
	assert.Equal(t, "a", accepted[2].Item.ID)
}

func TestProcessBatch_Empty(t *testing.T) {
	accepted, rejections, err := ProcessBatch(context.Background(), model.IngestBatch{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, accepted)
	assert.Empty(t, rejections)
}

func TestProcessBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := make([]model.CatalogItem, 100)
	for i := range items {
		items[i] = validItem(fmt.Sprint(i))
	}
	_, _, err := ProcessBatch(ctx, model.IngestBatch{Items: items}, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
