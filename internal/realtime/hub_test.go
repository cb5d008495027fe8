package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"marketplace-catalog/internal/model"
)

func TestHub_DeliversToCatalogAndKindTopics(t *testing.T) {
	h := NewHub()
	var all, items, vendors []string

	h.Subscribe(TopicCatalog, func(c model.CatalogChange) { all = append(all, c.EntityID) })
	h.Subscribe(TopicFor(model.KindItem), func(c model.CatalogChange) { items = append(items, c.EntityID) })
	h.Subscribe(TopicFor(model.KindVendor), func(c model.CatalogChange) { vendors = append(vendors, c.EntityID) })

	h.Publish(model.CatalogChange{Kind: model.KindItem, EntityID: "i1"})
	h.Publish(model.CatalogChange{Kind: model.KindVendor, EntityID: "v1"})

	assert.Equal(t, []string{"i1", "v1"}, all)
	assert.Equal(t, []string{"i1"}, items)
	assert.Equal(t, []string{"v1"}, vendors)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	n := 0
	unsub := h.Subscribe(TopicCatalog, func(model.CatalogChange) { n++ })

	h.Publish(model.CatalogChange{Kind: model.KindItem})
	unsub()
	unsub()
	h.Publish(model.CatalogChange{Kind: model.KindItem})

	assert.Equal(t, 1, n)
	assert.Equal(t, 0, h.Subscribers(TopicCatalog))
}

func TestHub_ConcurrentUse(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := h.Subscribe(TopicCatalog, func(model.CatalogChange) {})
			h.Publish(model.CatalogChange{Kind: model.KindCommunity})
			unsub()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Subscribers(TopicCatalog))
}
