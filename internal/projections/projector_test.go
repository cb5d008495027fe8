package projections

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-catalog/internal/kstream"
	"marketplace-catalog/internal/model"
	"marketplace-catalog/internal/realtime"
)

type fakeStore struct {
	applied []model.CatalogChange
	err     error
}

func (f *fakeStore) Apply(_ context.Context, c model.CatalogChange) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, c)
	return nil
}

type memDedupe map[string]bool

func (m memDedupe) Has(_ context.Context, id string) bool { return m[id] }

func (m memDedupe) Add(_ context.Context, id string) { m[id] = true }

type sliceReader struct {
	msgs []kafka.Message
	err  error
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, r.err
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func message(t *testing.T, c model.CatalogChange) kafka.Message {
	t.Helper()
	msg, err := kstream.EncodeChange(c)
	require.NoError(t, err)
	return msg
}

func TestProjector_AppliesNotifiesAndDedupes(t *testing.T) {
	store := &fakeStore{}
	hub := realtime.NewHub()
	var pushed []string
	hub.Subscribe(realtime.TopicCatalog, func(c model.CatalogChange) { pushed = append(pushed, c.ID) })

	p := NewProjector(store, memDedupe{}, hub)
	c := model.CatalogChange{ID: "chg-1", Kind: model.KindVendor, Op: model.OpUpsert, EntityID: "v1", Vendor: &model.Vendor{ID: "v1"}}

	reader := &sliceReader{
		msgs: []kafka.Message{message(t, c), message(t, c), {Value: []byte("garbage")}},
		err:  context.Canceled,
	}
	require.NoError(t, p.Run(context.Background(), reader))

	require.Len(t, store.applied, 1)
	assert.Equal(t, "v1", store.applied[0].EntityID)
	assert.Equal(t, []string{"chg-1"}, pushed)
}

func TestProjector_StoreErrorSkipsNotify(t *testing.T) {
	store := &fakeStore{err: errors.New("redis down")}
	hub := realtime.NewHub()
	pushed := 0
	hub.Subscribe(realtime.TopicCatalog, func(model.CatalogChange) { pushed++ })

	p := NewProjector(store, nil, hub)
	err := p.Handle(context.Background(), message(t, model.CatalogChange{ID: "x", Kind: model.KindItem, EntityID: "i"}))
	assert.EqualError(t, err, "redis down")
	assert.Equal(t, 0, pushed)
}

func TestProjector_RunReturnsReaderError(t *testing.T) {
	p := NewProjector(&fakeStore{}, nil, nil)
	err := p.Run(context.Background(), &sliceReader{err: errors.New("group coordinator not available")})
	assert.EqualError(t, err, "group coordinator not available")
}

func TestProjector_FailedApplyIsRetriedOnRedelivery(t *testing.T) {
	store := &fakeStore{err: errors.New("redis down")}
	dedupe := memDedupe{}
	p := NewProjector(store, dedupe, nil)
	msg := message(t, model.CatalogChange{ID: "c1", Kind: model.KindVendor, Op: model.OpUpsert, EntityID: "v1", Vendor: &model.Vendor{ID: "v1"}})

	require.Error(t, p.Handle(context.Background(), msg))
	assert.False(t, dedupe["c1"])

	store.err = nil
	require.NoError(t, p.Handle(context.Background(), msg))
	require.Len(t, store.applied, 1)
	assert.Equal(t, "v1", store.applied[0].EntityID)
	assert.True(t, dedupe["c1"])

	require.NoError(t, p.Handle(context.Background(), msg))
	assert.Len(t, store.applied, 1)
}
