package kstream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-catalog/internal/model"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestPublisher_KeysByEntity(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisherWithWriter(w)
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(),
		model.CatalogChange{ID: "1", Kind: model.KindItem, Op: model.OpUpsert, EntityID: "i1",
			Item: &model.CatalogItem{ID: "i1", Name: "Eggs", Price: 450, Currency: "GHS", VendorID: "v1"}, Timestamp: at},
		model.CatalogChange{ID: "2", Kind: model.KindVendor, Op: model.OpDelete, EntityID: "v9", Timestamp: at},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "item:i1", string(w.msgs[0].Key))
	assert.Equal(t, "vendor:v9", string(w.msgs[1].Key))

	got, err := DecodeChange(w.msgs[0])
	require.NoError(t, err)
	require.NotNil(t, got.Item)
	assert.Equal(t, "Eggs", got.Item.Name)
	assert.True(t, at.Equal(got.Timestamp))
}

func TestPublisher_NoChangesNoWrite(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	assert.NoError(t, NewPublisherWithWriter(w).Publish(context.Background()))
}

func TestPublisher_PropagatesWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	err := NewPublisherWithWriter(w).Publish(context.Background(), model.CatalogChange{Kind: model.KindItem, EntityID: "x"})
	assert.EqualError(t, err, "broker unavailable")
}

func TestDecodeChange_Malformed(t *testing.T) {
	_, err := DecodeChange(kafka.Message{Value: []byte("nope")})
	assert.Error(t, err)
}
