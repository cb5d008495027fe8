package processing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-catalog/internal/model"
	"marketplace-catalog/internal/schemagate"
)

type fakePublisher struct {
	changes []model.CatalogChange
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, changes ...model.CatalogChange) error {
	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, changes...)
	return nil
}

type fakeRejections struct {
	batches map[string][]schemagate.Rejection
	err     error
}

func (f *fakeRejections) Write(_ context.Context, batchID string, r []schemagate.Rejection) error {
	if f.batches == nil {
		f.batches = map[string][]schemagate.Rejection{}
	}
	f.batches[batchID] = r
	return f.err
}

func batch() model.IngestBatch {
	return model.IngestBatch{
		Items: []model.CatalogItem{
			{ID: "ok", Name: "Plantain", Price: 800, Currency: "NGN", VendorID: "v1"},
			{ID: "bad", Name: "Plantain", Price: 800, Currency: "", VendorID: "v1"},
		},
	}
}

func TestProcessIngest_PublishesAcceptedAndRecordsRejected(t *testing.T) {
	pub := &fakePublisher{}
	rej := &fakeRejections{}

	stats, err := NewProcessor(pub, rej).ProcessIngest(context.Background(), batch())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Rejected)
	require.Len(t, pub.changes, 1)
	assert.Equal(t, "ok", pub.changes[0].EntityID)
	require.Contains(t, rej.batches, stats.BatchID)
	assert.Equal(t, "item:bad", rej.batches[stats.BatchID][0].Scope)
}

func TestProcessIngest_PublishFailureFailsBatch(t *testing.T) {
	pub := &fakePublisher{err: errors.New("no leader")}
	_, err := NewProcessor(pub, nil).ProcessIngest(context.Background(), batch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no leader")
}

func TestProcessIngest_RejectionLogFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{}
	rej := &fakeRejections{err: errors.New("disk full")}

	stats, err := NewProcessor(pub, rej).ProcessIngest(context.Background(), batch())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Accepted)
}
