package processing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"marketplace-catalog/internal/logger"
	"marketplace-catalog/internal/model"
	"marketplace-catalog/internal/schemagate"
)

// Publisher delivers accepted changes to the changes topic.
type Publisher interface {
	Publish(ctx context.Context, changes ...model.CatalogChange) error
}

// RejectionWriter records rejected records of a batch.
type RejectionWriter interface {
	Write(ctx context.Context, batchID string, rejections []schemagate.Rejection) error
}

// IngestStats is returned to the client so it can see what was accepted.
type IngestStats struct {
	BatchID    string                 `json:"batch_id"`
	Accepted   int                    `json:"accepted"`
	Rejected   int                    `json:"rejected"`
	Rejections []schemagate.Rejection `json:"rejections,omitempty"`
	// DurationMillis is the end-to-end processing time for this batch.
	DurationMillis int64 `json:"duration_ms"`
}

type Processor struct {
	publisher  Publisher
	rejections RejectionWriter
	now        func() time.Time
}

func NewProcessor(p Publisher, r RejectionWriter) *Processor {
	return &Processor{publisher: p, rejections: r, now: time.Now}
}

// ProcessIngest gates the batch, records rejections and publishes the
// accepted changes. A failing rejection log is logged but does not fail the
// batch; a failing publish does.
func (p *Processor) ProcessIngest(ctx context.Context, batch model.IngestBatch) (*IngestStats, error) {
	start := p.now()
	batchID := uuid.NewString()

	accepted, rejected, err := schemagate.ProcessBatch(ctx, batch, start)
	if err != nil {
		return nil, err
	}

	if len(rejected) > 0 && p.rejections != nil {
		if err := p.rejections.Write(ctx, batchID, rejected); err != nil {
			logger.WithError(err).WithField("batch_id", batchID).Error("ingest: failed to record rejections")
		}
	}

	if err := p.publisher.Publish(ctx, accepted...); err != nil {
		return nil, fmt.Errorf("publish changes: %w", err)
	}

	stats := &IngestStats{
		BatchID:        batchID,
		Accepted:       len(accepted),
		Rejected:       len(rejected),
		Rejections:     rejected,
		DurationMillis: time.Since(start).Milliseconds(),
	}
	logger.WithFields(logrus.Fields{
		"batch_id": batchID,
		"accepted": stats.Accepted,
		"rejected": stats.Rejected,
	}).Info("ingest: batch processed")
	return stats, nil
}
