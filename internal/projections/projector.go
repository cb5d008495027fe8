package projections

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"marketplace-catalog/internal/kstream"
	"marketplace-catalog/internal/logger"
	"marketplace-catalog/internal/model"
)

// Applier writes a change to the read model.
type Applier interface {
	Apply(ctx context.Context, c model.CatalogChange) error
}

// Deduper remembers applied change ids.
type Deduper interface {
	Has(ctx context.Context, id string) bool
	Add(ctx context.Context, id string)
}

// Notifier pushes applied changes to realtime subscribers.
type Notifier interface {
	Publish(c model.CatalogChange)
}

// MessageReader is the part of *kafka.Reader the projector needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Projector consumes catalog.changes and keeps the Redis snapshot current.
type Projector struct {
	store    Applier
	dedupe   Deduper
	notifier Notifier
}

func NewProjector(store Applier, dedupe Deduper, notifier Notifier) *Projector {
	return &Projector{store: store, dedupe: dedupe, notifier: notifier}
}

// Run reads until ctx is cancelled or the reader fails. Bad messages are
// logged and skipped.
func (p *Projector) Run(ctx context.Context, reader MessageReader) error {
	logger.Info("Projector: consuming catalog changes")
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := p.Handle(ctx, msg); err != nil {
			logger.WithError(err).WithField("key", string(msg.Key)).Error("Projector: change not applied")
		}
	}
}

// Handle applies one message. Duplicates are dropped silently. An id is
// recorded only after the store accepted the change, so a failed apply is
// retried on redelivery.
func (p *Projector) Handle(ctx context.Context, msg kafka.Message) error {
	c, err := kstream.DecodeChange(msg)
	if err != nil {
		return err
	}
	if p.dedupe != nil && p.dedupe.Has(ctx, c.ID) {
		logger.Debugf("Projector: duplicate change %s, skipping", c.ID)
		return nil
	}
	if err := p.store.Apply(ctx, c); err != nil {
		return err
	}
	if p.dedupe != nil {
		p.dedupe.Add(ctx, c.ID)
	}
	logger.WithFields(logrus.Fields{"kind": c.Kind, "op": c.Op, "entity_id": c.EntityID}).Debug("Projector: applied")
	if p.notifier != nil {
		p.notifier.Publish(c)
	}
	return nil
}
