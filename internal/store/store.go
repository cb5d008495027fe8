package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"marketplace-catalog/internal/logger"
	"marketplace-catalog/internal/model"
)

// ErrUnknownChange is returned by Apply for kinds or ops it cannot handle.
var ErrUnknownChange = errors.New("store: unknown change")

// Store is the Redis read model the catalog is composed from.
type Store struct {
	rdb  *redis.Client
	keys keys
}

// New wraps an existing client. prefix namespaces every key.
func New(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, keys: keys{prefix: prefix}}
}

// NewClient creates a go-redis client and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Apply writes one change to the read model. Upserts and deletes are
// idempotent so replays from the changes topic are harmless.
func (s *Store) Apply(ctx context.Context, c model.CatalogChange) error {
	switch c.Kind {
	case model.KindItem:
		return s.applyItem(ctx, c)
	case model.KindVendor:
		if c.Op == model.OpUpsert && c.Vendor == nil {
			return fmt.Errorf("%w: vendor upsert without payload", ErrUnknownChange)
		}
		return s.applyEntity(ctx, c, s.keys.vendor(c.EntityID), s.keys.vendors(), c.Vendor)
	case model.KindCommunity:
		if c.Op == model.OpUpsert && c.Community == nil {
			return fmt.Errorf("%w: community upsert without payload", ErrUnknownChange)
		}
		return s.applyEntity(ctx, c, s.keys.community(c.EntityID), s.keys.communities(), c.Community)
	case model.KindMembership:
		return s.applyMembership(ctx, c)
	}
	return fmt.Errorf("%w: kind %q", ErrUnknownChange, c.Kind)
}

func (s *Store) applyItem(ctx context.Context, c model.CatalogChange) error {
	switch c.Op {
	case model.OpUpsert:
		if c.Item == nil {
			return fmt.Errorf("%w: item upsert without payload", ErrUnknownChange)
		}
		data, err := json.Marshal(c.Item)
		if err != nil {
			return err
		}
		listed := c.Timestamp
		if listed.IsZero() {
			listed = time.Now()
		}
		// redis/go-redis/v9: ZAddNX keeps the first listing time, so updates
		// do not move an item in the catalog order.
		_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.keys.item(c.EntityID), data, 0)
			pipe.ZAddNX(ctx, s.keys.items(), redis.Z{Score: float64(listed.UnixMilli()), Member: c.EntityID})
			return nil
		})
		return err
	case model.OpDelete:
		_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, s.keys.item(c.EntityID))
			pipe.ZRem(ctx, s.keys.items(), c.EntityID)
			return nil
		})
		return err
	}
	return fmt.Errorf("%w: op %q", ErrUnknownChange, c.Op)
}

func (s *Store) applyEntity(ctx context.Context, c model.CatalogChange, key, setKey string, payload any) error {
	switch c.Op {
	case model.OpUpsert:
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, setKey, c.EntityID)
			return nil
		})
		return err
	case model.OpDelete:
		_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, setKey, c.EntityID)
			return nil
		})
		return err
	}
	return fmt.Errorf("%w: op %q", ErrUnknownChange, c.Op)
}

func (s *Store) applyMembership(ctx context.Context, c model.CatalogChange) error {
	m := c.Membership
	if m == nil {
		return fmt.Errorf("%w: membership change without payload", ErrUnknownChange)
	}
	switch c.Op {
	case model.OpUpsert:
		return s.rdb.SAdd(ctx, s.keys.members(m.ViewerID), m.CommunityID).Err()
	case model.OpDelete:
		return s.rdb.SRem(ctx, s.keys.members(m.ViewerID), m.CommunityID).Err()
	}
	return fmt.Errorf("%w: op %q", ErrUnknownChange, c.Op)
}

// Memberships returns the communities viewerID belongs to. Anonymous viewers
// (empty id) belong to none.
func (s *Store) Memberships(ctx context.Context, viewerID string) (model.MembershipSet, error) {
	if viewerID == "" {
		return model.MembershipSet{}, nil
	}
	ids, err := s.rdb.SMembers(ctx, s.keys.members(viewerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	return model.NewMembershipSet(ids...), nil
}

// Snapshot reads the whole catalog. Records that disappear between the index
// read and the value read, or that fail to decode, are skipped.
func (s *Store) Snapshot(ctx context.Context) (model.Snapshot, error) {
	snap := model.Snapshot{
		Vendors:     map[string]model.Vendor{},
		Communities: map[string]model.Community{},
	}

	itemIDs, err := s.rdb.ZRange(ctx, s.keys.items(), 0, -1).Result()
	if err != nil {
		return snap, fmt.Errorf("load item index: %w", err)
	}
	items, err := loadAll[model.CatalogItem](ctx, s.rdb, itemIDs, s.keys.item)
	if err != nil {
		return snap, fmt.Errorf("load items: %w", err)
	}
	snap.Items = items

	vendorIDs, err := s.rdb.SMembers(ctx, s.keys.vendors()).Result()
	if err != nil {
		return snap, fmt.Errorf("load vendor index: %w", err)
	}
	vendors, err := loadAll[model.Vendor](ctx, s.rdb, vendorIDs, s.keys.vendor)
	if err != nil {
		return snap, fmt.Errorf("load vendors: %w", err)
	}
	for _, v := range vendors {
		snap.Vendors[v.ID] = v
	}

	communityIDs, err := s.rdb.SMembers(ctx, s.keys.communities()).Result()
	if err != nil {
		return snap, fmt.Errorf("load community index: %w", err)
	}
	communities, err := loadAll[model.Community](ctx, s.rdb, communityIDs, s.keys.community)
	if err != nil {
		return snap, fmt.Errorf("load communities: %w", err)
	}
	for _, c := range communities {
		snap.Communities[c.ID] = c
	}

	return snap, nil
}

func loadAll[T any](ctx context.Context, rdb *redis.Client, ids []string, key func(string) string) ([]T, error) {
	out := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ks := make([]string, len(ids))
	for i, id := range ids {
		ks[i] = key(id)
	}
	vals, err := rdb.MGet(ctx, ks...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			logger.WithError(err).WithField("key", ks[i]).Warn("store: skipping undecodable record")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
