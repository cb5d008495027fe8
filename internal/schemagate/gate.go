package schemagate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"marketplace-catalog/internal/logger"
	"marketplace-catalog/internal/model"
)

// go-playground/validator/v10: struct tags on the model types carry the schema.
var validate = validator.New()

// Rejection records a rejected record with the reason.
type Rejection struct {
	Scope  string `json:"scope"`  // e.g. "item:123" or "membership:u1:c9"
	Reason string `json:"reason"` // e.g. "price failed gte"
}

// ValidateItem checks one catalog item. An invalid item is dropped on its
// own; the rest of the batch continues.
func ValidateItem(item model.CatalogItem) (valid bool, rejectReason string) {
	if reason := structReason(item); reason != "" {
		return false, reason
	}
	if item.Currency != strings.ToUpper(item.Currency) {
		return false, "currency must be an upper-case ISO 4217 code"
	}
	return true, ""
}

func ValidateVendor(v model.Vendor) (valid bool, rejectReason string) {
	if reason := structReason(v); reason != "" {
		return false, reason
	}
	for day := range v.OpeningHours {
		if !knownDay(day) {
			return false, fmt.Sprintf("opening_hours: unknown day %q", day)
		}
	}
	return true, ""
}

func ValidateCommunity(c model.Community) (valid bool, rejectReason string) {
	if reason := structReason(c); reason != "" {
		return false, reason
	}
	return true, ""
}

func ValidateMembership(m model.Membership) (valid bool, rejectReason string) {
	if reason := structReason(m); reason != "" {
		return false, reason
	}
	return true, ""
}

func ValidateDelete(d model.DeleteRef) (valid bool, rejectReason string) {
	if reason := structReason(d); reason != "" {
		return false, reason
	}
	return true, ""
}

var days = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true, "fri": true, "sat": true, "sun": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"saturday": true, "sunday": true,
}

func knownDay(d string) bool { return days[d] }

func structReason(v any) string {
	err := validate.Struct(v)
	if err == nil {
		return ""
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag())
}

// record is one unit of gate work. check returns the change to publish.
type record struct {
	scope string
	check func() (valid bool, reason string)
	build func(id string, at time.Time) model.CatalogChange
}

type result struct {
	change    *model.CatalogChange
	rejection *Rejection
}

// ProcessBatch validates every record of the batch in parallel and returns
// the accepted records as changes, in batch order, plus the rejections.
// Items listed in the same batch get increasing timestamps so the batch order
// becomes their listing order.
func ProcessBatch(ctx context.Context, batch model.IngestBatch, now time.Time) (accepted []model.CatalogChange, rejections []Rejection, err error) {
	records := flatten(batch)
	accepted = []model.CatalogChange{}
	rejections = []Rejection{}
	if len(records) == 0 {
		return accepted, rejections, nil
	}

	maxWorkers := 16
	if len(records) < maxWorkers {
		maxWorkers = len(records)
	}

	results := make([]result, len(records))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = gateRecord(records[i], now.Add(time.Duration(i)*time.Millisecond))
			}
		}()
	}

	for i := range records {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for _, r := range results {
		if r.rejection != nil {
			rejections = append(rejections, *r.rejection)
			continue
		}
		accepted = append(accepted, *r.change)
	}
	return accepted, rejections, nil
}

func gateRecord(r record, at time.Time) result {
	if valid, reason := r.check(); !valid {
		logger.WithFields(logrus.Fields{"scope": r.scope, "reason": reason}).Info("SchemaGate: rejected")
		return result{rejection: &Rejection{Scope: r.scope, Reason: reason}}
	}
	// google/uuid: change ids feed the projector's duplicate filter.
	c := r.build(uuid.NewString(), at)
	return result{change: &c}
}

func flatten(b model.IngestBatch) []record {
	var out []record

	for _, c := range b.Communities {
		out = append(out, record{
			scope: "community:" + c.ID,
			check: func() (bool, string) { return ValidateCommunity(c) },
			build: func(id string, at time.Time) model.CatalogChange {
				return model.CatalogChange{ID: id, Kind: model.KindCommunity, Op: model.OpUpsert, EntityID: c.ID, Community: &c, Timestamp: at}
			},
		})
	}
	for _, v := range b.Vendors {
		out = append(out, record{
			scope: "vendor:" + v.ID,
			check: func() (bool, string) { return ValidateVendor(v) },
			build: func(id string, at time.Time) model.CatalogChange {
				return model.CatalogChange{ID: id, Kind: model.KindVendor, Op: model.OpUpsert, EntityID: v.ID, Vendor: &v, Timestamp: at}
			},
		})
	}
	for _, it := range b.Items {
		out = append(out, record{
			scope: "item:" + it.ID,
			check: func() (bool, string) { return ValidateItem(it) },
			build: func(id string, at time.Time) model.CatalogChange {
				return model.CatalogChange{ID: id, Kind: model.KindItem, Op: model.OpUpsert, EntityID: it.ID, Item: &it, Timestamp: at}
			},
		})
	}
	out = append(out, memberships(b.Memberships, model.OpUpsert)...)
	out = append(out, memberships(b.Leaves, model.OpDelete)...)
	for _, d := range b.Deletes {
		out = append(out, record{
			scope: "delete:" + string(d.Kind) + ":" + d.ID,
			check: func() (bool, string) { return ValidateDelete(d) },
			build: func(id string, at time.Time) model.CatalogChange {
				return model.CatalogChange{ID: id, Kind: d.Kind, Op: model.OpDelete, EntityID: d.ID, Timestamp: at}
			},
		})
	}
	return out
}

func memberships(ms []model.Membership, op model.ChangeOp) []record {
	out := make([]record, 0, len(ms))
	for _, m := range ms {
		out = append(out, record{
			scope: "membership:" + m.ViewerID + ":" + m.CommunityID,
			check: func() (bool, string) { return ValidateMembership(m) },
			build: func(id string, at time.Time) model.CatalogChange {
				return model.CatalogChange{ID: id, Kind: model.KindMembership, Op: op,
					EntityID: m.ViewerID + ":" + m.CommunityID, Membership: &m, Timestamp: at}
			},
		})
	}
	return out
}
