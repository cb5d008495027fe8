package discovery

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace-catalog/internal/httpapi"
	"marketplace-catalog/internal/model"
	"marketplace-catalog/internal/realtime"
	"marketplace-catalog/internal/session"
)

const (
	streamBuffer   = 32
	keepAliveEvery = 25 * time.Second
)

// streamHandler pushes catalog changes as server-sent events so clients can
// re-run composition. Membership changes are only sent to their own viewer.
// Slow clients drop events rather than stall the projector.
func (s *Service) streamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok || s.subscriber == nil {
		httpapi.WriteError(w, r, http.StatusNotImplemented, "streaming unsupported")
		return
	}
	viewerID := strings.TrimSpace(r.Header.Get(session.ViewerHeader))

	events := make(chan model.CatalogChange, streamBuffer)
	unsubscribe := s.subscriber.Subscribe(realtime.TopicCatalog, func(c model.CatalogChange) {
		if !visibleTo(c, viewerID) {
			return
		}
		select {
		case events <- c:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveEvery)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case c := <-events:
			if err := writeEvent(w, c); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func visibleTo(c model.CatalogChange, viewerID string) bool {
	if c.Kind != model.KindMembership {
		return true
	}
	return c.Membership != nil && viewerID != "" && c.Membership.ViewerID == viewerID
}

type streamEvent struct {
	ID       string           `json:"id"`
	Kind     model.ChangeKind `json:"kind"`
	Op       model.ChangeOp   `json:"op"`
	EntityID string           `json:"entity_id"`
}

func writeEvent(w http.ResponseWriter, c model.CatalogChange) error {
	data, err := json.Marshal(streamEvent{ID: c.ID, Kind: c.Kind, Op: c.Op, EntityID: c.EntityID})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", c.ID, c.Kind, data)
	return err
}
