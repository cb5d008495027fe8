package httpapi

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"marketplace-catalog/internal/logger"
	"marketplace-catalog/internal/model"
	"marketplace-catalog/internal/processing"
)

// maxIngestBytes bounds an ingest body after decompression.
const maxIngestBytes = 32 << 20

type Ingester interface {
	ProcessIngest(ctx context.Context, batch model.IngestBatch) (*processing.IngestStats, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// API serves the write side: health and catalog ingest.
type API struct {
	ingester Ingester
	store    Pinger
}

func New(ingester Ingester, store Pinger) *API {
	return &API{ingester: ingester, store: store}
}

// RegisterRoutes wires HTTP routes (health + ingest side).
// gorilla/mux: method-based routing.
func (a *API) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", a.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/catalog/ingest", a.ingestHandler).Methods(http.MethodPost)
}

func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		WriteJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
		return
	}
	WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// ingestHandler accepts a batch of catalog changes, optionally gzip-encoded.
// Invalid records are rejected one by one; the rest are published.
func (a *API) ingestHandler(w http.ResponseWriter, r *http.Request) {
	reader := io.Reader(r.Body)
	if enc := r.Header.Get("Content-Encoding"); strings.EqualFold(enc, "gzip") {
		gr, err := gzip.NewReader(r.Body)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "failed to decompress gzip body")
			return
		}
		defer gr.Close()
		reader = gr
	}

	var batch model.IngestBatch
	if err := json.NewDecoder(io.LimitReader(reader, maxIngestBytes)).Decode(&batch); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	stats, err := a.ingester.ProcessIngest(r.Context(), batch)
	if err != nil {
		logger.WithError(err).Error("ingest: processing failed")
		WriteError(w, r, http.StatusBadGateway, "processing failed")
		return
	}
	WriteJSON(w, r, http.StatusAccepted, stats)
}
