package httpapi

import (
	"compress/gzip"
	"encoding/json"
	"net/http"
	"strings"

	"marketplace-catalog/internal/logger"
)

// WriteJSON encodes v with status, gzip-compressed when the client accepts it.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.WithError(err).WithField("path", r.URL.Path).Error("httpapi: encode response")
		}
		return
	}
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Add("Vary", "Accept-Encoding")
	w.WriteHeader(status)
	gw := gzip.NewWriter(w)
	defer gw.Close()
	if err := json.NewEncoder(gw).Encode(v); err != nil {
		logger.WithError(err).WithField("path", r.URL.Path).Error("httpapi: encode response")
	}
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, map[string]string{"error": msg})
}
