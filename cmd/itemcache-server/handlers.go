package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/metrics"
	"github.com/Sternrassler/flashsale-itemcache/pkg/warmup"
	"github.com/rs/zerolog"
)

// retryAfterSeconds is advertised on try-later responses.
const retryAfterSeconds = "1"

// newRouter wires the HTTP endpoints.
func newRouter(looker warmup.Looker, lookupBudget time.Duration, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /items/{id}", itemHandler(looker, lookupBudget, logger))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// itemHandler serves GET /items/{id}?version=N.
//
//	200: resolved entry (positive or negative)
//	202: try-later entry, Retry-After set
//	400: malformed id or version
//	503: remote tier fault
func itemHandler(looker warmup.Looker, budget time.Duration, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "item id must be a positive integer")
			return
		}

		var clientVersion *int64
		if v := r.URL.Query().Get("version"); v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "version must be an integer")
				return
			}
			clientVersion = &parsed
		}

		ctx, cancel := context.WithTimeout(r.Context(), budget)
		defer cancel()

		entry, err := looker.Lookup(ctx, id, clientVersion)
		if err != nil {
			logger.Error().Err(err).Int64("item_id", id).Msg("Item lookup failed")
			writeError(w, http.StatusServiceUnavailable, "item cache unavailable")
			return
		}

		status := http.StatusOK
		if entry.IsTryLater() {
			w.Header().Set("Retry-After", retryAfterSeconds)
			status = http.StatusAccepted
		}
		writeJSON(w, status, entry)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
