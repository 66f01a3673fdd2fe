package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"passport-map/internal/logger"
	"passport-map/internal/metrics"
)

const maxBody = 1 << 16

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decode：空请求体视为零值
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// instrument：按路由计数与计时
func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		h(w, r)
		metrics.RequestDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}
}

func badRequest(w http.ResponseWriter, route string, err error) {
	logger.L().Debug("api_bad_request", "route", route, "err", err)
	writeError(w, http.StatusBadRequest, err.Error())
}
