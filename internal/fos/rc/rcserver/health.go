package rcserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-redis/redis/v8"
)

// Pinger is the subset of a coordinator client the health check depends
// on: a cheap round-trip proving the coordinator is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger adapts *redis.Client to Pinger.
type RedisPinger struct {
	Client *redis.Client
}

func (p RedisPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}

// healthBody is the document served at the health path, per spec.md
// §4.5: `{ "status": "UP"|"DOWN", "details": {...}, "requestId": "..." }`.
type healthBody struct {
	Status    string         `json:"status"`
	Details   map[string]any `json:"details"`
	RequestID string         `json:"requestId"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	details := map[string]any{}
	status := "UP"
	code := http.StatusOK

	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			status = "DOWN"
			code = http.StatusServiceUnavailable
			details["coordinator"] = err.Error()
		} else {
			details["coordinator"] = "UP"
		}
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(healthBody{
		Status:    status,
		Details:   details,
		RequestID: requestIDHeader(r),
	})
}

func requestIDHeader(r *http.Request) string {
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return "anonymous"
}
