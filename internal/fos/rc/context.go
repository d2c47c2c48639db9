package rc

import (
	"context"
	"encoding/json"
	"strings"
)

type requestIDKey struct{}

// WithRequestID returns a context carrying id, retrievable later via
// RequestIDFromContext. Used by the dispatcher to thread the JSON-RPC
// request's id into method handlers that need a caller identity (the
// append operation's lease token, per spec.md §9's token-format note).
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stashed by WithRequestID, or
// "anonymous" if none was set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	if id == "" {
		return "anonymous"
	}
	return id
}

// requestIDFromRaw renders a JSON-RPC id (string, number, or null/absent)
// as a plain string for use as a lease callerID.
func requestIDFromRaw(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "anonymous"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(trimmed, `"`)
}
