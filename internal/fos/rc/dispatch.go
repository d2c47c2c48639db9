package rc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// envelope is one JSON-RPC 2.0 request object. ID is kept as raw JSON so
// presence (a notification has no "id" key at all) can be distinguished
// from an explicit null id.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// response is one JSON-RPC 2.0 response object.
type response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

var nullID = json.RawMessage("null")

// Handle parses body as a single JSON-RPC request or a batch, dispatches
// each non-notification request through registry, and returns the raw
// response bytes to write back. A nil return means "no response body"
// (spec.md §4.4: a batch consisting entirely of notifications, or a
// single notification, produces no HTTP body).
func Handle(ctx context.Context, registry *Registry, body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return marshalOne(errorResponse(nil, ParseError("empty request body")))
	}

	var probe json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return marshalOne(errorResponse(nil, ParseError(err.Error())))
	}

	switch trimmed[0] {
	case '[':
		return handleBatch(ctx, registry, trimmed)
	case '{':
		resp := handleOne(ctx, registry, trimmed)
		if resp == nil {
			return nil
		}
		return marshalOne(resp)
	default:
		return marshalOne(errorResponse(nil, InvalidRequest("request must be a JSON object or a non-empty array")))
	}
}

func handleBatch(ctx context.Context, registry *Registry, raw json.RawMessage) []byte {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return marshalOne(errorResponse(nil, ParseError(err.Error())))
	}
	if len(items) == 0 {
		return marshalOne(errorResponse(nil, InvalidRequest("batch must not be empty")))
	}

	if hooks := registry.getHooks(); hooks.OnBatch != nil {
		hooks.OnBatch()
	}

	responses := make([]*response, 0, len(items))
	for _, item := range items {
		if resp := handleOne(ctx, registry, item); resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		return nil
	}
	b, err := json.Marshal(responses)
	if err != nil {
		return marshalOne(errorResponse(nil, InternalError(err.Error(), nil)))
	}
	return b
}

func handleOne(ctx context.Context, registry *Registry, raw json.RawMessage) *response {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errorResponse(nil, InvalidRequest(err.Error()))
	}

	notification := env.ID == nil
	hooks := registry.getHooks()
	if notification && hooks.OnNotification != nil {
		hooks.OnNotification()
	}

	if env.JSONRPC != "2.0" || env.Method == "" {
		if notification {
			return nil
		}
		return errorResponse(env.ID, InvalidRequest(`"jsonrpc" must be "2.0" and "method" must be a non-empty string`))
	}

	call := registry.Get(env.Method)
	if call == nil {
		if notification {
			return nil
		}
		return errorResponse(env.ID, MethodNotFound(env.Method))
	}

	params, perr := bindParams(env.Params, call.ParamNames)
	if perr != nil {
		if notification {
			return nil
		}
		return errorResponse(env.ID, perr)
	}

	ctx = WithRequestID(ctx, requestIDFromRaw(env.ID))
	result, rerr := call.Fn(ctx, params)
	if hooks.OnCall != nil {
		kind := ""
		if rerr != nil {
			if data, ok := rerr.Data.(errorData); ok {
				kind = data.Kind
			} else {
				kind = "protocol"
			}
		}
		hooks.OnCall(env.Method, kind)
	}
	if notification {
		return nil
	}
	if rerr != nil {
		return errorResponse(env.ID, rerr)
	}
	return &response{JSONRPC: "2.0", Result: result, ID: env.ID}
}

// bindParams converts positional (array) or named (object) params into
// a Params map keyed by the method's declared parameter names.
func bindParams(raw json.RawMessage, names []string) (Params, *RPCError) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return Params{}, nil
	}

	switch trimmed[0] {
	case '[':
		var arr []interface{}
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return nil, InvalidParams(err.Error(), nil)
		}
		if len(arr) > len(names) {
			return nil, InvalidParams(fmt.Sprintf("too many positional params: got %d, want at most %d", len(arr), len(names)), nil)
		}
		p := make(Params, len(arr))
		for i, v := range arr {
			p[names[i]] = v
		}
		return p, nil
	case '{':
		var obj map[string]interface{}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, InvalidParams(err.Error(), nil)
		}
		return Params(obj), nil
	default:
		return nil, InvalidParams(`"params" must be an array or an object`, nil)
	}
}

func errorResponse(id json.RawMessage, rerr *RPCError) *response {
	if id == nil {
		id = nullID
	}
	return &response{JSONRPC: "2.0", Error: rerr, ID: id}
}

func marshalOne(resp *response) []byte {
	b, err := json.Marshal(resp)
	if err != nil {
		// json.Marshal on our own response type with an *RPCError whose
		// Data is a plain struct cannot realistically fail; fall back to
		// a minimal hand-built error rather than panicking.
		return []byte(`{"jsonrpc":"2.0","error":{"code":-32603,"message":"Internal error: failed to marshal response"},"id":null}`)
	}
	return b
}
