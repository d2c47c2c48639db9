package rc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, resp []byte) rpcResponse {
	t.Helper()
	var r rpcResponse
	require.NoError(t, json.Unmarshal(resp, &r))
	return r
}

func TestHandleMalformedJSONIsParseError(t *testing.T) {
	registry := NewRegistry()
	resp := Handle(context.Background(), registry, []byte(`{"jsonrpc":`))
	r := decodeResponse(t, resp)
	require.NotNil(t, r.Error)
	assert.Equal(t, -32700, r.Error.Code)
}

func TestHandleTopLevelNumberIsInvalidRequest(t *testing.T) {
	registry := NewRegistry()
	resp := Handle(context.Background(), registry, []byte(`42`))
	r := decodeResponse(t, resp)
	require.NotNil(t, r.Error)
	assert.Equal(t, -32600, r.Error.Code)
}

func TestHandleEnvelopeMissingMethodIsInvalidRequest(t *testing.T) {
	registry := NewRegistry()
	resp := Handle(context.Background(), registry, []byte(`{"jsonrpc":"2.0","id":1}`))
	r := decodeResponse(t, resp)
	require.NotNil(t, r.Error)
	assert.Equal(t, -32600, r.Error.Code)
}

func TestHandleEmptyBatchIsInvalidRequest(t *testing.T) {
	registry := NewRegistry()
	resp := Handle(context.Background(), registry, []byte(`[]`))
	r := decodeResponse(t, resp)
	require.NotNil(t, r.Error)
	assert.Equal(t, -32600, r.Error.Code)
}

func TestHandleUnregisteredMethodIsMethodNotFound(t *testing.T) {
	registry := NewRegistry()
	resp := Handle(context.Background(), registry, []byte(`{"jsonrpc":"2.0","method":"noSuchMethod","id":1}`))
	r := decodeResponse(t, resp)
	require.NotNil(t, r.Error)
	assert.Equal(t, -32601, r.Error.Code)
}
