package rc

import (
	"fmt"

	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/fserrors"
)

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface so RPCError can be returned and
// logged like any other error.
func (e *RPCError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// ParseError builds the -32700 "Parse error" response for malformed JSON.
func ParseError(detail string) *RPCError {
	return &RPCError{Code: -32700, Message: "Parse error: " + detail}
}

// InvalidRequest builds the -32600 "Invalid Request" response for a
// structurally invalid envelope.
func InvalidRequest(detail string) *RPCError {
	return &RPCError{Code: -32600, Message: "Invalid Request: " + detail}
}

// MethodNotFound builds the -32601 "Method not found" response.
func MethodNotFound(method string) *RPCError {
	return &RPCError{Code: -32601, Message: "Method not found: " + method}
}

// InvalidParams builds the -32602 "Invalid params" response.
func InvalidParams(detail string, data interface{}) *RPCError {
	return &RPCError{Code: -32602, Message: "Invalid params: " + detail, Data: data}
}

// InternalError builds the -32603 "Internal error" response.
func InternalError(detail string, data interface{}) *RPCError {
	return &RPCError{Code: -32603, Message: "Internal error: " + detail, Data: data}
}

// errorData is the machine-readable error.data payload: a Kind string
// plus the original message, per spec.md §7.
type errorData struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// FromCoreError maps a core fserrors.Error (or any error, defensively)
// onto the JSON-RPC code table in spec.md §7.
func FromCoreError(err error) *RPCError {
	if err == nil {
		return nil
	}
	if rerr, ok := err.(*RPCError); ok {
		return rerr
	}
	kind, ok := fserrors.KindOf(err)
	data := errorData{Kind: kind.String(), Message: err.Error()}
	if !ok {
		return InternalError(err.Error(), data)
	}
	switch kind {
	case fserrors.InvalidArgument, fserrors.PathEscape:
		return InvalidParams(err.Error(), data)
	default:
		// NotFound, AlreadyExists, NotADirectory, IsADirectory, NotAFile,
		// DirectoryNotEmpty, AccessDenied, IOError, LockUnavailable all
		// map to -32603 per spec.md §7's table.
		return InternalError(err.Error(), data)
	}
}
