package rc

import (
	"context"

	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/operations"
)

// RegisterMethods wires the eight file-operation RPCs plus the
// introspection `describe` call onto registry, per spec.md §4.4's method
// table: getFileInfo, listDirectory, create, delete, move, copy, append,
// read.
func RegisterMethods(registry *Registry, deps *operations.Deps) {
	registry.Add(Call{
		Path:       "getFileInfo",
		ParamNames: []string{"path"},
		Fn: func(ctx context.Context, in Params) (interface{}, *RPCError) {
			path, err := in.GetString("path")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			entry, serr := deps.Stat(ctx, path)
			if serr != nil {
				return nil, FromCoreError(serr)
			}
			return entry, nil
		},
	})

	registry.Add(Call{
		Path:       "listDirectory",
		ParamNames: []string{"path"},
		Fn: func(ctx context.Context, in Params) (interface{}, *RPCError) {
			path, err := in.GetString("path")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			entries, serr := deps.List(ctx, path)
			if serr != nil {
				return nil, FromCoreError(serr)
			}
			return entries, nil
		},
	})

	registry.Add(Call{
		Path:       "create",
		ParamNames: []string{"path", "type"},
		Fn: func(ctx context.Context, in Params) (interface{}, *RPCError) {
			path, err := in.GetString("path")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			kind, err := in.GetString("type")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			switch operations.EntryType(kind) {
			case operations.TypeFile:
				if serr := deps.CreateFile(ctx, path); serr != nil {
					return nil, FromCoreError(serr)
				}
			case operations.TypeDirectory:
				if serr := deps.CreateDirectory(ctx, path); serr != nil {
					return nil, FromCoreError(serr)
				}
			default:
				return nil, InvalidParams(`"type" must be "FILE" or "DIRECTORY"`, nil)
			}
			return true, nil
		},
	})

	registry.Add(Call{
		Path:       "delete",
		ParamNames: []string{"path", "recursive"},
		Fn: func(ctx context.Context, in Params) (interface{}, *RPCError) {
			path, err := in.GetString("path")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			recursive, err := in.GetOptionalBool("recursive", false)
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			removed, serr := deps.Delete(ctx, path, recursive)
			if serr != nil {
				return nil, FromCoreError(serr)
			}
			return removed, nil
		},
	})

	registry.Add(Call{
		Path:       "move",
		ParamNames: []string{"sourcePath", "targetPath"},
		Fn: func(ctx context.Context, in Params) (interface{}, *RPCError) {
			src, err := in.GetString("sourcePath")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			dst, err := in.GetString("targetPath")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			if serr := deps.Move(ctx, src, dst); serr != nil {
				return nil, FromCoreError(serr)
			}
			return true, nil
		},
	})

	registry.Add(Call{
		Path:       "copy",
		ParamNames: []string{"sourcePath", "targetPath"},
		Fn: func(ctx context.Context, in Params) (interface{}, *RPCError) {
			src, err := in.GetString("sourcePath")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			dst, err := in.GetString("targetPath")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			if serr := deps.Copy(ctx, src, dst); serr != nil {
				return nil, FromCoreError(serr)
			}
			return true, nil
		},
	})

	registry.Add(Call{
		Path:       "append",
		ParamNames: []string{"path", "data"},
		Fn: func(ctx context.Context, in Params) (interface{}, *RPCError) {
			path, err := in.GetString("path")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			data, err := in.GetString("data")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			callerID := RequestIDFromContext(ctx)
			if serr := deps.Append(ctx, callerID, path, data); serr != nil {
				return nil, FromCoreError(serr)
			}
			return true, nil
		},
	})

	registry.Add(Call{
		Path:       "read",
		ParamNames: []string{"path", "offset", "length"},
		Fn: func(ctx context.Context, in Params) (interface{}, *RPCError) {
			path, err := in.GetString("path")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			offset, err := in.GetInt64("offset")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			length, err := in.GetInt64("length")
			if err != nil {
				return nil, InvalidParams(err.Error(), nil)
			}
			content, serr := deps.Read(ctx, path, offset, length)
			if serr != nil {
				return nil, FromCoreError(serr)
			}
			return content, nil
		},
	})

	registry.Add(Call{
		Path: "describe",
		Fn: func(ctx context.Context, in Params) (interface{}, *RPCError) {
			return describeRegistry(registry), nil
		},
	})
}

// methodDescription is one entry in describe's result.
type methodDescription struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
}

func describeRegistry(registry *Registry) []methodDescription {
	names := registry.List()
	out := make([]methodDescription, 0, len(names))
	for _, name := range names {
		call := registry.Get(name)
		params := call.ParamNames
		if params == nil {
			params = []string{}
		}
		out = append(out, methodDescription{Method: name, Params: params})
	}
	return out
}
