// Package fos holds the value types shared across the file-operation
// service: the process-lifetime Root and the descriptor returned by
// stat/list.
package fos

// EntryDescriptor is the value returned by stat and list operations.
//
// Path is always root-relative, using "/" as separator, with no leading
// "/" or ".". Absolute host paths never cross this boundary.
type EntryDescriptor struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Root is the absolute, canonicalized directory that bounds every
// operation. It is fixed for the process lifetime.
type Root struct {
	abs string
}

// NewRoot wraps an already-validated absolute directory path.
// Callers (the config loader) are responsible for checking that dir
// exists, is absolute, and is a directory before calling this.
func NewRoot(absDir string) Root {
	return Root{abs: absDir}
}

// String returns the root's absolute path.
func (r Root) String() string {
	return r.abs
}
