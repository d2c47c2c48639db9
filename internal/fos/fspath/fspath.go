// Package fspath implements the path-safety boundary: normalizing and
// validating every caller-supplied path so that no operation ever
// escapes the configured root.
//
// The check is lexical only, mirroring the teacher's own root-relative
// path handling in backend/local: normalization is cheap, following
// symlinks before validating has TOCTOU pitfalls, and the deployed root
// is expected not to contain attacker-controlled symlinks. Operations
// that need to follow links (read, stat) rely on the host filesystem to
// constrain reachability after the lexical check passes; operations that
// target the link itself (delete, move) act on the link.
package fspath

import (
	"strings"

	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/fserrors"
)

// Resolve joins callerPath under root, lexically normalizes the result,
// and verifies it still lies within root. callerPath is always treated
// as relative to root, even if it begins with "/".
//
// It never touches the filesystem and never dereferences symlinks.
func Resolve(root string, callerPath string) (string, error) {
	if isBlank(callerPath) {
		return "", fserrors.New(fserrors.InvalidArgument, "path must not be empty")
	}

	// Strip any leading separators so an absolute-looking caller path is
	// still joined under root rather than replacing it.
	rel := strings.TrimLeft(callerPath, "/")

	joined := root + "/" + rel
	cleaned := cleanPath(joined)

	if cleaned != root && !strings.HasPrefix(cleaned, root+"/") {
		return "", fserrors.New(fserrors.PathEscape, "path resolves outside root: "+callerPath)
	}
	return cleaned, nil
}

// Relativize strips the root prefix from absPath, producing the
// descriptor form used in EntryDescriptor.Path: "/"-separated, no
// leading "/" or ".", "" when absPath equals root.
func Relativize(root string, absPath string) string {
	if absPath == root {
		return ""
	}
	trimmed := strings.TrimPrefix(absPath, root+"/")
	return trimmed
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// cleanPath lexically normalizes a "/"-separated path, collapsing "."
// and ".." segments without consulting the filesystem. It always
// operates on forward slashes per spec.md §1 ("Paths are UTF-8 strings
// using / as separator on all platforms").
func cleanPath(p string) string {
	abs := strings.HasPrefix(p, "/")
	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else if !abs {
				out = append(out, seg)
			}
			// if abs and out is empty, ".." above the root is simply
			// discarded: it cannot escape further than the root string
			// itself lexically, which is exactly what lets the prefix
			// check in Resolve catch true escapes reliably.
		default:
			out = append(out, seg)
		}
	}
	joined := strings.Join(out, "/")
	if abs {
		return "/" + joined
	}
	return joined
}
