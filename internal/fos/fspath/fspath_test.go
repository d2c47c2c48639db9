package fspath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/fserrors"
)

const root = "/srv/data"

func TestResolveSimple(t *testing.T) {
	got, err := Resolve(root, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "/srv/data/a/b.txt", got)
}

func TestResolveAbsoluteLooking(t *testing.T) {
	// An absolute-looking caller path is still joined under root, per
	// spec.md §4.1: "treat caller_path as relative (even if it begins
	// with /, join it under the root)".
	got, err := Resolve(root, "/a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "/srv/data/a/b.txt", got)
}

func TestResolveDotSegments(t *testing.T) {
	got, err := Resolve(root, "./a/../b.txt")
	require.NoError(t, err)
	assert.Equal(t, "/srv/data/b.txt", got)
}

func TestResolveRootItself(t *testing.T) {
	for _, p := range []string{".", "", "/"} {
		t.Run(p, func(t *testing.T) {
			if p == "" {
				_, err := Resolve(root, p)
				require.Error(t, err)
				assert.True(t, fserrors.Is(err, fserrors.InvalidArgument))
				return
			}
			got, err := Resolve(root, p)
			require.NoError(t, err)
			assert.Equal(t, root, got)
		})
	}
}

func TestResolveEmptyOrBlank(t *testing.T) {
	for _, p := range []string{"", "   ", "\t"} {
		_, err := Resolve(root, p)
		require.Error(t, err)
		assert.True(t, fserrors.Is(err, fserrors.InvalidArgument), "path %q", p)
	}
}

func TestResolveEscape(t *testing.T) {
	for _, p := range []string{
		"../escape.txt",
		"../../etc/passwd",
		"a/../../escape.txt",
		"a/b/../../../escape.txt",
		"../../../../../../../etc/passwd",
	} {
		t.Run(p, func(t *testing.T) {
			_, err := Resolve(root, p)
			require.Error(t, err)
			assert.True(t, fserrors.Is(err, fserrors.PathEscape), "path %q: %v", p, err)
		})
	}
}

func TestResolveSiblingPrefixIsNotEscape(t *testing.T) {
	// A sibling directory that merely shares a string prefix with root
	// ("/srv/data-evil") must not be considered inside root.
	_, err := Resolve(root, "../data-evil/file.txt")
	require.Error(t, err)
	assert.True(t, fserrors.Is(err, fserrors.PathEscape))
}

func TestRelativize(t *testing.T) {
	assert.Equal(t, "", Relativize(root, root))
	assert.Equal(t, "a/b.txt", Relativize(root, "/srv/data/a/b.txt"))
}
