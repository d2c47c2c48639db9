package operations

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/fserrors"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/lock"
)

// newTestDeps wires a Deps against a temp directory root and a
// miniredis-backed lock.Coordinator, mirroring lock's own test setup;
// the coordinator's retry/expiry/CAS behavior is exercised there, so
// these tests only need the lease acquire/release path to work.
func newTestDeps(t *testing.T) (*Deps, string) {
	t.Helper()
	dir := t.TempDir()

	srv, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		srv.Close()
	})

	return &Deps{Root: fos.NewRoot(dir), Coordinator: lock.NewCoordinator(client)}, dir
}

func TestStatFile(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0644))

	entry, err := d.Stat(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", entry.Name)
	assert.Equal(t, "a.txt", entry.Path)
	assert.Equal(t, int64(5), entry.Size)
}

func TestStatMissing(t *testing.T) {
	d, _ := newTestDeps(t)
	_, err := d.Stat(context.Background(), "missing.txt")
	require.Error(t, err)
	kind, ok := fserrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fserrors.NotFound, kind)
}

func TestStatEscape(t *testing.T) {
	d, _ := newTestDeps(t)
	_, err := d.Stat(context.Background(), "../../etc/passwd")
	require.Error(t, err)
	kind, ok := fserrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fserrors.PathEscape, kind)
}

func TestListSortedAndComplete(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0777))

	entries, err := d.List(context.Background(), ".")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, "b.txt", entries[1].Name)
	assert.Equal(t, "sub", entries[2].Name)
}

func TestListNotADirectory(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))

	_, err := d.List(context.Background(), "a.txt")
	require.Error(t, err)
	kind, _ := fserrors.KindOf(err)
	assert.Equal(t, fserrors.NotADirectory, kind)
}

func TestCreateFileThenStat(t *testing.T) {
	d, _ := newTestDeps(t)
	require.NoError(t, d.CreateFile(context.Background(), "new.txt"))

	entry, err := d.Stat(context.Background(), "new.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(0), entry.Size)

	err = d.CreateFile(context.Background(), "new.txt")
	require.Error(t, err)
	kind, _ := fserrors.KindOf(err)
	assert.Equal(t, fserrors.AlreadyExists, kind)
}

func TestCreateFileMissingParent(t *testing.T) {
	d, _ := newTestDeps(t)
	err := d.CreateFile(context.Background(), "nope/new.txt")
	require.Error(t, err)
	kind, _ := fserrors.KindOf(err)
	assert.Equal(t, fserrors.NotFound, kind)
}

func TestCreateDirectory(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, d.CreateDirectory(context.Background(), "newdir"))

	info, err := os.Stat(filepath.Join(dir, "newdir"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDeleteFileIsIdempotent(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))

	removed, err := d.Delete(context.Background(), "a.txt", false)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = d.Delete(context.Background(), "a.txt", false)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDeleteNonEmptyDirRequiresRecursive(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.txt"), []byte("a"), 0644))

	_, err := d.Delete(context.Background(), "sub", false)
	require.Error(t, err)
	kind, _ := fserrors.KindOf(err)
	assert.Equal(t, fserrors.DirectoryNotEmpty, kind)

	removed, err := d.Delete(context.Background(), "sub", true)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestMoveRenamesWithinRoot(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0644))

	require.NoError(t, d.Move(context.Background(), "a.txt", "b.txt"))

	_, err := os.Stat(filepath.Join(dir, "a.txt"))
	assert.True(t, os.IsNotExist(err))
	content, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(content))
}

func TestMoveRejectsSamePath(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0644))

	err := d.Move(context.Background(), "a.txt", "a.txt")
	require.Error(t, err)
	kind, _ := fserrors.KindOf(err)
	assert.Equal(t, fserrors.InvalidArgument, kind)
}

func TestMoveRejectsExistingTarget(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bye"), 0644))

	err := d.Move(context.Background(), "a.txt", "b.txt")
	require.Error(t, err)
	kind, _ := fserrors.KindOf(err)
	assert.Equal(t, fserrors.AlreadyExists, kind)
}

func TestCopyLeavesSourceIntact(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world"), 0644))

	require.NoError(t, d.Copy(context.Background(), "a.txt", "b.txt"))

	srcContent, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	dstContent, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, srcContent, dstContent)
}

func TestCopyRejectsDirectorySource(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0777))

	err := d.Copy(context.Background(), "sub", "sub2")
	require.Error(t, err)
	kind, _ := fserrors.KindOf(err)
	assert.Equal(t, fserrors.IsADirectory, kind)
}

func TestReadRoundTrip(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("0123456789"), 0644))

	got, err := d.Read(context.Background(), "a.txt", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, "23456", got)
}

func TestReadBeyondEndOfFileTruncates(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abc"), 0644))

	got, err := d.Read(context.Background(), "a.txt", 1, 100)
	require.NoError(t, err)
	assert.Equal(t, "bc", got)
}

func TestReadRejectsLengthOverCap(t *testing.T) {
	d, dir := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abc"), 0644))

	_, err := d.Read(context.Background(), "a.txt", 0, MaxRead+1)
	require.Error(t, err)
	kind, _ := fserrors.KindOf(err)
	assert.Equal(t, fserrors.InvalidArgument, kind)
}

func TestAppendCreatesAndGrowsFile(t *testing.T) {
	d, dir := newTestDeps(t)

	require.NoError(t, d.Append(context.Background(), "req-1", "log.txt", "line one\n"))
	require.NoError(t, d.Append(context.Background(), "req-2", "log.txt", "line two\n"))

	content, err := os.ReadFile(filepath.Join(dir, "log.txt"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(content))
}

func TestAppendReleasesLeaseEvenOnSubsequentCalls(t *testing.T) {
	d, _ := newTestDeps(t)

	require.NoError(t, d.Append(context.Background(), "req-1", "log.txt", "a"))
	// If the lease weren't released, this second append to the same key
	// would fail with LockUnavailable against the fake coordinator.
	require.NoError(t, d.Append(context.Background(), "req-2", "log.txt", "b"))
}
