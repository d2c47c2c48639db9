// Package operations implements the eight file-operation primitives
// (C3): stat, list, create_file, create_directory, delete, move, copy,
// read, append. Every operation resolves its caller-supplied path(s)
// through fspath first and then talks to the host filesystem directly.
//
// Adapted from the teacher's backend/local package: that backend wraps
// a remote-object abstraction (fs.Object/fs.Directory) around plain os
// calls for a single local root, which is exactly this package's job
// minus the remote-object layer rclone needs to be one of many
// interchangeable storage backends. Mkdir/Rmdir/Move follow
// backend/local/local.go's os.Mkdir/os.Remove/os.Rename-with-EXDEV-
// fallback idioms directly; append has no analogue in rclone (remote
// objects there are immutable) and is built from spec.md §4.3 directly.
package operations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"syscall"

	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/fserrors"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/fspath"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/lock"
	fslog "github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/log"
)

// MaxRead is the per-call read cap from spec.md's glossary (1 MiB).
const MaxRead = 1 << 20

// EntryType distinguishes the two kinds create() can make.
type EntryType string

const (
	TypeFile      EntryType = "FILE"
	TypeDirectory EntryType = "DIRECTORY"
)

// Coordinator is the subset of lock.Coordinator that Append depends on.
type Coordinator interface {
	Acquire(ctx context.Context, key string, callerID string) (*lock.Lease, error)
}

// Deps is the explicit, plainly-constructed dependency set every
// operation takes, per spec.md §9's dependency-injection note ("prefer
// explicit construction at startup ... pass dependencies into each
// operation via a plain struct").
type Deps struct {
	Root        fos.Root
	Coordinator Coordinator
	Logger      *fslog.Logger
}

func (d *Deps) logger() *fslog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return fslog.Default()
}

// resolve is the shared first step of every operation: turn a
// caller-supplied path into a root-confined absolute path.
func (d *Deps) resolve(callerPath string) (string, error) {
	return fspath.Resolve(d.Root.String(), callerPath)
}

func (d *Deps) descriptor(absPath string, info os.FileInfo) fos.EntryDescriptor {
	rel := fspath.Relativize(d.Root.String(), absPath)
	name := info.Name()
	if rel == "" {
		name = path.Base(d.Root.String())
	}
	return fos.EntryDescriptor{
		Name: name,
		Path: rel,
		Size: info.Size(),
	}
}

// Stat implements the `stat` operation from spec.md §4.3.
func (d *Deps) Stat(ctx context.Context, callerPath string) (fos.EntryDescriptor, error) {
	abs, err := d.resolve(callerPath)
	if err != nil {
		return fos.EntryDescriptor{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fos.EntryDescriptor{}, classifyStatErr(err, abs)
	}
	return d.descriptor(abs, info), nil
}

// List implements the `list` operation from spec.md §4.3. Entries that
// vanish between directory enumeration and their own stat are skipped
// silently; the aggregate call does not fail because of them.
func (d *Deps) List(ctx context.Context, callerPath string) ([]fos.EntryDescriptor, error) {
	abs, err := d.resolve(callerPath)
	if err != nil {
		return nil, err
	}

	dirInfo, err := os.Lstat(abs)
	if err != nil {
		return nil, classifyStatErr(err, abs)
	}
	if !dirInfo.IsDir() {
		return nil, fserrors.New(fserrors.NotADirectory, "not a directory: "+callerPath)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fserrors.Wrap(err, fserrors.AccessDenied, "cannot read directory: "+callerPath)
		}
		return nil, fserrors.Wrap(err, fserrors.IOError, "cannot read directory: "+callerPath)
	}

	out := make([]fos.EntryDescriptor, 0, len(entries))
	for _, entry := range entries {
		childAbs := path.Join(abs, entry.Name())
		info, err := entry.Info()
		if err != nil {
			// Vanished or became unreadable mid-walk: skip silently.
			d.logger().Debug("skipping entry that disappeared during list", "path", childAbs, "error", err)
			continue
		}
		out = append(out, d.descriptor(childAbs, info))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateFile implements `create_file` from spec.md §4.3.
func (d *Deps) CreateFile(ctx context.Context, callerPath string) error {
	abs, err := d.resolve(callerPath)
	if err != nil {
		return err
	}
	if err := checkParentExists(abs, callerPath); err != nil {
		return err
	}
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0666)
	if err != nil {
		return classifyCreateErr(err, callerPath)
	}
	return f.Close()
}

// CreateDirectory implements `create_directory` from spec.md §4.3: a
// single directory, not a chain — mirrors backend/local's plain
// os.Mkdir rather than MkdirAll for this non-recursive case.
func (d *Deps) CreateDirectory(ctx context.Context, callerPath string) error {
	abs, err := d.resolve(callerPath)
	if err != nil {
		return err
	}
	if err := checkParentExists(abs, callerPath); err != nil {
		return err
	}
	if err := os.Mkdir(abs, 0777); err != nil {
		return classifyCreateErr(err, callerPath)
	}
	return nil
}

// Delete implements `delete` from spec.md §4.3.
func (d *Deps) Delete(ctx context.Context, callerPath string, recursive bool) (bool, error) {
	abs, err := d.resolve(callerPath)
	if err != nil {
		return false, err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, classifyStatErr(err, abs)
	}

	if !info.IsDir() {
		if err := os.Remove(abs); err != nil {
			return false, fserrors.Wrap(err, fserrors.IOError, "delete: "+callerPath)
		}
		return true, nil
	}

	if !recursive {
		empty, err := dirIsEmpty(abs)
		if err != nil {
			return false, fserrors.Wrap(err, fserrors.IOError, "delete: "+callerPath)
		}
		if !empty {
			return false, fserrors.New(fserrors.DirectoryNotEmpty, "directory not empty: "+callerPath)
		}
		if err := os.Remove(abs); err != nil {
			return false, fserrors.Wrap(err, fserrors.IOError, "delete: "+callerPath)
		}
		return true, nil
	}

	if err := os.RemoveAll(abs); err != nil {
		return false, fserrors.Wrap(err, fserrors.IOError, "recursive delete: "+callerPath)
	}
	return true, nil
}

// Move implements `move` from spec.md §4.3: prefer an atomic rename;
// fall back to copy+delete when the host rejects a cross-device rename,
// logging the fallback, exactly as backend/local.Fs.Move documents for
// its own cross-filesystem case.
func (d *Deps) Move(ctx context.Context, sourcePath, targetPath string) error {
	srcAbs, err := d.resolve(sourcePath)
	if err != nil {
		return err
	}
	dstAbs, err := d.resolve(targetPath)
	if err != nil {
		return err
	}
	if srcAbs == dstAbs {
		return fserrors.New(fserrors.InvalidArgument, "source and target are the same path")
	}
	if isUnder(dstAbs, srcAbs) {
		return fserrors.New(fserrors.InvalidArgument, "target lies beneath source")
	}

	if _, err := os.Lstat(srcAbs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fserrors.New(fserrors.NotFound, "source does not exist: "+sourcePath)
		}
		return classifyStatErr(err, srcAbs)
	}
	if _, err := os.Lstat(dstAbs); err == nil {
		return fserrors.New(fserrors.AlreadyExists, "target already exists: "+targetPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return classifyStatErr(err, dstAbs)
	}
	if err := checkParentExists(dstAbs, targetPath); err != nil {
		return err
	}

	err = os.Rename(srcAbs, dstAbs)
	if err == nil {
		return nil
	}
	if isCrossDevice(err) {
		d.logger().Notice("move falling back to copy+delete across filesystems", "source", sourcePath, "target", targetPath)
		if err := copyFile(srcAbs, dstAbs); err != nil {
			return fserrors.Wrap(err, fserrors.IOError, "move fallback copy: "+sourcePath)
		}
		if err := os.Remove(srcAbs); err != nil {
			return fserrors.Wrap(err, fserrors.IOError, "move fallback delete source: "+sourcePath)
		}
		return nil
	}
	return fserrors.Wrap(err, fserrors.IOError, "move: "+sourcePath)
}

// Copy implements `copy` from spec.md §4.3: source must be a regular
// file, target must not exist, target's parent must exist. Streams the
// content with io.Copy, matching the teacher's accounted-reader idiom
// in shape (without transfer accounting, which this service has no
// use for).
func (d *Deps) Copy(ctx context.Context, sourcePath, targetPath string) error {
	srcAbs, err := d.resolve(sourcePath)
	if err != nil {
		return err
	}
	dstAbs, err := d.resolve(targetPath)
	if err != nil {
		return err
	}

	srcInfo, err := os.Lstat(srcAbs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fserrors.New(fserrors.NotFound, "source does not exist: "+sourcePath)
		}
		return classifyStatErr(err, srcAbs)
	}
	if srcInfo.IsDir() {
		return fserrors.New(fserrors.IsADirectory, "source is a directory: "+sourcePath)
	}

	if _, err := os.Lstat(dstAbs); err == nil {
		return fserrors.New(fserrors.AlreadyExists, "target already exists: "+targetPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return classifyStatErr(err, dstAbs)
	}
	if err := checkParentExists(dstAbs, targetPath); err != nil {
		return err
	}

	if err := copyFile(srcAbs, dstAbs); err != nil {
		return fserrors.Wrap(err, fserrors.IOError, "copy: "+sourcePath)
	}
	return nil
}

// Read implements `read` from spec.md §4.3.
func (d *Deps) Read(ctx context.Context, callerPath string, offset, length int64) (string, error) {
	if offset < 0 {
		return "", fserrors.New(fserrors.InvalidArgument, "offset must be >= 0")
	}
	if length < 0 || length > MaxRead {
		return "", fserrors.New(fserrors.InvalidArgument, fmt.Sprintf("length must be between 0 and %d", MaxRead))
	}

	abs, err := d.resolve(callerPath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fserrors.New(fserrors.NotFound, "not found: "+callerPath)
		}
		return "", classifyStatErr(err, abs)
	}
	if info.IsDir() {
		return "", fserrors.New(fserrors.NotAFile, "not a regular file: "+callerPath)
	}

	if offset > info.Size() {
		return "", fserrors.New(fserrors.InvalidArgument, "offset beyond file size")
	}

	effective := length
	if remaining := info.Size() - offset; remaining < effective {
		effective = remaining
	}
	if effective == 0 {
		return "", nil
	}

	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return "", fserrors.Wrap(err, fserrors.AccessDenied, "cannot open: "+callerPath)
		}
		return "", fserrors.Wrap(err, fserrors.IOError, "cannot open: "+callerPath)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, effective)
	if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
		return "", fserrors.Wrap(err, fserrors.IOError, "read: "+callerPath)
	}
	// Decoded as UTF-8 best-effort: Go strings are plain byte sequences,
	// so malformed UTF-8 at the window's edges is preserved as-is,
	// exactly per spec.md §4.3's deliberate simplification.
	return string(buf), nil
}

// Append implements `append` from spec.md §4.3: the only operation that
// engages the lock coordinator. The lease is released on every exit
// path, including the write failing, per spec.md §9's scoped-release
// note.
func (d *Deps) Append(ctx context.Context, callerID, callerPath, data string) error {
	abs, err := d.resolve(callerPath)
	if err != nil {
		return err
	}
	rel := fspath.Relativize(d.Root.String(), abs)
	key := "file:" + rel

	lease, err := d.Coordinator.Acquire(ctx, key, callerID)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := lease.Release(context.Background()); rerr != nil {
			d.logger().Warn("failed to release append lease", "key", key, "error", rerr)
		}
	}()

	f, err := os.OpenFile(abs, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return classifyAppendOpenErr(err, callerPath)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(data); err != nil {
		return fserrors.Wrap(err, fserrors.IOError, "append write: "+callerPath)
	}
	if err := f.Sync(); err != nil {
		return fserrors.Wrap(err, fserrors.IOError, "append sync: "+callerPath)
	}
	return nil
}

// --- helpers ---

func checkParentExists(abs string, callerPath string) error {
	parent := path.Dir(abs)
	info, err := os.Stat(parent)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fserrors.New(fserrors.NotFound, "parent directory does not exist: "+callerPath)
		}
		return classifyStatErr(err, parent)
	}
	if !info.IsDir() {
		return fserrors.New(fserrors.NotADirectory, "parent is not a directory: "+callerPath)
	}
	return nil
}

func dirIsEmpty(abs string) (bool, error) {
	entries, err := os.ReadDir(abs)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

func isUnder(candidate, base string) bool {
	return candidate == base || (len(candidate) > len(base) && candidate[:len(base)] == base && candidate[len(base)] == '/')
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}

func copyFile(srcAbs, dstAbs string) error {
	in, err := os.Open(srcAbs)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dstAbs, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		return err
	}
	return out.Sync()
}

func classifyStatErr(err error, abs string) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fserrors.New(fserrors.NotFound, "not found: "+abs)
	case errors.Is(err, os.ErrPermission):
		return fserrors.Wrap(err, fserrors.AccessDenied, "access denied: "+abs)
	default:
		return fserrors.Wrap(err, fserrors.IOError, "stat failed: "+abs)
	}
}

func classifyCreateErr(err error, callerPath string) error {
	switch {
	case errors.Is(err, os.ErrExist):
		return fserrors.New(fserrors.AlreadyExists, "already exists: "+callerPath)
	case errors.Is(err, os.ErrNotExist):
		return fserrors.New(fserrors.NotFound, "parent directory does not exist: "+callerPath)
	case errors.Is(err, os.ErrPermission):
		return fserrors.Wrap(err, fserrors.AccessDenied, "access denied: "+callerPath)
	default:
		return fserrors.Wrap(err, fserrors.IOError, "create failed: "+callerPath)
	}
}

func classifyAppendOpenErr(err error, callerPath string) error {
	switch {
	case errors.Is(err, os.ErrPermission):
		return fserrors.Wrap(err, fserrors.AccessDenied, "access denied: "+callerPath)
	case errors.Is(err, fs.ErrNotExist):
		return fserrors.New(fserrors.NotFound, "parent directory does not exist: "+callerPath)
	default:
		return fserrors.Wrap(err, fserrors.IOError, "append open failed: "+callerPath)
	}
}
