// Package env is the file I/O capability set the storage engine is written against. Every file the
// engine touches is created, read, and removed through an Env, so the engine never assumes a
// particular backing medium: production code runs on the operating system's filesystem and tests
// run on an in-memory filesystem with identical semantics.
package env

import (
	"io"
	"os"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"
)

type Env interface {
	// MakeWriteOnlyIO creates (or truncates) the file at path and opens it for appending.
	MakeWriteOnlyIO(path string) (WritableFile, error)
	// MakeReadOnlyIO opens an existing file for positioned reads.
	MakeReadOnlyIO(path string) (ReadableFile, error)
	RemoveFile(path string) error

	// List returns the base names of the entries in dir.
	List(dir string) ([]string, error)
	Stat(path string) (os.FileInfo, error)
	MkdirAll(dir string) error
	PathJoin(elem ...string) string
}

type WritableFile interface {
	io.Writer
	Sync() error
	Close() error
	FileName() string
}

// ReadableFile supports concurrent ReadAt calls at different offsets.
type ReadableFile interface {
	io.ReaderAt
	Close() error
	FileName() string
	Size() uint64
}

var _ Env = (*FSEnv)(nil)

// FSEnv implements Env on top of a pebble virtual filesystem.
type FSEnv struct {
	fs vfs.FS
}

func New(fs vfs.FS) *FSEnv {
	return &FSEnv{fs: fs}
}

// Default returns an Env backed by the operating system.
func Default() *FSEnv {
	return New(vfs.Default)
}

// NewMem returns an Env backed by a fresh in-memory filesystem.
func NewMem() *FSEnv {
	return New(vfs.NewMem())
}

func (me *FSEnv) FS() vfs.FS {
	return me.fs
}

func (me *FSEnv) MakeWriteOnlyIO(path string) (WritableFile, error) {
	file, err := me.fs.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %q", path)
	}
	return &writableFile{file: file, path: path}, nil
}

func (me *FSEnv) MakeReadOnlyIO(path string) (ReadableFile, error) {
	file, err := me.fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", path)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "failed to stat %q", path)
	}

	return &readableFile{file: file, path: path, size: uint64(info.Size())}, nil
}

func (me *FSEnv) RemoveFile(path string) error {
	if err := me.fs.Remove(path); err != nil {
		return errors.Wrapf(err, "failed to remove %q", path)
	}
	return nil
}

func (me *FSEnv) List(dir string) ([]string, error) {
	names, err := me.fs.List(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %q", dir)
	}
	return names, nil
}

func (me *FSEnv) Stat(path string) (os.FileInfo, error) {
	return me.fs.Stat(path)
}

func (me *FSEnv) MkdirAll(dir string) error {
	if err := me.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %q", dir)
	}
	return nil
}

func (me *FSEnv) PathJoin(elem ...string) string {
	return me.fs.PathJoin(elem...)
}

type writableFile struct {
	file vfs.File
	path string
}

func (me *writableFile) Write(b []byte) (int, error) {
	n, err := me.file.Write(b)
	if err != nil {
		return n, errors.Wrapf(err, "failed to write %q", me.path)
	}
	if n != len(b) {
		return n, errors.Wrapf(io.ErrShortWrite, "failed to write %q", me.path)
	}
	return n, nil
}

func (me *writableFile) Sync() error {
	if err := me.file.Sync(); err != nil {
		return errors.Wrapf(err, "failed to sync %q", me.path)
	}
	return nil
}

func (me *writableFile) Close() error {
	return me.file.Close()
}

func (me *writableFile) FileName() string {
	return me.path
}

type readableFile struct {
	file vfs.File
	path string
	size uint64
}

func (me *readableFile) ReadAt(b []byte, offset int64) (int, error) {
	return me.file.ReadAt(b, offset)
}

func (me *readableFile) Close() error {
	return me.file.Close()
}

func (me *readableFile) FileName() string {
	return me.path
}

func (me *readableFile) Size() uint64 {
	return me.size
}
