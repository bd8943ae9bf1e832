package system

import (
	"io/fs"
	"os"
	"path/filepath"
)

// VirtualFS is the read side of the filesystem documents and profiles are loaded from.
type VirtualFS interface {
	fs.FS
}

// WritableVirtualFS can also persist files.
type WritableVirtualFS interface {
	VirtualFS
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// FileSystem is the operating system filesystem. Names are OS paths, absolute or relative to the working directory.
type FileSystem struct{}

var (
	_ VirtualFS         = (*FileSystem)(nil)
	_ WritableVirtualFS = (*FileSystem)(nil)
)

func (fs *FileSystem) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// WriteFile writes data to name, creating missing parent directories.
func (fs *FileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if err := fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return os.WriteFile(name, data, perm)
}

func (fs *FileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
