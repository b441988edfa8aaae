package penknot

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ColdStorageInterface allows custom document storage implementations.
type ColdStorageInterface interface {
	// Set stores data for a block within a folder.
	// Folder names are unique per document.
	Set(folder, block string, data []byte) error

	// Get retrieves data for a block within a folder. A missing block is
	// reported with an error matching fs.ErrNotExist.
	Get(folder, block string) ([]byte, error)

	// Delete removes a block from a folder. A missing block is reported
	// with an error matching fs.ErrNotExist.
	Delete(folder, block string) error
}

// FileSystemInterface abstracts the file operations cold storage needs.
// The library provides a default implementation for local files.
type FileSystemInterface interface {
	WriteFile(name string, data []byte) error
	ReadFile(name string) ([]byte, error)

	MkdirAll(path string) error
	Remove(name string) error
	Rmdir(path string) error // Only removes empty directories
}

// localFileSystem implements FileSystemInterface for local files.
type localFileSystem struct{}

func (lfs *localFileSystem) WriteFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0644)
}

func (lfs *localFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (lfs *localFileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (lfs *localFileSystem) Remove(name string) error {
	return os.Remove(name)
}

func (lfs *localFileSystem) Rmdir(path string) error {
	// os.Remove only removes empty directories when given a directory path
	return os.Remove(path)
}

// fsColdStorage implements ColdStorageInterface using a FileSystemInterface.
type fsColdStorage struct {
	fs       FileSystemInterface
	basePath string
}

// newFSColdStorage creates a ColdStorageInterface backed by a FileSystemInterface.
func newFSColdStorage(fsys FileSystemInterface, basePath string) *fsColdStorage {
	return &fsColdStorage{fs: fsys, basePath: basePath}
}

func (cs *fsColdStorage) Set(folder, block string, data []byte) error {
	dir := filepath.Join(cs.basePath, folder)
	if err := cs.fs.MkdirAll(dir); err != nil {
		return err
	}
	return cs.fs.WriteFile(filepath.Join(dir, block), data)
}

func (cs *fsColdStorage) Get(folder, block string) ([]byte, error) {
	return cs.fs.ReadFile(filepath.Join(cs.basePath, folder, block))
}

func (cs *fsColdStorage) Delete(folder, block string) error {
	return cs.fs.Remove(filepath.Join(cs.basePath, folder, block))
}

// DeleteFolder removes an empty folder from cold storage.
func (cs *fsColdStorage) DeleteFolder(folder string) error {
	return cs.fs.Rmdir(filepath.Join(cs.basePath, folder))
}

// MemoryColdStorage keeps blocks in process memory.
type MemoryColdStorage struct {
	mu     sync.RWMutex
	blocks map[string][]byte
}

// NewMemoryColdStorage returns an empty in-memory store.
func NewMemoryColdStorage() *MemoryColdStorage {
	return &MemoryColdStorage{blocks: make(map[string][]byte)}
}

func memoryKey(folder, block string) string {
	return folder + "/" + block
}

func (m *MemoryColdStorage) Set(folder, block string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[memoryKey(folder, block)] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryColdStorage) Get(folder, block string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blocks[memoryKey(folder, block)]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", folder, block, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryColdStorage) Delete(folder, block string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey(folder, block)
	if _, ok := m.blocks[k]; !ok {
		return fmt.Errorf("%s/%s: %w", folder, block, fs.ErrNotExist)
	}
	delete(m.blocks, k)
	return nil
}
