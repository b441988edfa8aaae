package penknot

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// documentBlock is the block name a saved document is stored under.
const documentBlock = "document.json"

// LibraryOptions configures the penknot library.
type LibraryOptions struct {
	// ColdStoragePath is a filesystem path for saved documents.
	ColdStoragePath string

	// ColdStorageBackend is a custom document store. It takes precedence
	// over ColdStoragePath. With neither set, documents are kept in memory.
	ColdStorageBackend ColdStorageInterface

	// FileSystem backs ColdStoragePath. Nil means the local file system.
	FileSystem FileSystemInterface

	// Editor is applied to every editor the library opens or loads.
	Editor Options
}

// Library manages open editors and the storage their documents are saved to.
type Library struct {
	coldStorage ColdStorageInterface
	options     Options

	active map[string]*Editor
	mu     sync.RWMutex
}

// Init initializes the library with its storage options.
func Init(options LibraryOptions) (*Library, error) {
	lib := &Library{
		coldStorage: options.ColdStorageBackend,
		options:     options.Editor,
		active:      make(map[string]*Editor),
	}

	if lib.coldStorage == nil {
		switch {
		case options.ColdStoragePath != "":
			fsys := options.FileSystem
			if fsys == nil {
				fsys = &localFileSystem{}
			}
			lib.coldStorage = newFSColdStorage(fsys, options.ColdStoragePath)
		default:
			lib.coldStorage = NewMemoryColdStorage()
		}
	}
	return lib, nil
}

// Open creates an empty editor with a fresh document id.
func (lib *Library) Open() *Editor {
	e := New(lib.options)
	e.lib = lib
	e.id = uuid.NewString()
	lib.register(e)
	return e
}

func (lib *Library) register(e *Editor) {
	lib.mu.Lock()
	lib.active[e.id] = e
	lib.mu.Unlock()
}

// Save writes the editor's document to cold storage under its id.
func (lib *Library) Save(e *Editor) error {
	if lib.coldStorage == nil {
		return ErrNoColdStorage
	}
	doc, err := e.Snapshot()
	if err != nil {
		return err
	}
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	if err := lib.coldStorage.Set(e.id, documentBlock, data); err != nil {
		return fmt.Errorf("save %s: %w", e.id, err)
	}
	e.logger.Info("document saved", "document", e.id, "bytes", len(data))
	return nil
}

// Load reads a saved document into a new editor registered under id.
func (lib *Library) Load(id string) (*Editor, error) {
	if lib.coldStorage == nil {
		return nil, ErrNoColdStorage
	}
	data, err := lib.coldStorage.Get(id, documentBlock)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}

	e := New(lib.options)
	e.lib = lib
	e.id = id
	if err := e.Restore(doc); err != nil {
		return nil, err
	}
	lib.register(e)
	return e, nil
}

// Delete removes a saved document from cold storage.
func (lib *Library) Delete(id string) error {
	if lib.coldStorage == nil {
		return ErrNoColdStorage
	}
	if err := lib.coldStorage.Delete(id, documentBlock); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return err
	}
	if fc, ok := lib.coldStorage.(interface{ DeleteFolder(string) error }); ok {
		return fc.DeleteFolder(id)
	}
	return nil
}

// Documents returns the ids of the open editors.
func (lib *Library) Documents() []string {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	ids := make([]string, 0, len(lib.active))
	for id := range lib.active {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Editor returns an open editor by document id.
func (lib *Library) Editor(id string) (*Editor, bool) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	e, ok := lib.active[id]
	return e, ok
}
