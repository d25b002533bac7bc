package kv

import (
	"context"
	"sync"

	"github.com/anisan-cli/anistream/filesystem"
	"github.com/metafates/gache"
)

// FileStore persists all keys as one JSON object on disk through gache.
type FileStore struct {
	internal *gache.Cache[map[string]string]
	mu       sync.RWMutex
}

// NewFileStore opens (lazily) the JSON file at path. Entries never expire.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		internal: gache.New[map[string]string](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, expired, err := f.internal.Get()
	if err != nil {
		return "", false, err
	}
	if expired || data == nil {
		return "", false, nil
	}

	v, ok := data[key]
	return v, ok, nil
}

// Set rewrites the file with key updated. A corrupt file is replaced rather than merged.
func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, expired, err := f.internal.Get()
	if err != nil || expired || data == nil {
		data = make(map[string]string)
	}

	data[key] = value
	return f.internal.Set(data)
}
