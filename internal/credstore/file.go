package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileEntry is one stored credential on disk
type fileEntry struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// fileContents is the on-disk layout of a credentials file
type fileContents struct {
	Services map[string]fileEntry `json:"services"`
}

// FileStore keeps credentials in a JSON file readable only by the owner.
// Every write rewrites the whole file through a temp file and rename, so a
// reader never sees half of a pair.
type FileStore struct {
	path string
	mu   sync.Mutex
	log  *slog.Logger
}

// NewFileStore creates a file-backed store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		log:  slog.Default().With(slog.String("component", "credstore-file")),
	}
}

// DefaultFilePath returns the credentials file for a named CLI context
func DefaultFilePath(contextName string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "shopfeed")
	filename := fmt.Sprintf("credentials-%s.json", contextName)
	return filepath.Join(configDir, filename), nil
}

// Path returns the file backing this store
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value for service
func (f *FileStore) Get(ctx context.Context, service string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.load()
	if err != nil {
		return "", &StoreError{Op: "get", Service: service, Err: err}
	}

	entry, ok := contents.Services[service]
	if !ok || entry.Value == "" {
		return "", ErrNotFound
	}
	return entry.Value, nil
}

// Set stores value for service
func (f *FileStore) Set(ctx context.Context, service, value string) error {
	return f.update("set", service, func(c *fileContents) {
		c.Services[service] = fileEntry{Value: value, UpdatedAt: time.Now().UTC()}
	})
}

// SetPair replaces the access/refresh pair in one file write
func (f *FileStore) SetPair(ctx context.Context, access, refresh string) error {
	return f.update("set", ServiceAccessToken+"+"+ServiceRefreshToken, func(c *fileContents) {
		now := time.Now().UTC()
		c.Services[ServiceAccessToken] = fileEntry{Value: access, UpdatedAt: now}
		c.Services[ServiceRefreshToken] = fileEntry{Value: refresh, UpdatedAt: now}
	})
}

// Clear removes service. The file itself is removed once it is empty.
func (f *FileStore) Clear(ctx context.Context, service string) error {
	return f.update("clear", service, func(c *fileContents) {
		delete(c.Services, service)
	})
}

func (f *FileStore) update(op, service string, mutate func(*fileContents)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.load()
	if err != nil {
		return &StoreError{Op: op, Service: service, Err: err}
	}

	mutate(contents)

	if len(contents.Services) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return &StoreError{Op: op, Service: service, Err: err}
		}
		return nil
	}

	if err := f.save(contents); err != nil {
		return &StoreError{Op: op, Service: service, Err: err}
	}
	return nil
}

// load reads the file; a missing file is an empty store
func (f *FileStore) load() (*fileContents, error) {
	contents := &fileContents{Services: make(map[string]fileEntry)}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return contents, nil
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	if err := json.Unmarshal(data, contents); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	if contents.Services == nil {
		contents.Services = make(map[string]fileEntry)
	}
	return contents, nil
}

func (f *FileStore) save(contents *fileContents) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmp, f.path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			f.log.Warn("failed to remove temp credentials file",
				slog.String("path", tmp),
				slog.String("error", removeErr.Error()))
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
