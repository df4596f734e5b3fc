// =============================================================================
// iDoklad to Fakturoid - Local Cache
// =============================================================================
//
// A small key-value table persisted in a single YAML file. It exists to
// avoid refetching data that rarely changes (the Fakturoid subject list)
// on every run, since Fakturoid limits the number of API requests.
//
// LIFECYCLE:
//   - Load once at start. A missing file is an empty cache. A file that
//     cannot be read or decoded is also an empty cache, reported as a
//     non-fatal *LoadError.
//   - Populate lazily through Remember, which saves immediately.
//   - Entries never expire. Delete the file (or run "cache clear") to
//     force a refetch.
//
// FILE FORMAT:
//   fakturoid_subjects:
//     - id: 11
//       name: Alpha s.r.o.
//       registration_no: "12345678"
//       vat_no: CZ12345678
//
// Single process, single goroutine: there is no locking.
//
// =============================================================================

package cache

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/idoklad2fakturoid/pkg/utils"
)

// DefaultPath is the cache file used when none is configured.
const DefaultPath = "idoklad2fakturoid.cache"

// SubjectsKey holds the Fakturoid subject list.
const SubjectsKey = "fakturoid_subjects"

// LoadError reports an unreadable or corrupt cache file. The cache is empty
// afterwards and the run can continue.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cache load failed: %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Cache is the on-disk key-value table.
type Cache struct {
	path    string
	entries map[string]yaml.Node
	logger  *zap.Logger
}

// New creates an empty cache bound to path. Call Load to read the file.
func New(path string, logger *zap.Logger) *Cache {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		path:    path,
		entries: make(map[string]yaml.Node),
		logger:  logger.Named("cache"),
	}
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Load replaces the in-memory table with the file contents.
//
// RETURNS:
//   - nil if the file was loaded or does not exist.
//   - *LoadError if the file exists but cannot be used. The table is empty.
func (c *Cache) Load() error {
	c.entries = make(map[string]yaml.Node)

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Debug("no cache file", zap.String("path", c.path))
		return nil
	}
	if err != nil {
		return &LoadError{Path: c.path, Err: err}
	}

	var entries map[string]yaml.Node
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return &LoadError{Path: c.path, Err: err}
	}
	if entries != nil {
		c.entries = entries
	}

	c.logger.Debug("cache loaded", zap.String("path", c.path), zap.Strings("keys", c.Keys()))
	return nil
}

// Save writes the whole table to the cache file, replacing it atomically.
func (c *Cache) Save() error {
	data, err := yaml.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := utils.WriteFileAtomic(c.path, data, 0o600); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}

	c.logger.Debug("cache saved", zap.String("path", c.path), zap.Int("bytes", len(data)))
	return nil
}

// Remove deletes the cache file and empties the table.
func (c *Cache) Remove() error {
	c.entries = make(map[string]yaml.Node)
	if err := utils.RemoveIfExists(c.path); err != nil {
		return fmt.Errorf("remove cache: %w", err)
	}
	return nil
}

// =============================================================================
// ENTRIES
// =============================================================================

// Has reports whether key is present.
func (c *Cache) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Keys returns the stored keys in sorted order.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Get decodes the value stored under key into out.
//
// RETURNS:
//   - false, nil if the key is absent.
//   - true, nil if the value was decoded.
//   - true, err if the stored value does not fit out.
func (c *Cache) Get(key string, out any) (bool, error) {
	node, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if err := node.Decode(out); err != nil {
		return true, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key. It does not save the file.
func (c *Cache) Set(key string, value any) error {
	var node yaml.Node
	if err := node.Encode(value); err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	c.entries[key] = node
	return nil
}

// Remember returns the value under key, calling fetch on a miss. A fetched
// value is stored and saved to disk before it is returned, so a later crash
// does not lose it. An entry that no longer decodes is treated as a miss.
func Remember[T any](c *Cache, key string, fetch func() (T, error)) (T, error) {
	var value T

	found, err := c.Get(key, &value)
	if found && err == nil {
		return value, nil
	}
	if err != nil {
		c.logger.Warn("discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
	}

	value, err = fetch()
	if err != nil {
		var zero T
		return zero, err
	}

	if err := c.Set(key, value); err != nil {
		return value, err
	}
	if err := c.Save(); err != nil {
		return value, err
	}

	return value, nil
}
