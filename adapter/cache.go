package adapter

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/datamodel/dialect/sql"
)

// Cache stores encoded read results. Implementations may be backed by
// Redis, Memcached or memory; NewMemoryCache is the in-process one.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies a cached read.
type CacheKey struct {
	Table      string
	Operation  string
	Predicates string
	OrderBy    string
	Limit      int
	Offset     int
}

// String returns the string representation of the cache key. Keys of one
// table share the tablePrefix of the table.
func (k CacheKey) String() string {
	var b strings.Builder
	b.WriteString(tablePrefix(k.Table))
	b.WriteString(k.Operation)
	b.WriteByte(':')
	b.WriteString(k.Predicates)
	b.WriteByte(':')
	b.WriteString(k.OrderBy)
	if k.Limit > 0 || k.Offset > 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(k.Limit))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(k.Offset))
	}
	return b.String()
}

func tablePrefix(table string) string { return table + ":" }

// cachedTable is the encoded form of a sql.Table.
type cachedTable struct {
	Columns []string `msgpack:"c"`
	Rows    [][]any  `msgpack:"r"`
}

func encodeTable(t *sql.Table) ([]byte, error) {
	return msgpack.Marshal(cachedTable{Columns: t.Columns, Rows: t.Rows})
}

func decodeTable(b []byte) (*sql.Table, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	var ct cachedTable
	if err := dec.Decode(&ct); err != nil {
		return nil, err
	}
	t := sql.NewTable(ct.Columns...)
	for _, row := range ct.Rows {
		t.AddRow(row...)
	}
	return t, nil
}

// cached returns the value stored under key, or calls load and stores its
// result. The cache is bypassed inside a caller transaction, and cache
// failures only cost a reload.
func cached[V any](ctx context.Context, c *call, key CacheKey, load func() (V, error), enc func(V) ([]byte, error), dec func([]byte) (V, error)) (V, error) {
	cache := c.a.cache
	if cache == nil || c.tx != nil {
		return load()
	}
	k := key.String()
	if b, err := cache.Get(ctx, k); err == nil && b != nil {
		if v, err := dec(b); err == nil {
			return v, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if b, err := enc(v); err == nil {
		if err := cache.Set(ctx, k, b, c.a.ttl); err != nil {
			c.a.log.WarnContext(ctx, "datamodel: cache store failed", "key", k, "error", err)
		}
	}
	return v, nil
}

func encodeInt(n int) ([]byte, error) { return msgpack.Marshal(n) }

func decodeInt(b []byte) (n int, err error) {
	err = msgpack.Unmarshal(b, &n)
	return n, err
}

// MemoryCache is a Cache held in process memory.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, nil
	}
	return e.value, nil
}

// Set implements Cache.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// DeletePrefix implements Cache.
func (m *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Clear implements Cache.
func (m *MemoryCache) Clear(context.Context) error {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
