package testutil

import (
	"sync"
	"time"

	"anonchat/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu           sync.Mutex
	Requests     int
	CacheHits    int
	CacheMisses  int
	Sent         int
	Edited       int
	Deleted      int
	Throttled    int
	Persistences int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	m.Requests++
	m.mu.Unlock()
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	m.CacheHits++
	m.mu.Unlock()
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	m.CacheMisses++
	m.mu.Unlock()
}
func (m *MockMetrics) IncMessagesSent() {
	m.mu.Lock()
	m.Sent++
	m.mu.Unlock()
}
func (m *MockMetrics) IncMessagesEdited() {
	m.mu.Lock()
	m.Edited++
	m.mu.Unlock()
}
func (m *MockMetrics) IncMessagesDeleted() {
	m.mu.Lock()
	m.Deleted++
	m.mu.Unlock()
}
func (m *MockMetrics) IncThrottled() {
	m.mu.Lock()
	m.Throttled++
	m.mu.Unlock()
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	m.Persistences++
	m.mu.Unlock()
}

// SpyCache implements providers.CacheProviderInterface over a plain map
// and records deletions so tests can assert invalidation.
type SpyCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	Deleted []string
}

func NewSpyCache() *SpyCache {
	return &SpyCache{data: make(map[string][]byte)}
}

func (c *SpyCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *SpyCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func (c *SpyCache) Del(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.Deleted = append(c.Deleted, key)
}
