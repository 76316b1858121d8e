package storage

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"anonchat/internal/fingerprint"
	"anonchat/internal/providers"
	"anonchat/internal/structures"
)

const lockStripes = 64

// RateLimiter keeps one marker file per source address under
// <dir>/ratelimit; the marker's mtime is the last accepted send.
// Filenames are the fingerprint digest of the address, so addresses
// never appear on disk verbatim. Check-and-mark runs under a striped
// per-address lock: two simultaneous sends from one address cannot
// both pass the cooldown check.
type RateLimiter struct {
	dir      string
	cooldown time.Duration
	locks    [lockStripes]sync.Mutex
	logger   providers.Logger
}

type RateLimiterInterface interface {
	CheckAndMark(addr string) error
	Prune(ttl time.Duration) (int, error)
}

func NewRateLimiter(conf *structures.Config, logger providers.Logger) (RateLimiterInterface, error) {
	dir := filepath.Join(conf.Storage.Dir, "ratelimit")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &RateLimiter{
		dir:      dir,
		cooldown: conf.Chat.Cooldown,
		logger:   logger,
	}, nil
}

func (rl *RateLimiter) markerPath(addr string) string {
	return filepath.Join(rl.dir, "last_"+fingerprint.HashString(addr))
}

func (rl *RateLimiter) lockFor(addr string) *sync.Mutex {
	return &rl.locks[fingerprint.Sum32(addr)%lockStripes]
}

// CheckAndMark returns ErrThrottled when the address sent within the
// cooldown window, leaving the marker untouched; otherwise it touches
// the marker and admits the send.
func (rl *RateLimiter) CheckAndMark(addr string) error {
	lock := rl.lockFor(addr)
	lock.Lock()
	defer lock.Unlock()

	path := rl.markerPath(addr)
	if info, err := os.Stat(path); err == nil {
		if time.Since(info.ModTime()) < rl.cooldown {
			return ErrThrottled
		}
	}

	// touch: WriteFile refreshes mtime on an existing marker
	return os.WriteFile(path, nil, 0644)
}

// Prune removes markers idle longer than ttl. Markers accumulate one
// per distinct address forever otherwise; the scheduler calls this with
// a cooldown-scaled ttl.
func (rl *RateLimiter) Prune(ttl time.Duration) (int, error) {
	markers, err := filepath.Glob(filepath.Join(rl.dir, "last_*"))
	if err != nil {
		return 0, err
	}

	removed := 0
	cutoff := time.Now().Add(-ttl)
	for _, path := range markers {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
