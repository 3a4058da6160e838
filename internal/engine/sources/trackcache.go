package sources

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/anatolykoptev/go_transcript/internal/engine/payload"
)

const (
	defaultTrackCacheSize = 64
	defaultTrackCacheTTL  = 10 * time.Minute
)

// TrackCache memoizes caption track lists per video id. It is bounded: inserting
// into a full cache evicts the entry closest to expiry.
type TrackCache struct {
	mu  sync.Mutex
	c   *cache.Cache
	max int
}

// NewTrackCache creates a cache of at most size entries living ttl each.
func NewTrackCache(size int, ttl time.Duration) *TrackCache {
	if size <= 0 {
		size = defaultTrackCacheSize
	}
	if ttl <= 0 {
		ttl = defaultTrackCacheTTL
	}
	return &TrackCache{c: cache.New(ttl, ttl), max: size}
}

// Get returns the cached tracks for videoID.
func (tc *TrackCache) Get(videoID string) ([]payload.CaptionTrack, bool) {
	if tc == nil {
		return nil, false
	}
	v, ok := tc.c.Get(videoID)
	if !ok {
		return nil, false
	}
	tracks, ok := v.([]payload.CaptionTrack)
	return tracks, ok
}

// Put stores a non-empty track list.
func (tc *TrackCache) Put(videoID string, tracks []payload.CaptionTrack) {
	if tc == nil || len(tracks) == 0 {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if _, exists := tc.c.Get(videoID); !exists && tc.c.ItemCount() >= tc.max {
		tc.evictOldest()
	}
	tc.c.SetDefault(videoID, tracks)
}

// Invalidate drops the entry for videoID.
func (tc *TrackCache) Invalidate(videoID string) {
	if tc == nil {
		return
	}
	tc.c.Delete(videoID)
}

// Len returns the number of cached entries, expired ones included until cleanup.
func (tc *TrackCache) Len() int {
	if tc == nil {
		return 0
	}
	return tc.c.ItemCount()
}

func (tc *TrackCache) evictOldest() {
	var (
		oldestKey string
		oldestExp int64
	)
	for k, item := range tc.c.Items() {
		if oldestKey == "" || item.Expiration < oldestExp {
			oldestKey, oldestExp = k, item.Expiration
		}
	}
	if oldestKey != "" {
		tc.c.Delete(oldestKey)
	}
}
