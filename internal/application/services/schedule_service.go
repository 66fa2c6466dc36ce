package services

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/githubixx/homeshop-go/internal/domain"
	"github.com/githubixx/homeshop-go/internal/ports"
)

// sharedFetchTimeout bounds a de-duplicated upstream call, which no longer
// follows any one caller's cancellation.
const sharedFetchTimeout = 30 * time.Second

// ScheduleService reads broadcasts and channels from the schedule API with caching
type ScheduleService struct {
	api ports.ScheduleAPI
	now func() time.Time

	cache       map[string]*broadcastCache
	cacheMu     sync.RWMutex
	cacheExpiry time.Duration
	// seq orders requests; floor is the last sequence number issued before
	// the most recent invalidation. Responses at or below floor are dropped.
	seq   atomic.Uint64
	floor uint64
	group singleflight.Group

	channelsMu        sync.RWMutex
	channelsCache     []domain.Channel
	channelsExpiresAt time.Time
	channelsExpiry    time.Duration
}

type broadcastCache struct {
	slots     []domain.BroadcastSlot
	seq       uint64
	expiresAt time.Time
}

// NewScheduleService creates a new schedule service
func NewScheduleService(api ports.ScheduleAPI, cacheExpiry, channelsExpiry time.Duration) *ScheduleService {
	return &ScheduleService{
		api:            api,
		now:            time.Now,
		cache:          make(map[string]*broadcastCache),
		cacheExpiry:    cacheExpiry,
		channelsExpiry: channelsExpiry,
	}
}

// SetNow replaces the clock used for cache expiry.
func (s *ScheduleService) SetNow(now func() time.Time) {
	s.cacheMu.Lock()
	s.now = now
	s.cacheMu.Unlock()
}

func (s *ScheduleService) clock() time.Time {
	s.cacheMu.RLock()
	now := s.now
	s.cacheMu.RUnlock()
	return now()
}

// ListBroadcasts returns the slots matching q. Cached entries are served until
// they expire; concurrent identical requests share one upstream call.
func (s *ScheduleService) ListBroadcasts(ctx context.Context, q domain.BroadcastQuery) ([]domain.BroadcastSlot, error) {
	key := q.Key()
	now := s.clock()

	s.cacheMu.RLock()
	if cached, ok := s.cache[key]; ok && now.Before(cached.expiresAt) {
		slots := slices.Clone(cached.slots)
		s.cacheMu.RUnlock()
		return slots, nil
	}
	s.cacheMu.RUnlock()

	// The shared call outlives any single caller; each caller stops waiting
	// when its own context ends.
	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return s.fetch(fctx, key, q)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]domain.BroadcastSlot)), nil
	}
}

// RefreshBroadcasts fetches q from the API regardless of the cache and
// stores the result.
func (s *ScheduleService) RefreshBroadcasts(ctx context.Context, q domain.BroadcastQuery) ([]domain.BroadcastSlot, error) {
	slots, err := s.fetch(ctx, q.Key(), q)
	if err != nil {
		return nil, err
	}
	return slices.Clone(slots), nil
}

func (s *ScheduleService) fetch(ctx context.Context, key string, q domain.BroadcastQuery) ([]domain.BroadcastSlot, error) {
	seq := s.seq.Add(1)
	slots, err := s.api.ListBroadcasts(ctx, q)
	if err != nil {
		return nil, err
	}
	s.store(key, seq, slots)
	return slots, nil
}

// store keeps the response unless a later request already wrote this key or
// the cache was invalidated after the request was issued.
func (s *ScheduleService) store(key string, seq uint64, slots []domain.BroadcastSlot) bool {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if seq <= s.floor {
		return false
	}
	if cached, ok := s.cache[key]; ok && cached.seq > seq {
		return false
	}
	s.cache[key] = &broadcastCache{
		slots:     slots,
		seq:       seq,
		expiresAt: s.now().Add(s.cacheExpiry),
	}
	return true
}

// ListChannels returns all channels, cached for the channels expiry.
func (s *ScheduleService) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	now := s.clock()
	s.channelsMu.RLock()
	if now.Before(s.channelsExpiresAt) && s.channelsCache != nil {
		cached := slices.Clone(s.channelsCache)
		s.channelsMu.RUnlock()
		return cached, nil
	}
	s.channelsMu.RUnlock()

	chs, err := s.api.ListChannels(ctx)
	if err != nil {
		return nil, err
	}

	s.channelsMu.Lock()
	s.channelsCache = chs
	s.channelsExpiresAt = now.Add(s.channelsExpiry)
	s.channelsMu.Unlock()

	return slices.Clone(chs), nil
}

// InvalidateCache drops all cached broadcasts and channels. Requests issued
// before the call can no longer populate the cache.
func (s *ScheduleService) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache = make(map[string]*broadcastCache)
	s.floor = s.seq.Load()
	s.cacheMu.Unlock()

	s.channelsMu.Lock()
	s.channelsCache = nil
	s.channelsExpiresAt = time.Time{}
	s.channelsMu.Unlock()
}
