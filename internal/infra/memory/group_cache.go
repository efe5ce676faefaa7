package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"greensys-quiz-service/internal/domain"
	"greensys-quiz-service/internal/quiz"
)

// GroupCache caches quiz-group payloads with TTL to avoid repeated
// backend hits. Content is shared across students, so the cache keys on
// the group ID alone; a miss is filled with the requesting student's
// token. Sessions copy the payload at load time, so a later refresh
// never changes a running attempt.
type GroupCache struct {
	source quiz.GroupSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedPayload
}

type cachedPayload struct {
	payload   domain.QuizPayload
	expiresAt time.Time
}

func NewGroupCache(source quiz.GroupSource, ttl time.Duration) *GroupCache {
	return &GroupCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPayload),
	}
}

func (c *GroupCache) FetchGroup(ctx context.Context, token, groupID string) (domain.QuizPayload, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[groupID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.payload, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(groupID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[groupID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.payload, nil
		}
		c.mu.RUnlock()

		payload, err := c.source.FetchGroup(ctx, token, groupID)
		if err != nil {
			return domain.QuizPayload{}, err
		}

		c.mu.Lock()
		c.cache[groupID] = cachedPayload{
			payload:   payload,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return payload, nil
	})
	if err != nil {
		return domain.QuizPayload{}, err
	}
	return result.(domain.QuizPayload), nil
}

func (c *GroupCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
