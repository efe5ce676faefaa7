package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"greensys-quiz-service/internal/domain"
	"greensys-quiz-service/internal/quiz"
)

// GroupCache caches quiz-group payloads in Redis and falls back to the
// underlying source on a miss. The whole payload is stored as one JSON
// value under quiz:group:{groupID}; the engine needs prompts and options,
// not just answer keys, so a hash of answers alone would not do.
type GroupCache struct {
	client *redis.Client
	source quiz.GroupSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewGroupCache(client *redis.Client, source quiz.GroupSource, ttl time.Duration) *GroupCache {
	return &GroupCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *GroupCache) FetchGroup(ctx context.Context, token, groupID string) (domain.QuizPayload, error) {
	key := c.key(groupID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var payload domain.QuizPayload
		if err := json.Unmarshal(raw, &payload); err == nil {
			return payload, nil
		}
		// Corrupt entry; drop it and refill below.
		_ = c.client.Del(ctx, key).Err()
	}

	result, err, _ := c.sf.Do(groupID, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var payload domain.QuizPayload
			if err := json.Unmarshal(raw, &payload); err == nil {
				return payload, nil
			}
		}

		payload, err := c.source.FetchGroup(ctx, token, groupID)
		if err != nil {
			return domain.QuizPayload{}, err
		}

		if data, err := json.Marshal(payload); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return payload, nil
	})
	if err != nil {
		return domain.QuizPayload{}, err
	}
	return result.(domain.QuizPayload), nil
}

func (c *GroupCache) key(groupID string) string {
	return "quiz:group:" + groupID
}

func (c *GroupCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
