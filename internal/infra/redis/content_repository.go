package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"photosynthesis-lab/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ContentLoader fetches lab content from a backing store (e.g., Postgres).
type ContentLoader interface {
	LoadContent(ctx context.Context, contentID string) (domain.Content, error)
}

// ContentRepository caches content in Redis and falls back to a loader on a miss.
// Content is stored as one JSON document: SET lab:content:{contentID} {json} EX ttl
type ContentRepository struct {
	client *redis.Client
	loader ContentLoader
	ttl    time.Duration
	sf     singleflight.Group
	log    logrus.FieldLogger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewContentRepository(client *redis.Client, loader ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    logrus.WithField("component", "redis_content_cache"),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetLogger replaces the logger used for cache warnings.
func (r *ContentRepository) SetLogger(log logrus.FieldLogger) {
	r.log = log.WithField("component", "redis_content_cache")
}

func (r *ContentRepository) GetContent(ctx context.Context, contentID string) (domain.Content, error) {
	if content, ok := r.cached(ctx, contentID); ok {
		return content, nil
	}

	result, err, _ := r.sf.Do(contentID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if content, ok := r.cached(ctx, contentID); ok {
			return content, nil
		}

		content, err := r.loader.LoadContent(ctx, contentID)
		if err != nil {
			return domain.Content{}, err
		}
		if err := content.Validate(); err != nil {
			return domain.Content{}, fmt.Errorf("content %q: %w", contentID, err)
		}

		raw, err := json.Marshal(content)
		if err != nil {
			return domain.Content{}, fmt.Errorf("marshal content: %w", err)
		}
		if err := r.client.Set(ctx, r.key(contentID), raw, r.ttlWithJitter()).Err(); err != nil {
			// the loader already answered; a cold cache only costs the next request
			r.log.WithError(err).WithField("content_id", contentID).Warn("failed to cache content")
		}
		return content, nil
	})
	if err != nil {
		return domain.Content{}, err
	}
	return result.(domain.Content), nil
}

// Invalidate drops a cached document so the next read goes to the loader.
func (r *ContentRepository) Invalidate(ctx context.Context, contentID string) error {
	return r.client.Del(ctx, r.key(contentID)).Err()
}

func (r *ContentRepository) cached(ctx context.Context, contentID string) (domain.Content, bool) {
	raw, err := r.client.Get(ctx, r.key(contentID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.WithError(err).WithField("content_id", contentID).Warn("content cache read failed")
		}
		return domain.Content{}, false
	}
	var content domain.Content
	if err := json.Unmarshal(raw, &content); err != nil {
		r.log.WithError(err).WithField("content_id", contentID).Warn("discarding corrupt cached content")
		return domain.Content{}, false
	}
	if err := content.Validate(); err != nil {
		r.log.WithError(err).WithField("content_id", contentID).Warn("discarding invalid cached content")
		return domain.Content{}, false
	}
	return content, true
}

func (r *ContentRepository) key(contentID string) string {
	return "lab:content:" + contentID
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
