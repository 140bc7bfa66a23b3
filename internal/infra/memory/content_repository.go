package memory

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"photosynthesis-lab/internal/domain"

	"golang.org/x/sync/singleflight"
)

// ContentLoader fetches lab content from a backing store (Postgres, YAML file, ...).
type ContentLoader interface {
	LoadContent(ctx context.Context, contentID string) (domain.Content, error)
}

// ContentRepository caches content with TTL to avoid repeated loader hits.
type ContentRepository struct {
	loader ContentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedContent
}

type cachedContent struct {
	content   domain.Content
	expiresAt time.Time
}

func NewContentRepository(loader ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedContent),
	}
}

func (r *ContentRepository) GetContent(ctx context.Context, contentID string) (domain.Content, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[contentID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.content, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(contentID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[contentID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.content, nil
		}
		r.mu.RUnlock()

		content, err := r.loader.LoadContent(ctx, contentID)
		if err != nil {
			return domain.Content{}, err
		}
		if err := content.Validate(); err != nil {
			return domain.Content{}, fmt.Errorf("content %q: %w", contentID, err)
		}

		r.mu.Lock()
		r.cache[contentID] = cachedContent{
			content:   content,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return content, nil
	})
	if err != nil {
		return domain.Content{}, err
	}
	return result.(domain.Content), nil
}

// StaticContentLoader is a loader backed by an in-memory map (defaults, tests, demos).
type StaticContentLoader struct {
	contents map[string]domain.Content
}

func NewStaticContentLoader(contents map[string]domain.Content) *StaticContentLoader {
	return &StaticContentLoader{contents: contents}
}

// NewDefaultContentLoader serves only the built-in photosynthesis content.
func NewDefaultContentLoader() *StaticContentLoader {
	def := domain.DefaultContent()
	return NewStaticContentLoader(map[string]domain.Content{def.ID: def})
}

func (l *StaticContentLoader) LoadContent(_ context.Context, contentID string) (domain.Content, error) {
	if content, ok := l.contents[contentID]; ok {
		return content, nil
	}
	return domain.Content{}, domain.ErrContentNotFound
}

// FallbackLoader asks each loader in turn until one knows the content.
// Errors other than domain.ErrContentNotFound stop the search.
type FallbackLoader []ContentLoader

func (f FallbackLoader) LoadContent(ctx context.Context, contentID string) (domain.Content, error) {
	for _, l := range f {
		content, err := l.LoadContent(ctx, contentID)
		if errors.Is(err, domain.ErrContentNotFound) {
			continue
		}
		return content, err
	}
	return domain.Content{}, domain.ErrContentNotFound
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
