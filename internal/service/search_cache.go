package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-sync-be/internal/dto"
	"notes-sync-be/internal/entity"
	"notes-sync-be/internal/mapper"
	"notes-sync-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// ISearchCache caches search results per query.
// Lookup returns the generation it observed; Store must be given that generation so a result
// computed before a write can never be cached under the post-write generation.
type ISearchCache interface {
	Lookup(ctx context.Context, query string) (notes []*entity.Note, generation int64, hit bool)
	Store(ctx context.Context, generation int64, query string, notes []*entity.Note)
	Invalidate(ctx context.Context)
}

const searchGenerationKey = "notes:search:gen"

type redisSearchCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	mapper *mapper.NoteMapper
	logger logger.ILogger
}

func NewRedisSearchCache(rdb *redis.Client, ttl time.Duration, log logger.ILogger) ISearchCache {
	return &redisSearchCache{
		rdb:    rdb,
		ttl:    ttl,
		mapper: mapper.NewNoteMapper(),
		logger: log,
	}
}

func searchKey(generation int64, query string) string {
	return fmt.Sprintf("notes:search:%d:%s", generation, strings.ToLower(query))
}

func (c *redisSearchCache) Lookup(ctx context.Context, query string) ([]*entity.Note, int64, bool) {
	generation, err := c.rdb.Get(ctx, searchGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("SearchCache", "Failed to read generation", map[string]interface{}{"error": err.Error()})
		return nil, -1, false
	}

	raw, err := c.rdb.Get(ctx, searchKey(generation, query)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("SearchCache", "Failed to read entry", map[string]interface{}{"error": err.Error()})
		}
		return nil, generation, false
	}

	var cached []*dto.NoteResponse
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, generation, false
	}
	return c.mapper.FromResponses(cached), generation, true
}

func (c *redisSearchCache) Store(ctx context.Context, generation int64, query string, notes []*entity.Note) {
	if generation < 0 {
		return
	}
	raw, err := json.Marshal(c.mapper.ToResponses(notes))
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, searchKey(generation, query), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("SearchCache", "Failed to store entry", map[string]interface{}{"error": err.Error()})
	}
}

// Invalidate bumps the generation; old entries become unreachable and expire on their own.
func (c *redisSearchCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, searchGenerationKey).Err(); err != nil {
		c.logger.Error("SearchCache", "Failed to invalidate search cache", map[string]interface{}{"error": err})
	}
}
