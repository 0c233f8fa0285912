package service

import (
	"context"
	"encoding/json"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/pkg/logger"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	workloadCacheKey      = "review:mentor_workloads"
	workloadGenerationKey = "review:mentor_workloads:gen"
)

// SummaryCache 工作量快照缓存，缓存失败不影响主流程
// 每次 Invalidate 都会推进代数，SetWorkloads 只在代数未变化时写入，
// 避免读取期间发生的写操作被旧快照覆盖
type SummaryCache interface {
	GetWorkloads(ctx context.Context) ([]model.MentorWorkload, bool)
	Generation(ctx context.Context) int64
	SetWorkloads(ctx context.Context, generation int64, workloads []model.MentorWorkload)
	Invalidate(ctx context.Context)
}

// RedisSummaryCache 基于 Redis 的快照缓存
type RedisSummaryCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

// NewRedisSummaryCache Redis 未启用时返回 nil，调用方直接跳过缓存
func NewRedisSummaryCache(rdb *redis.Client, ttl time.Duration) SummaryCache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &RedisSummaryCache{Redis: rdb, TTL: ttl}
}

func (c *RedisSummaryCache) GetWorkloads(ctx context.Context) ([]model.MentorWorkload, bool) {
	val, err := c.Redis.Get(ctx, workloadCacheKey).Result()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		logger.Log.Warn("读取工作量缓存失败", zap.Error(err))
		return nil, false
	}

	var workloads []model.MentorWorkload
	if err := json.Unmarshal([]byte(val), &workloads); err != nil {
		logger.Log.Warn("工作量缓存内容无法解析", zap.Error(err))
		return nil, false
	}
	return workloads, true
}

func (c *RedisSummaryCache) Generation(ctx context.Context) int64 {
	gen, err := c.Redis.Get(ctx, workloadGenerationKey).Int64()
	if err != nil && err != redis.Nil {
		logger.Log.Warn("读取工作量缓存代数失败", zap.Error(err))
		return -1
	}
	return gen
}

func (c *RedisSummaryCache) SetWorkloads(ctx context.Context, generation int64, workloads []model.MentorWorkload) {
	if generation < 0 {
		return
	}
	data, err := json.Marshal(workloads)
	if err != nil {
		return
	}
	err = c.Redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, workloadGenerationKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, workloadCacheKey, data, c.TTL)
			return nil
		})
		return err
	}, workloadGenerationKey)
	if err != nil && err != redis.TxFailedErr {
		logger.Log.Warn("写入工作量缓存失败", zap.Error(err))
	}
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context) {
	_, err := c.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, workloadGenerationKey)
		pipe.Del(ctx, workloadCacheKey)
		return nil
	})
	if err != nil {
		logger.Log.Warn("清除工作量缓存失败", zap.Error(err))
	}
}

// LocalSummaryCache 进程内快照缓存，单实例部署且未启用 Redis 时使用
type LocalSummaryCache struct {
	mu         sync.Mutex
	generation int64
	cache      *cache.Cache
}

func NewLocalSummaryCache(ttl time.Duration) SummaryCache {
	if ttl <= 0 {
		return nil
	}
	return &LocalSummaryCache{cache: cache.New(ttl, ttl*2)}
}

func (c *LocalSummaryCache) GetWorkloads(ctx context.Context) ([]model.MentorWorkload, bool) {
	cached, found := c.cache.Get(workloadCacheKey)
	if !found {
		return nil, false
	}
	workloads, ok := cached.([]model.MentorWorkload)
	if !ok {
		return nil, false
	}
	// 返回副本，调用方修改不会污染缓存
	return append([]model.MentorWorkload(nil), workloads...), true
}

func (c *LocalSummaryCache) Generation(ctx context.Context) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *LocalSummaryCache) SetWorkloads(ctx context.Context, generation int64, workloads []model.MentorWorkload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.cache.Set(workloadCacheKey, append([]model.MentorWorkload(nil), workloads...), cache.DefaultExpiration)
}

func (c *LocalSummaryCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.cache.Delete(workloadCacheKey)
}

// NewSummaryCache 优先使用 Redis，未启用时退回进程内缓存
func NewSummaryCache(rdb *redis.Client, ttl time.Duration) SummaryCache {
	if c := NewRedisSummaryCache(rdb, ttl); c != nil {
		return c
	}
	return NewLocalSummaryCache(ttl)
}
