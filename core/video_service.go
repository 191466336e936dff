package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"pathway-gateway/core/failover"
)

// flightTimeout 共享上游调用的总时限，与任一调用方的 ctx 无关
const flightTimeout = 2 * time.Minute

// VideoResult 视频搜索结果
type VideoResult struct {
	VideoID string
	Cached  bool
}

// VideoSearchService 带缓存的 YouTube 搜索
// 命中缓存时完全不访问上游，也不推进 Key 游标
type VideoSearchService struct {
	cache    ResultCache
	searcher VideoSearcher
	failover *failover.Failover
	logger   *logrus.Logger

	// 同一 query 的并发未命中只调用一次上游
	flight singleflight.Group
}

// NewVideoSearchService cache 可为 nil (不缓存)
func NewVideoSearchService(cache ResultCache, searcher VideoSearcher, fo *failover.Failover, logger *logrus.Logger) *VideoSearchService {
	return &VideoSearchService{
		cache:    cache,
		searcher: searcher,
		failover: fo,
		logger:   logger,
	}
}

// Search 查询缓存，未命中时轮换 Key 调用上游，成功后写入缓存
// 上游返回空结果时返回 ErrNoResult，且不写缓存
func (s *VideoSearchService) Search(ctx context.Context, query string) (VideoResult, error) {
	if query == "" {
		return VideoResult{}, ErrEmptyQuery
	}

	if s.cache != nil {
		videoID, found, err := s.cache.Lookup(ctx, query)
		if err != nil {
			return VideoResult{}, fmt.Errorf("%w: lookup %q: %w", ErrStorage, query, err)
		}
		if found {
			s.logger.WithField("query", query).Infof("✅ CACHE HIT for %q. Video ID: %s", query, videoID)
			return VideoResult{VideoID: videoID, Cached: true}, nil
		}
		s.logger.WithField("query", query).Infof("❌ CACHE MISS for %q. Fetching from YouTube API...", query)
	}

	// 共享调用脱离发起者的取消信号，每个调用方只等待自己的 ctx
	ch := s.flight.DoChan(query, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return s.fetchAndStore(fctx, query)
	})

	select {
	case <-ctx.Done():
		return VideoResult{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return VideoResult{}, r.Err
		}
		if r.Shared {
			s.logger.WithField("query", query).Debug("Joined in-flight YouTube search")
		}
		return VideoResult{VideoID: r.Val.(string)}, nil
	}
}

// fetchAndStore 轮换 Key 调用上游，非空结果写入缓存
func (s *VideoSearchService) fetchAndStore(ctx context.Context, query string) (string, error) {
	videoID, err := failover.Invoke(ctx, s.failover, func(ctx context.Context, key string) (string, error) {
		return s.searcher.SearchVideo(ctx, key, query)
	})
	if err != nil {
		return "", err
	}

	if videoID == "" {
		s.logger.WithField("query", query).Info("YouTube returned no video")
		return "", ErrNoResult
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, query, videoID); err != nil {
			return "", fmt.Errorf("%w: store %q: %w", ErrStorage, query, err)
		}
		s.logger.WithField("query", query).Infof("💾 Saved to cache: %q -> %s", query, videoID)
	}
	return videoID, nil
}
