package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/cache"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

type dashboardService struct {
	repo   repositories.Repository
	logger *slog.Logger
	cache  *cache.CacheManager
}

func NewDashboardService(deps Dependencies) DashboardService {
	return &dashboardService{
		repo:   deps.Repo,
		logger: deps.Logger,
		cache:  deps.Cache,
	}
}

// GetStats returns the admin overview counts, cached briefly
func (s *dashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	err := s.cache.Stats.CacheOrExecute(ctx, cache.StatsKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return s.countAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *dashboardService) countAll(ctx context.Context) (*DashboardStats, error) {
	active := true
	stats := &DashboardStats{GeneratedAt: auth.NowFunc().UTC()}

	counters := []struct {
		name  string
		dest  *int64
		count func() (int64, error)
	}{
		{"students", &stats.Students, func() (int64, error) {
			return s.repo.Student().Count(ctx, repositories.StudentFilters{})
		}},
		{"active students", &stats.ActiveStudents, func() (int64, error) {
			return s.repo.Student().Count(ctx, repositories.StudentFilters{IsActive: &active})
		}},
		{"exams", &stats.Exams, func() (int64, error) { return s.repo.Exam().Count(ctx) }},
		{"videos", &stats.Videos, func() (int64, error) { return s.repo.Video().Count(ctx) }},
		{"free videos", &stats.FreeVideos, func() (int64, error) { return s.repo.FreeVideo().Count(ctx) }},
		{"results", &stats.Results, func() (int64, error) { return s.repo.Result().Count(ctx) }},
	}
	for _, c := range counters {
		n, err := c.count()
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
		*c.dest = n
	}

	s.logger.DebugContext(ctx, "Dashboard stats computed", "students", stats.Students, "results", stats.Results)
	return stats, nil
}
