package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

func VideoListKey(grade int) string     { return fmt.Sprintf("grade:%d", grade) }
func ExamListKey(grade int) string      { return fmt.Sprintf("grade:%d:active", grade) }
func FreeVideoListKey(limit int) string { return fmt.Sprintf("list:%d", limit) }

const StatsKey = "overview"

// InvalidateVideoCache drops every cached video list. A video may move between
// grades on update, so all grades are cleared.
func InvalidateVideoCache(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Video, "grade:*")
}

// InvalidateExamCache drops every cached exam list.
func InvalidateExamCache(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Exam, "grade:*")
}

func InvalidateFreeVideoCache(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.FreeVideo, "list:*")
}

// InvalidateStatsCache drops the admin overview so the next read recounts.
func InvalidateStatsCache(ctx context.Context, cm *CacheManager) {
	SafeDelete(ctx, cm.Stats, StatsKey)
}
