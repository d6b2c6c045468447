package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/mohammedtarek206/elamid/internal/cache"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

type VideoPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewVideoPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.VideoRepository {
	return &VideoPostgreSQL{db: db, cacheManager: cacheManager}
}

func (v *VideoPostgreSQL) Create(ctx context.Context, video *models.Video) error {
	if err := v.db.WithContext(ctx).Create(video).Error; err != nil {
		return translateError("create video", err)
	}
	cache.InvalidateVideoCache(ctx, v.cacheManager)
	return nil
}

func (v *VideoPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	var video models.Video
	if err := v.db.WithContext(ctx).First(&video, id).Error; err != nil {
		return nil, translateError("get video", err)
	}
	return &video, nil
}

func (v *VideoPostgreSQL) Update(ctx context.Context, video *models.Video) error {
	res := v.db.WithContext(ctx).
		Model(video).
		Select("title", "grade", "unit", "lesson", "dailymotion_id", "views", "updated_at").
		Updates(video)
	if err := affected("update video", res); err != nil {
		return err
	}
	cache.InvalidateVideoCache(ctx, v.cacheManager)
	return nil
}

func (v *VideoPostgreSQL) Delete(ctx context.Context, id uint) error {
	if err := affected("delete video", v.db.WithContext(ctx).Delete(&models.Video{}, id)); err != nil {
		return err
	}
	cache.InvalidateVideoCache(ctx, v.cacheManager)
	return nil
}

// List caches the grade-scoped lists students read; the unscoped admin list
// always goes to the database.
func (v *VideoPostgreSQL) List(ctx context.Context, grade *models.Grade) ([]*models.Video, error) {
	if grade == nil {
		return v.list(ctx, nil)
	}

	var videos []*models.Video
	err := v.cacheManager.Video.CacheOrExecute(ctx, cache.VideoListKey(int(*grade)), &videos, cache.VideoCacheConfig.TTL, func() (interface{}, error) {
		return v.list(ctx, grade)
	})
	if err != nil {
		return nil, err
	}
	return videos, nil
}

func (v *VideoPostgreSQL) list(ctx context.Context, grade *models.Grade) ([]*models.Video, error) {
	query := v.db.WithContext(ctx)
	if grade != nil {
		query = query.Where("grade = ?", *grade)
	}
	videos := make([]*models.Video, 0)
	if err := query.Order("created_at DESC, id DESC").Find(&videos).Error; err != nil {
		return nil, translateError("list videos", err)
	}
	return videos, nil
}

func (v *VideoPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := v.db.WithContext(ctx).Model(&models.Video{}).Count(&count).Error; err != nil {
		return 0, translateError("count videos", err)
	}
	return count, nil
}

type FreeVideoPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewFreeVideoPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.FreeVideoRepository {
	return &FreeVideoPostgreSQL{db: db, cacheManager: cacheManager}
}

func (f *FreeVideoPostgreSQL) Create(ctx context.Context, video *models.FreeVideo) error {
	if err := f.db.WithContext(ctx).Create(video).Error; err != nil {
		return translateError("create free video", err)
	}
	cache.InvalidateFreeVideoCache(ctx, f.cacheManager)
	return nil
}

func (f *FreeVideoPostgreSQL) GetByID(ctx context.Context, id uint) (*models.FreeVideo, error) {
	var video models.FreeVideo
	if err := f.db.WithContext(ctx).First(&video, id).Error; err != nil {
		return nil, translateError("get free video", err)
	}
	return &video, nil
}

func (f *FreeVideoPostgreSQL) Update(ctx context.Context, video *models.FreeVideo) error {
	res := f.db.WithContext(ctx).
		Model(video).
		Select("title", "youtube_id", "description", "updated_at").
		Updates(video)
	if err := affected("update free video", res); err != nil {
		return err
	}
	cache.InvalidateFreeVideoCache(ctx, f.cacheManager)
	return nil
}

func (f *FreeVideoPostgreSQL) Delete(ctx context.Context, id uint) error {
	if err := affected("delete free video", f.db.WithContext(ctx).Delete(&models.FreeVideo{}, id)); err != nil {
		return err
	}
	cache.InvalidateFreeVideoCache(ctx, f.cacheManager)
	return nil
}

func (f *FreeVideoPostgreSQL) List(ctx context.Context, limit int) ([]*models.FreeVideo, error) {
	var videos []*models.FreeVideo
	err := f.cacheManager.FreeVideo.CacheOrExecute(ctx, cache.FreeVideoListKey(limit), &videos, cache.FreeVideoCacheConfig.TTL, func() (interface{}, error) {
		query := f.db.WithContext(ctx).Order("created_at DESC, id DESC")
		if limit > 0 {
			query = query.Limit(limit)
		}
		list := make([]*models.FreeVideo, 0)
		if err := query.Find(&list).Error; err != nil {
			return nil, translateError("list free videos", err)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return videos, nil
}

func (f *FreeVideoPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := f.db.WithContext(ctx).Model(&models.FreeVideo{}).Count(&count).Error; err != nil {
		return 0, translateError("count free videos", err)
	}
	return count, nil
}
