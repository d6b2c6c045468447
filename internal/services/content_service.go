package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mohammedtarek206/elamid/internal/cache"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
	"github.com/mohammedtarek206/elamid/internal/validator"
)

// contentService manages grade videos (Dailymotion) and free videos (YouTube)
type contentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	cache     *cache.CacheManager
}

func NewContentService(deps Dependencies) ContentService {
	return &contentService{
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
	}
}

// ===== VIDEOS =====

func (s *contentService) CreateVideo(ctx context.Context, req *CreateVideoRequest) (*models.Video, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	video := &models.Video{
		Title:         req.Title,
		Grade:         req.Grade,
		Unit:          req.Unit,
		Lesson:        req.Lesson,
		DailymotionID: req.DailymotionID,
	}
	if err := s.repo.Video().Create(ctx, video); err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	cache.InvalidateVideoCache(ctx, s.cache)
	cache.InvalidateStatsCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Video created", "video_id", video.ID, "grade", video.Grade)
	return video, nil
}

func (s *contentService) GetVideo(ctx context.Context, id uint) (*models.Video, error) {
	video, err := s.repo.Video().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return video, nil
}

func (s *contentService) ListVideos(ctx context.Context, grade *models.Grade) ([]*models.Video, error) {
	videos, err := s.repo.Video().List(ctx, grade)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return videos, nil
}

func (s *contentService) UpdateVideo(ctx context.Context, id uint, req *UpdateVideoRequest) (*models.Video, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	video, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		video.Title = *req.Title
	}
	if req.Grade != nil {
		video.Grade = *req.Grade
	}
	if req.Unit != nil {
		video.Unit = *req.Unit
	}
	if req.Lesson != nil {
		video.Lesson = *req.Lesson
	}
	if req.DailymotionID != nil {
		video.DailymotionID = *req.DailymotionID
	}

	if err := s.repo.Video().Update(ctx, video); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to update video: %w", err)
	}

	cache.InvalidateVideoCache(ctx, s.cache)
	return video, nil
}

func (s *contentService) DeleteVideo(ctx context.Context, id uint) error {
	if err := s.repo.Video().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("failed to delete video: %w", err)
	}

	cache.InvalidateVideoCache(ctx, s.cache)
	cache.InvalidateStatsCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Video deleted", "video_id", id)
	return nil
}

// ===== FREE VIDEOS =====

func (s *contentService) CreateFreeVideo(ctx context.Context, req *CreateFreeVideoRequest) (*models.FreeVideo, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	video := &models.FreeVideo{
		Title:       req.Title,
		YoutubeID:   req.YoutubeID,
		Description: req.Description,
	}
	if err := s.repo.FreeVideo().Create(ctx, video); err != nil {
		return nil, fmt.Errorf("failed to create free video: %w", err)
	}

	cache.InvalidateFreeVideoCache(ctx, s.cache)
	cache.InvalidateStatsCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Free video created", "free_video_id", video.ID)
	return video, nil
}

func (s *contentService) GetFreeVideo(ctx context.Context, id uint) (*models.FreeVideo, error) {
	video, err := s.repo.FreeVideo().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get free video: %w", err)
	}
	return video, nil
}

// ListFreeVideos returns every free video, newest first
func (s *contentService) ListFreeVideos(ctx context.Context) ([]*models.FreeVideo, error) {
	videos, err := s.repo.FreeVideo().List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list free videos: %w", err)
	}
	return videos, nil
}

func (s *contentService) UpdateFreeVideo(ctx context.Context, id uint, req *UpdateFreeVideoRequest) (*models.FreeVideo, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	video, err := s.GetFreeVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		video.Title = *req.Title
	}
	if req.YoutubeID != nil {
		video.YoutubeID = *req.YoutubeID
	}
	if req.Description != nil {
		video.Description = req.Description
	}

	if err := s.repo.FreeVideo().Update(ctx, video); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to update free video: %w", err)
	}

	cache.InvalidateFreeVideoCache(ctx, s.cache)
	return video, nil
}

func (s *contentService) DeleteFreeVideo(ctx context.Context, id uint) error {
	if err := s.repo.FreeVideo().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("failed to delete free video: %w", err)
	}

	cache.InvalidateFreeVideoCache(ctx, s.cache)
	cache.InvalidateStatsCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Free video deleted", "free_video_id", id)
	return nil
}
