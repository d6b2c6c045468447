package memory

import (
	"context"
	"time"

	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

type videoRepo struct{ s *Store }

func (r videoRepo) Create(ctx context.Context, video *models.Video) error {
	r.s.lock()
	defer r.s.unlock()

	now := r.s.now()
	video.ID = r.s.id("videos")
	if video.CreatedAt.IsZero() {
		video.CreatedAt = now
	}
	video.UpdatedAt = now
	r.s.videos[video.ID] = *video
	return nil
}

func (r videoRepo) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.videos[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &v, nil
}

func (r videoRepo) Update(ctx context.Context, video *models.Video) error {
	r.s.lock()
	defer r.s.unlock()

	existing, ok := r.s.videos[video.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	video.CreatedAt = existing.CreatedAt
	video.UpdatedAt = r.s.now()
	r.s.videos[video.ID] = *video
	return nil
}

func (r videoRepo) Delete(ctx context.Context, id uint) error {
	r.s.lock()
	defer r.s.unlock()

	if _, ok := r.s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.videos, id)
	return nil
}

func (r videoRepo) List(ctx context.Context, grade *models.Grade) ([]*models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Video, 0)
	for _, v := range r.s.videos {
		if grade == nil || v.Grade == *grade {
			out = append(out, &v)
		}
	}
	sortNewestFirst(out, func(v *models.Video) (time.Time, uint) { return v.CreatedAt, v.ID })
	return out, nil
}

func (r videoRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.videos)), nil
}

type freeVideoRepo struct{ s *Store }

func (r freeVideoRepo) Create(ctx context.Context, video *models.FreeVideo) error {
	r.s.lock()
	defer r.s.unlock()

	now := r.s.now()
	video.ID = r.s.id("free_videos")
	if video.CreatedAt.IsZero() {
		video.CreatedAt = now
	}
	video.UpdatedAt = now
	r.s.freeVideos[video.ID] = *video
	return nil
}

func (r freeVideoRepo) GetByID(ctx context.Context, id uint) (*models.FreeVideo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.freeVideos[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &v, nil
}

func (r freeVideoRepo) Update(ctx context.Context, video *models.FreeVideo) error {
	r.s.lock()
	defer r.s.unlock()

	existing, ok := r.s.freeVideos[video.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	video.CreatedAt = existing.CreatedAt
	video.UpdatedAt = r.s.now()
	r.s.freeVideos[video.ID] = *video
	return nil
}

func (r freeVideoRepo) Delete(ctx context.Context, id uint) error {
	r.s.lock()
	defer r.s.unlock()

	if _, ok := r.s.freeVideos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.freeVideos, id)
	return nil
}

func (r freeVideoRepo) List(ctx context.Context, limit int) ([]*models.FreeVideo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.FreeVideo, 0, len(r.s.freeVideos))
	for _, v := range r.s.freeVideos {
		out = append(out, &v)
	}
	sortNewestFirst(out, func(v *models.FreeVideo) (time.Time, uint) { return v.CreatedAt, v.ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r freeVideoRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.freeVideos)), nil
}
