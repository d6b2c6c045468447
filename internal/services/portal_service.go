package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/cache"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

type portalService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	tokens         *auth.TokenIssuer
	cache          *cache.CacheManager
	policy         ExamPolicy
	freeVideoLimit int
}

func NewPortalService(deps Dependencies, config ServiceManagerConfig) PortalService {
	limit := config.FreeVideoLimit
	if limit <= 0 {
		limit = 10
	}
	return &portalService{
		repo:           deps.Repo,
		logger:         deps.Logger,
		tokens:         deps.Tokens,
		cache:          deps.Cache,
		policy:         config.Exam,
		freeVideoLimit: limit,
	}
}

func (s *portalService) ListVideos(ctx context.Context, student *models.Student) ([]*models.Video, error) {
	grade := student.Grade
	var videos []*models.Video
	err := s.cache.Video.CacheOrExecute(ctx, cache.VideoListKey(int(grade)), &videos, cache.VideoCacheConfig.TTL, func() (interface{}, error) {
		return s.repo.Video().List(ctx, &grade)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return videos, nil
}

// ListExams returns the active exams of the student's grade
func (s *portalService) ListExams(ctx context.Context, student *models.Student) ([]*models.Exam, error) {
	grade := student.Grade
	var exams []*models.Exam
	err := s.cache.Exam.CacheOrExecute(ctx, cache.ExamListKey(int(grade)), &exams, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		return s.repo.Exam().List(ctx, repositories.ExamFilters{Grade: &grade, ActiveOnly: true})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, nil
}

// GetExam returns an exam with its questions stripped of their answers. An exam
// of another grade is refused whether or not it is active.
func (s *portalService) GetExam(ctx context.Context, student *models.Student, examID uint) (*ExamView, error) {
	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if !auth.CanAccessGrade(&auth.StudentPrincipal{Student: student}, exam.Grade) {
		s.logger.WarnContext(ctx, "Student requested exam of another grade",
			"student_id", student.ID,
			"student_grade", student.Grade,
			"exam_id", exam.ID,
			"exam_grade", exam.Grade)
		return nil, NewPermissionError(student.ID, exam.ID, "exam", "read", "exam belongs to another grade")
	}

	questions, err := s.repo.Question().ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	view := &ExamView{
		Exam:      exam,
		Questions: make([]models.StudentQuestion, 0, len(questions)),
	}
	for _, q := range questions {
		view.Questions = append(view.Questions, q.ForStudent())
	}

	if s.policy.EnforceDeadline {
		duration := time.Duration(exam.Duration) * time.Minute
		ticket, claims, err := s.tokens.IssueAttempt(student.ID, exam.ID, duration, s.policy.DeadlineGrace)
		if err != nil {
			return nil, fmt.Errorf("failed to issue attempt token: %w", err)
		}
		view.AttemptToken = ticket
		view.Deadline = &claims.Deadline
	}

	return view, nil
}

func (s *portalService) ListMyResults(ctx context.Context, student *models.Student) ([]*models.ResultSummary, error) {
	results, err := s.repo.Result().ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

// ListFreeVideos returns the newest free videos for the public landing page
func (s *portalService) ListFreeVideos(ctx context.Context) ([]*models.FreeVideo, error) {
	var videos []*models.FreeVideo
	err := s.cache.FreeVideo.CacheOrExecute(ctx, cache.FreeVideoListKey(s.freeVideoLimit), &videos, cache.FreeVideoCacheConfig.TTL, func() (interface{}, error) {
		return s.repo.FreeVideo().List(ctx, s.freeVideoLimit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list free videos: %w", err)
	}
	return videos, nil
}
