package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mohammedtarek206/elamid/internal/cache"
	"github.com/mohammedtarek206/elamid/internal/events"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
	"github.com/mohammedtarek206/elamid/internal/validator"
)

var trueFalseOptions = []string{"True", "False"}

type examService struct {
	deps      Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	cache     *cache.CacheManager
}

func NewExamService(deps Dependencies) ExamService {
	return &examService{
		deps:      deps,
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
	}
}

// ===== EXAMS =====

func (s *examService) Create(ctx context.Context, req *CreateExamRequest) (*models.Exam, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	exam := &models.Exam{
		Title:                 strings.TrimSpace(req.Title),
		Grade:                 req.Grade,
		Duration:              req.Duration,
		AttemptsAllowed:       1,
		IsActive:              true,
		ShowResultImmediately: true,
	}
	if req.AttemptsAllowed != nil {
		exam.AttemptsAllowed = *req.AttemptsAllowed
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if req.ShowResultImmediately != nil {
		exam.ShowResultImmediately = *req.ShowResultImmediately
	}

	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	cache.InvalidateExamCache(ctx, s.cache)
	cache.InvalidateStatsCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Exam created", "exam_id", exam.ID, "grade", exam.Grade)
	return exam, nil
}

func (s *examService) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, error) {
	exams, err := s.repo.Exam().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, nil
}

func (s *examService) Update(ctx context.Context, id uint, req *UpdateExamRequest) (*models.Exam, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	exam, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		exam.Title = strings.TrimSpace(*req.Title)
	}
	if req.Grade != nil {
		exam.Grade = *req.Grade
	}
	if req.Duration != nil {
		exam.Duration = *req.Duration
	}
	if req.AttemptsAllowed != nil {
		exam.AttemptsAllowed = *req.AttemptsAllowed
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if req.ShowResultImmediately != nil {
		exam.ShowResultImmediately = *req.ShowResultImmediately
	}

	if err := s.repo.Exam().Update(ctx, exam); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to update exam: %w", err)
	}

	cache.InvalidateExamCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Exam updated", "exam_id", exam.ID)
	return exam, nil
}

// Delete removes the exam and its questions in one transaction. Results that
// reference the exam are kept.
func (s *examService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Exam().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	cache.InvalidateExamCache(ctx, s.cache)
	cache.InvalidateStatsCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Exam deleted", "exam_id", id)
	publish(ctx, s.deps, events.NewEvent(events.ExamDeleted, events.EntityDeletedData{ID: id}))
	return nil
}

// ===== QUESTIONS =====

// AddQuestion appends a question to an exam. Type defaults to MCQ and points
// to 1; a True/False question without options gets ["True", "False"].
func (s *examService) AddQuestion(ctx context.Context, examID uint, req *CreateQuestionRequest) (*models.Question, error) {
	if req.Type == "" {
		req.Type = models.MultipleChoice
	}
	if errs := s.validator.ValidateQuestionCreate(req); len(errs) > 0 {
		return nil, errs
	}

	if _, err := s.GetByID(ctx, examID); err != nil {
		return nil, err
	}

	question := &models.Question{
		ExamID:        examID,
		Text:          req.Text,
		Type:          req.Type,
		Options:       copyOptions(req.Options),
		CorrectAnswer: req.CorrectAnswer,
		Points:        1,
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if question.Type == models.TrueFalse && len(question.Options) == 0 {
		question.Options = copyOptions(trueFalseOptions)
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.InfoContext(ctx, "Question created", "question_id", question.ID, "exam_id", examID)
	return question, nil
}

// ListQuestions returns the exam's questions in creation order, with answers
func (s *examService) ListQuestions(ctx context.Context, examID uint) ([]*models.Question, error) {
	if _, err := s.GetByID(ctx, examID); err != nil {
		return nil, err
	}
	questions, err := s.repo.Question().ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func (s *examService) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

func (s *examService) UpdateQuestion(ctx context.Context, id uint, req *UpdateQuestionRequest) (*models.Question, error) {
	question, err := s.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateQuestionUpdate(req, question); len(errs) > 0 {
		return nil, errs
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Type != nil && *req.Type != question.Type {
		question.Type = *req.Type
		if question.Type == models.TrueFalse && req.Options == nil {
			question.Options = copyOptions(trueFalseOptions)
		}
	}
	if req.Options != nil {
		question.Options = copyOptions(req.Options)
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Points != nil {
		question.Points = *req.Points
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return question, nil
}

func (s *examService) DeleteQuestion(ctx context.Context, id uint) error {
	if err := s.repo.Question().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}
	s.logger.InfoContext(ctx, "Question deleted", "question_id", id)
	return nil
}

func copyOptions(options []string) []string {
	if options == nil {
		return nil
	}
	out := make([]string, len(options))
	copy(out, options)
	return out
}
