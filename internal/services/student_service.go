package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mohammedtarek206/elamid/internal/cache"
	"github.com/mohammedtarek206/elamid/internal/events"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
	"github.com/mohammedtarek206/elamid/internal/validator"
)

const codeAttempts = 8

type studentService struct {
	deps      Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	cache     *cache.CacheManager
}

func NewStudentService(deps Dependencies) StudentService {
	return &studentService{
		deps:      deps,
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
	}
}

// generateStudentCode returns six random upper-case hex characters
func generateStudentCode() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// Create registers a student. Without an explicit code one is generated and
// regenerated on collision.
func (s *studentService) Create(ctx context.Context, req *CreateStudentRequest) (*models.Student, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	student := &models.Student{
		Name:               strings.TrimSpace(req.Name),
		Grade:              req.Grade,
		IsActive:           true,
		SubscriptionExpiry: req.SubscriptionExpiry,
	}
	if req.IsActive != nil {
		student.IsActive = *req.IsActive
	}
	if req.IsSubscribed != nil {
		student.IsSubscribed = *req.IsSubscribed
	}

	if req.Code != nil {
		student.Code = *req.Code
		if err := s.repo.Student().Create(ctx, student); err != nil {
			if repositories.IsDuplicateError(err) {
				return nil, ValidationErrors{*NewValidationError("code", "is already in use", *req.Code)}
			}
			return nil, fmt.Errorf("failed to create student: %w", err)
		}
	} else if err := s.createWithGeneratedCode(ctx, student); err != nil {
		return nil, err
	}

	cache.InvalidateStatsCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Student created", "student_id", student.ID, "grade", student.Grade)
	return student, nil
}

func (s *studentService) createWithGeneratedCode(ctx context.Context, student *models.Student) error {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := generateStudentCode()
		if err != nil {
			return fmt.Errorf("failed to generate student code: %w", err)
		}
		student.Code = code

		err = s.repo.Student().Create(ctx, student)
		if err == nil {
			return nil
		}
		if !repositories.IsDuplicateError(err) {
			return fmt.Errorf("failed to create student: %w", err)
		}
		s.logger.DebugContext(ctx, "Generated student code already taken", "attempt", attempt+1)
	}
	return fmt.Errorf("failed to find a free student code after %d attempts: %w", codeAttempts, ErrConflict)
}

func (s *studentService) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	student, err := s.repo.Student().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return student, nil
}

func (s *studentService) List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, error) {
	students, err := s.repo.Student().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (s *studentService) Update(ctx context.Context, id uint, req *UpdateStudentRequest) (*models.Student, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	student, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		student.Name = strings.TrimSpace(*req.Name)
	}
	if req.Grade != nil {
		student.Grade = *req.Grade
	}
	if req.Code != nil {
		student.Code = *req.Code
	}
	if req.IsActive != nil {
		student.IsActive = *req.IsActive
	}
	if req.IsSubscribed != nil {
		student.IsSubscribed = *req.IsSubscribed
	}
	if req.SubscriptionExpiry != nil {
		student.SubscriptionExpiry = req.SubscriptionExpiry
	}

	if err := s.repo.Student().Update(ctx, student); err != nil {
		switch {
		case repositories.IsDuplicateError(err):
			return nil, ValidationErrors{*NewValidationError("code", "is already in use", student.Code)}
		case repositories.IsNotFoundError(err):
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to update student: %w", err)
	}

	cache.InvalidateStatsCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Student updated", "student_id", student.ID)
	return student, nil
}

// Delete removes the student and their session. Results are kept.
func (s *studentService) Delete(ctx context.Context, id uint) error {
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Session().Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return tx.Student().Delete(ctx, id)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to delete student: %w", err)
	}

	cache.InvalidateStatsCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Student deleted", "student_id", id)
	publish(ctx, s.deps, events.NewEvent(events.StudentDeleted, events.EntityDeletedData{ID: id}))
	return nil
}

// ToggleStatus flips isActive. A deactivated student is rejected on their next
// request.
func (s *studentService) ToggleStatus(ctx context.Context, id uint) (*models.Student, error) {
	var student *models.Student
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		student, err = tx.Student().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		student.IsActive = !student.IsActive
		return tx.Student().Update(ctx, student)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to toggle student status: %w", err)
	}

	cache.InvalidateStatsCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Student status changed", "student_id", id, "is_active", student.IsActive)
	return student, nil
}
