package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/mohammedtarek206/elamid/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

type StudentFilters struct {
	Grade    *models.Grade
	IsActive *bool
}

// StudentRepository stores student credentials. Codes are unique; Create and
// Update return ErrDuplicate on a clash.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	// GetByIDForUpdate locks the row for the rest of the transaction. Outside a
	// transaction it behaves like GetByID.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Student, error)
	GetByCode(ctx context.Context, code string) (*models.Student, error)
	List(ctx context.Context, filters StudentFilters) ([]*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uint) error
	SetLastLogin(ctx context.Context, id uint, at time.Time) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Count(ctx context.Context, filters StudentFilters) (int64, error)
}

type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id uint) (*models.Admin, error)
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdatePassword(ctx context.Context, id uint, hash []byte) error
}

// SessionRepository holds at most one live session per student.
type SessionRepository interface {
	Get(ctx context.Context, studentID uint) (*models.StudentSession, error)
	// CompareAndSwap installs next only if the stored fingerprint still equals
	// expected. An empty expected value means no session row exists yet.
	CompareAndSwap(ctx context.Context, expected string, next *models.StudentSession) (bool, error)
	// Revoke removes the session only if it still holds fingerprint.
	Revoke(ctx context.Context, studentID uint, fingerprint string) (bool, error)
	Delete(ctx context.Context, studentID uint) error
}

type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id uint) (*models.Video, error)
	Update(ctx context.Context, video *models.Video) error
	Delete(ctx context.Context, id uint) error
	// List returns videos newest first, restricted to grade when it is non-nil.
	List(ctx context.Context, grade *models.Grade) ([]*models.Video, error)
	Count(ctx context.Context) (int64, error)
}

type FreeVideoRepository interface {
	Create(ctx context.Context, video *models.FreeVideo) error
	GetByID(ctx context.Context, id uint) (*models.FreeVideo, error)
	Update(ctx context.Context, video *models.FreeVideo) error
	Delete(ctx context.Context, id uint) error
	// List returns free videos newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*models.FreeVideo, error)
	Count(ctx context.Context) (int64, error)
}

type ExamFilters struct {
	Grade      *models.Grade
	ActiveOnly bool
}

type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	Update(ctx context.Context, exam *models.Exam) error
	// Delete removes the exam together with its questions.
	Delete(ctx context.Context, id uint) error
	// List returns exams newest first.
	List(ctx context.Context, filters ExamFilters) ([]*models.Exam, error)
	Count(ctx context.Context) (int64, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
	// ListByExam returns the exam's questions in creation order.
	ListByExam(ctx context.Context, examID uint) ([]*models.Question, error)
	CountByExam(ctx context.Context, examID uint) (int64, error)
}

type ResultRepository interface {
	Create(ctx context.Context, result *models.Result) error
	GetByID(ctx context.Context, id uint) (*models.Result, error)
	Delete(ctx context.Context, id uint) error
	// ListSummaries returns every result newest first, joined with the student
	// name and the exam title and grade.
	ListSummaries(ctx context.Context) ([]*models.ResultSummary, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.ResultSummary, error)
	CountByStudentAndExam(ctx context.Context, studentID, examID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
}
