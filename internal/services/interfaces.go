package services

import (
	"context"
	"io"
	"time"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
	"github.com/mohammedtarek206/elamid/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type StudentLoginRequest = validator.StudentLoginRequest
type AdminLoginRequest = validator.AdminLoginRequest
type CreateStudentRequest = validator.StudentCreateRequest
type UpdateStudentRequest = validator.StudentUpdateRequest
type CreateVideoRequest = validator.VideoCreateRequest
type UpdateVideoRequest = validator.VideoUpdateRequest
type CreateFreeVideoRequest = validator.FreeVideoCreateRequest
type UpdateFreeVideoRequest = validator.FreeVideoUpdateRequest
type CreateExamRequest = validator.ExamCreateRequest
type UpdateExamRequest = validator.ExamUpdateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type SubmitExamRequest = validator.SubmitExamRequest
type SubmittedAnswer = validator.SubmittedAnswer

type StudentLoginResponse struct {
	Token     string          `json:"token"`
	Student   *models.Student `json:"student"`
	ExpiresAt time.Time       `json:"-"`
}

type AdminLoginResponse struct {
	Token     string        `json:"token"`
	Admin     *models.Admin `json:"admin"`
	ExpiresAt time.Time     `json:"-"`
}

// ExamView is what a student receives when opening an exam. AttemptToken is
// only set when submissions are checked against a deadline.
type ExamView struct {
	Exam         *models.Exam             `json:"exam"`
	Questions    []models.StudentQuestion `json:"questions"`
	AttemptToken string                   `json:"attemptToken,omitempty"`
	Deadline     *time.Time               `json:"deadline,omitempty"`
}

type DashboardStats struct {
	Students       int64     `json:"students"`
	ActiveStudents int64     `json:"activeStudents"`
	Exams          int64     `json:"exams"`
	Videos         int64     `json:"videos"`
	FreeVideos     int64     `json:"freeVideos"`
	Results        int64     `json:"results"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	LoginStudent(ctx context.Context, req *StudentLoginRequest) (*StudentLoginResponse, error)
	LoginAdmin(ctx context.Context, req *AdminLoginRequest) (*AdminLoginResponse, error)

	// Authenticate resolves a bearer token to a principal. It never writes.
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
	Logout(ctx context.Context, principal auth.Principal) error

	// SeedAdmin creates the admin or resets its password.
	SeedAdmin(ctx context.Context, username, password string) error
}

// PortalService serves the grade-scoped student catalog and the public landing page
type PortalService interface {
	ListVideos(ctx context.Context, student *models.Student) ([]*models.Video, error)
	ListExams(ctx context.Context, student *models.Student) ([]*models.Exam, error)
	GetExam(ctx context.Context, student *models.Student, examID uint) (*ExamView, error)
	ListMyResults(ctx context.Context, student *models.Student) ([]*models.ResultSummary, error)
	ListFreeVideos(ctx context.Context) ([]*models.FreeVideo, error)
}

type GradingService interface {
	Submit(ctx context.Context, student *models.Student, examID uint, req *SubmitExamRequest) (*models.Result, error)
}

type StudentService interface {
	Create(ctx context.Context, req *CreateStudentRequest) (*models.Student, error)
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, error)
	Update(ctx context.Context, id uint, req *UpdateStudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id uint) error
	ToggleStatus(ctx context.Context, id uint) (*models.Student, error)
}

type ContentService interface {
	CreateVideo(ctx context.Context, req *CreateVideoRequest) (*models.Video, error)
	GetVideo(ctx context.Context, id uint) (*models.Video, error)
	ListVideos(ctx context.Context, grade *models.Grade) ([]*models.Video, error)
	UpdateVideo(ctx context.Context, id uint, req *UpdateVideoRequest) (*models.Video, error)
	DeleteVideo(ctx context.Context, id uint) error

	CreateFreeVideo(ctx context.Context, req *CreateFreeVideoRequest) (*models.FreeVideo, error)
	GetFreeVideo(ctx context.Context, id uint) (*models.FreeVideo, error)
	ListFreeVideos(ctx context.Context) ([]*models.FreeVideo, error)
	UpdateFreeVideo(ctx context.Context, id uint, req *UpdateFreeVideoRequest) (*models.FreeVideo, error)
	DeleteFreeVideo(ctx context.Context, id uint) error
}

type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest) (*models.Exam, error)
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, error)
	Update(ctx context.Context, id uint, req *UpdateExamRequest) (*models.Exam, error)
	// Delete removes the exam and all of its questions.
	Delete(ctx context.Context, id uint) error

	AddQuestion(ctx context.Context, examID uint, req *CreateQuestionRequest) (*models.Question, error)
	ListQuestions(ctx context.Context, examID uint) ([]*models.Question, error)
	GetQuestion(ctx context.Context, id uint) (*models.Question, error)
	UpdateQuestion(ctx context.Context, id uint, req *UpdateQuestionRequest) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id uint) error
}

type ResultService interface {
	List(ctx context.Context) ([]*models.ResultSummary, error)
	GetByID(ctx context.Context, id uint) (*models.Result, error)
	Delete(ctx context.Context, id uint) error
	// Export writes every result as an XLSX workbook.
	Export(ctx context.Context, w io.Writer) error
}

type DashboardService interface {
	GetStats(ctx context.Context) (*DashboardStats, error)
}

type ServiceManager interface {
	Auth() AuthService
	Portal() PortalService
	Grading() GradingService
	Student() StudentService
	Content() ContentService
	Exam() ExamService
	Result() ResultService
	Dashboard() DashboardService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
