package validator

import (
	"time"

	"github.com/mohammedtarek206/elamid/internal/models"
)

// StudentLoginRequest is the body of POST /api/auth/login/student
type StudentLoginRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

// AdminLoginRequest is the body of POST /api/auth/login/admin
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=128"`
}

// StudentCreateRequest represents the request structure for creating students.
// Code is generated when omitted.
type StudentCreateRequest struct {
	Name               string       `json:"name" validate:"required,min=1,max=150"`
	Grade              models.Grade `json:"grade" validate:"required,grade"`
	Code               *string      `json:"code" validate:"omitempty,student_code"`
	IsActive           *bool        `json:"isActive"`
	IsSubscribed       *bool        `json:"isSubscribed"`
	SubscriptionExpiry *time.Time   `json:"subscriptionExpiry"`
}

// StudentUpdateRequest represents a partial student update
type StudentUpdateRequest struct {
	Name               *string       `json:"name" validate:"omitempty,min=1,max=150"`
	Grade              *models.Grade `json:"grade" validate:"omitempty,grade"`
	Code               *string       `json:"code" validate:"omitempty,student_code"`
	IsActive           *bool         `json:"isActive"`
	IsSubscribed       *bool         `json:"isSubscribed"`
	SubscriptionExpiry *time.Time    `json:"subscriptionExpiry"`
}

type VideoCreateRequest struct {
	Title         string       `json:"title" validate:"required,max=200"`
	Grade         models.Grade `json:"grade" validate:"required,grade"`
	Unit          string       `json:"unit" validate:"required,max=150"`
	Lesson        string       `json:"lesson" validate:"required,max=150"`
	DailymotionID string       `json:"dailymotionId" validate:"required,max=64"`
}

type VideoUpdateRequest struct {
	Title         *string       `json:"title" validate:"omitempty,min=1,max=200"`
	Grade         *models.Grade `json:"grade" validate:"omitempty,grade"`
	Unit          *string       `json:"unit" validate:"omitempty,min=1,max=150"`
	Lesson        *string       `json:"lesson" validate:"omitempty,min=1,max=150"`
	DailymotionID *string       `json:"dailymotionId" validate:"omitempty,min=1,max=64"`
}

type FreeVideoCreateRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	YoutubeID   string  `json:"youtubeId" validate:"required,max=64"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type FreeVideoUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	YoutubeID   *string `json:"youtubeId" validate:"omitempty,min=1,max=64"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// ExamCreateRequest represents the request structure for creating exams.
// Nil flags take the model defaults (active, results shown, one attempt).
type ExamCreateRequest struct {
	Title                 string       `json:"title" validate:"required,max=200"`
	Grade                 models.Grade `json:"grade" validate:"required,grade"`
	Duration              int          `json:"duration" validate:"required,exam_duration"`
	AttemptsAllowed       *int         `json:"attemptsAllowed" validate:"omitempty,min=0,max=100"`
	IsActive              *bool        `json:"isActive"`
	ShowResultImmediately *bool        `json:"showResultImmediately"`
}

type ExamUpdateRequest struct {
	Title                 *string       `json:"title" validate:"omitempty,min=1,max=200"`
	Grade                 *models.Grade `json:"grade" validate:"omitempty,grade"`
	Duration              *int          `json:"duration" validate:"omitempty,exam_duration"`
	AttemptsAllowed       *int          `json:"attemptsAllowed" validate:"omitempty,min=0,max=100"`
	IsActive              *bool         `json:"isActive"`
	ShowResultImmediately *bool         `json:"showResultImmediately"`
}

// QuestionCreateRequest represents the request structure for creating questions.
// CorrectAnswer is the index of the correct option.
type QuestionCreateRequest struct {
	Text          string              `json:"text" validate:"required,max=2000"`
	Type          models.QuestionType `json:"type" validate:"omitempty,question_type"`
	Options       []string            `json:"options" validate:"omitempty,max=10,dive,max=500"`
	CorrectAnswer string              `json:"correctAnswer" validate:"required,option_index"`
	Points        *int                `json:"points" validate:"omitempty,points_range"`
}

type QuestionUpdateRequest struct {
	Text          *string              `json:"text" validate:"omitempty,min=1,max=2000"`
	Type          *models.QuestionType `json:"type" validate:"omitempty,question_type"`
	Options       []string             `json:"options" validate:"omitempty,max=10,dive,max=500"`
	CorrectAnswer *string              `json:"correctAnswer" validate:"omitempty,option_index"`
	Points        *int                 `json:"points" validate:"omitempty,points_range"`
}

// SubmittedAnswer is one entry of a submission. A nil SelectedAnswer counts as
// unanswered.
type SubmittedAnswer struct {
	QuestionID     uint    `json:"questionId"`
	SelectedAnswer *string `json:"selectedAnswer"`
}

// SubmitExamRequest is the body of POST /api/student/exams/:id/submit. Answer
// contents are never rejected; unknown or malformed entries simply do not score.
type SubmitExamRequest struct {
	Answers      []SubmittedAnswer `json:"answers" validate:"max=1000"`
	AttemptToken string            `json:"attemptToken" validate:"omitempty,max=2048"`
}
