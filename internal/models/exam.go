package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "MCQ"
	TrueFalse      QuestionType = "True/False"
)

type Exam struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	Title           string `json:"title" gorm:"not null;size:200"`
	Grade           Grade  `json:"grade" gorm:"not null;index"`
	Duration        int    `json:"duration" gorm:"not null"` // minutes
	AttemptsAllowed int    `json:"attemptsAllowed" gorm:"not null"`
	IsActive        bool   `json:"isActive" gorm:"not null;index"`

	// ShowResultImmediately controls whether the submit response carries the
	// per-question breakdown.
	ShowResultImmediately bool `json:"showResultImmediately" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Exam) TableName() string {
	return "exams"
}

type Question struct {
	ID      uint                        `json:"id" gorm:"primaryKey"`
	ExamID  uint                        `json:"examId" gorm:"not null;index"`
	Text    string                      `json:"text" gorm:"type:text;not null"`
	Type    QuestionType                `json:"type" gorm:"not null;size:20;default:MCQ"`
	Options datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb"`

	// CorrectAnswer is the index of the correct option ("0", "1", ...), not its text,
	// so option edits do not silently change the key.
	CorrectAnswer string `json:"correctAnswer" gorm:"not null;size:8"`
	Points        int    `json:"points" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Question) TableName() string {
	return "questions"
}

// StudentQuestion is the view of a question handed to students: it never carries
// the correct answer.
type StudentQuestion struct {
	ID      uint         `json:"id"`
	ExamID  uint         `json:"examId"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options"`
	Points  int          `json:"points"`
}

func (q *Question) ForStudent() StudentQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return StudentQuestion{
		ID:      q.ID,
		ExamID:  q.ExamID,
		Text:    q.Text,
		Type:    q.Type,
		Options: options,
		Points:  q.Points,
	}
}
