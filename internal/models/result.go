package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnswerRecord is the graded outcome for one question of a submission.
type AnswerRecord struct {
	QuestionID     uint    `json:"questionId"`
	SelectedAnswer *string `json:"selectedAnswer"`
	IsCorrect      bool    `json:"isCorrect"`
}

// Result is written once per submission and never updated afterwards.
type Result struct {
	ID          uint                              `json:"id" gorm:"primaryKey"`
	StudentID   uint                              `json:"studentId" gorm:"not null;index:idx_result_student_exam"`
	ExamID      uint                              `json:"examId" gorm:"not null;index:idx_result_student_exam"`
	Score       int                               `json:"score" gorm:"not null"`
	TotalPoints int                               `json:"totalPoints" gorm:"not null"`
	Answers     datatypes.JSONSlice[AnswerRecord] `json:"answers,omitempty" gorm:"type:jsonb"`
	CompletedAt time.Time                         `json:"completedAt" gorm:"not null;index"`

	CreatedAt time.Time `json:"createdAt"`

	// Relations, loaded only for the admin listing
	Student *Student `json:"-" gorm:"foreignKey:StudentID"`
	Exam    *Exam    `json:"-" gorm:"foreignKey:ExamID"`
}

func (Result) TableName() string {
	return "results"
}

// ResultSummary is a result joined with the student name and exam title/grade.
type ResultSummary struct {
	*Result
	StudentName string `json:"studentName"`
	ExamTitle   string `json:"examTitle"`
	ExamGrade   Grade  `json:"examGrade"`
}
