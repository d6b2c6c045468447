package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

func (r *ResultPostgreSQL) Create(ctx context.Context, result *models.Result) error {
	err := r.db.WithContext(ctx).Omit("Student", "Exam").Create(result).Error
	return translateError("create result", err)
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Result, error) {
	var result models.Result
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, translateError("get result", err)
	}
	return &result, nil
}

func (r *ResultPostgreSQL) Delete(ctx context.Context, id uint) error {
	return affected("delete result", r.db.WithContext(ctx).Delete(&models.Result{}, id))
}

func (r *ResultPostgreSQL) ListSummaries(ctx context.Context) ([]*models.ResultSummary, error) {
	return r.summaries(ctx, r.db.WithContext(ctx))
}

func (r *ResultPostgreSQL) ListByStudent(ctx context.Context, studentID uint) ([]*models.ResultSummary, error) {
	return r.summaries(ctx, r.db.WithContext(ctx).Where("student_id = ?", studentID))
}

func (r *ResultPostgreSQL) CountByStudentAndExam(ctx context.Context, studentID, examID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Result{}).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Count(&count).Error
	if err != nil {
		return 0, translateError("count results", err)
	}
	return count, nil
}

func (r *ResultPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Result{}).Count(&count).Error; err != nil {
		return 0, translateError("count results", err)
	}
	return count, nil
}

// summaries preloads the student name and exam title/grade. Missing relations
// (deleted student or exam) leave the joined fields empty.
func (r *ResultPostgreSQL) summaries(ctx context.Context, query *gorm.DB) ([]*models.ResultSummary, error) {
	var results []*models.Result
	err := query.
		Preload("Student", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Preload("Exam", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "grade") }).
		Order("completed_at DESC, id DESC").
		Find(&results).Error
	if err != nil {
		return nil, translateError("list results", err)
	}

	summaries := make([]*models.ResultSummary, 0, len(results))
	for _, res := range results {
		sum := &models.ResultSummary{Result: res}
		if res.Student != nil {
			sum.StudentName = res.Student.Name
		}
		if res.Exam != nil {
			sum.ExamTitle = res.Exam.Title
			sum.ExamGrade = res.Exam.Grade
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}
