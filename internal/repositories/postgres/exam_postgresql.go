package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/mohammedtarek206/elamid/internal/cache"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

type ExamPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ExamRepository {
	return &ExamPostgreSQL{db: db, cacheManager: cacheManager}
}

func (e *ExamPostgreSQL) Create(ctx context.Context, exam *models.Exam) error {
	if err := e.db.WithContext(ctx).Create(exam).Error; err != nil {
		return translateError("create exam", err)
	}
	cache.InvalidateExamCache(ctx, e.cacheManager)
	return nil
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, translateError("get exam", err)
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, exam *models.Exam) error {
	res := e.db.WithContext(ctx).
		Model(exam).
		Select("title", "grade", "duration", "attempts_allowed", "is_active", "show_result_immediately", "updated_at").
		Updates(exam)
	if err := affected("update exam", res); err != nil {
		return err
	}
	cache.InvalidateExamCache(ctx, e.cacheManager)
	return nil
}

// Delete removes the exam and its questions in one transaction.
func (e *ExamPostgreSQL) Delete(ctx context.Context, id uint) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return translateError("delete exam questions", err)
		}
		return affected("delete exam", tx.Delete(&models.Exam{}, id))
	})
	if err != nil {
		return err
	}
	cache.InvalidateExamCache(ctx, e.cacheManager)
	return nil
}

func (e *ExamPostgreSQL) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, error) {
	if filters.Grade == nil || !filters.ActiveOnly {
		return e.list(ctx, filters)
	}

	var exams []*models.Exam
	err := e.cacheManager.Exam.CacheOrExecute(ctx, cache.ExamListKey(int(*filters.Grade)), &exams, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		return e.list(ctx, filters)
	})
	if err != nil {
		return nil, err
	}
	return exams, nil
}

func (e *ExamPostgreSQL) list(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, error) {
	query := e.db.WithContext(ctx)
	if filters.Grade != nil {
		query = query.Where("grade = ?", *filters.Grade)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	exams := make([]*models.Exam, 0)
	if err := query.Order("created_at DESC, id DESC").Find(&exams).Error; err != nil {
		return nil, translateError("list exams", err)
	}
	return exams, nil
}

func (e *ExamPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := e.db.WithContext(ctx).Model(&models.Exam{}).Count(&count).Error; err != nil {
		return 0, translateError("count exams", err)
	}
	return count, nil
}

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	return translateError("create question", q.db.WithContext(ctx).Create(question).Error)
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, translateError("get question", err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	res := q.db.WithContext(ctx).
		Model(question).
		Select("text", "type", "options", "correct_answer", "points", "updated_at").
		Updates(question)
	return affected("update question", res)
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, id uint) error {
	return affected("delete question", q.db.WithContext(ctx).Delete(&models.Question{}, id))
}

func (q *QuestionPostgreSQL) ListByExam(ctx context.Context, examID uint) ([]*models.Question, error) {
	questions := make([]*models.Question, 0)
	err := q.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("created_at ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, translateError("list questions", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) CountByExam(ctx context.Context, examID uint) (int64, error) {
	var count int64
	if err := q.db.WithContext(ctx).Model(&models.Question{}).Where("exam_id = ?", examID).Count(&count).Error; err != nil {
		return 0, translateError("count questions", err)
	}
	return count, nil
}
