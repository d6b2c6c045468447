package memory

import (
	"context"
	"sort"
	"time"

	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

type examRepo struct{ s *Store }

func (r examRepo) Create(ctx context.Context, exam *models.Exam) error {
	r.s.lock()
	defer r.s.unlock()

	now := r.s.now()
	exam.ID = r.s.id("exams")
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	exam.UpdatedAt = now
	r.s.exams[exam.ID] = *exam
	return nil
}

func (r examRepo) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.exams[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &e, nil
}

func (r examRepo) Update(ctx context.Context, exam *models.Exam) error {
	r.s.lock()
	defer r.s.unlock()

	existing, ok := r.s.exams[exam.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	exam.CreatedAt = existing.CreatedAt
	exam.UpdatedAt = r.s.now()
	r.s.exams[exam.ID] = *exam
	return nil
}

func (r examRepo) Delete(ctx context.Context, id uint) error {
	r.s.lock()
	defer r.s.unlock()

	if _, ok := r.s.exams[id]; !ok {
		return repositories.ErrNotFound
	}
	for qid, q := range r.s.questions {
		if q.ExamID == id {
			delete(r.s.questions, qid)
		}
	}
	delete(r.s.exams, id)
	return nil
}

func (r examRepo) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Exam, 0)
	for _, e := range r.s.exams {
		if filters.Grade != nil && e.Grade != *filters.Grade {
			continue
		}
		if filters.ActiveOnly && !e.IsActive {
			continue
		}
		out = append(out, &e)
	}
	sortNewestFirst(out, func(e *models.Exam) (time.Time, uint) { return e.CreatedAt, e.ID })
	return out, nil
}

func (r examRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.exams)), nil
}

type questionRepo struct{ s *Store }

func (r questionRepo) Create(ctx context.Context, question *models.Question) error {
	r.s.lock()
	defer r.s.unlock()

	now := r.s.now()
	question.ID = r.s.id("questions")
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = now
	r.s.questions[question.ID] = cloneQuestion(*question)
	return nil
}

func (r questionRepo) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	q, ok := r.s.questions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	q = cloneQuestion(q)
	return &q, nil
}

func (r questionRepo) Update(ctx context.Context, question *models.Question) error {
	r.s.lock()
	defer r.s.unlock()

	existing, ok := r.s.questions[question.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	question.CreatedAt = existing.CreatedAt
	question.UpdatedAt = r.s.now()
	r.s.questions[question.ID] = cloneQuestion(*question)
	return nil
}

func (r questionRepo) Delete(ctx context.Context, id uint) error {
	r.s.lock()
	defer r.s.unlock()

	if _, ok := r.s.questions[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.questions, id)
	return nil
}

func (r questionRepo) ListByExam(ctx context.Context, examID uint) ([]*models.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Question, 0)
	for _, q := range r.s.questions {
		if q.ExamID == examID {
			q = cloneQuestion(q)
			out = append(out, &q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r questionRepo) CountByExam(ctx context.Context, examID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, q := range r.s.questions {
		if q.ExamID == examID {
			n++
		}
	}
	return n, nil
}

func cloneQuestion(q models.Question) models.Question {
	if q.Options != nil {
		q.Options = append([]string(nil), q.Options...)
	}
	return q
}

type resultRepo struct{ s *Store }

func (r resultRepo) Create(ctx context.Context, result *models.Result) error {
	r.s.lock()
	defer r.s.unlock()

	result.ID = r.s.id("results")
	result.CreatedAt = r.s.now()
	stored := *result
	stored.Student, stored.Exam = nil, nil
	stored.Answers = append([]models.AnswerRecord(nil), result.Answers...)
	r.s.results[result.ID] = stored
	return nil
}

func (r resultRepo) GetByID(ctx context.Context, id uint) (*models.Result, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.results[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &res, nil
}

func (r resultRepo) Delete(ctx context.Context, id uint) error {
	r.s.lock()
	defer r.s.unlock()

	if _, ok := r.s.results[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.results, id)
	return nil
}

func (r resultRepo) ListSummaries(ctx context.Context) ([]*models.ResultSummary, error) {
	return r.summaries(func(models.Result) bool { return true }), nil
}

func (r resultRepo) ListByStudent(ctx context.Context, studentID uint) ([]*models.ResultSummary, error) {
	return r.summaries(func(res models.Result) bool { return res.StudentID == studentID }), nil
}

func (r resultRepo) CountByStudentAndExam(ctx context.Context, studentID, examID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, res := range r.s.results {
		if res.StudentID == studentID && res.ExamID == examID {
			n++
		}
	}
	return n, nil
}

func (r resultRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.results)), nil
}

// summaries joins results with students and exams the way a LEFT JOIN would:
// a deleted student or exam leaves the joined fields empty.
func (r resultRepo) summaries(keep func(models.Result) bool) []*models.ResultSummary {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.ResultSummary, 0)
	for _, res := range r.s.results {
		if !keep(res) {
			continue
		}
		sum := &models.ResultSummary{Result: &res}
		if st, ok := r.s.students[res.StudentID]; ok {
			sum.StudentName = st.Name
		}
		if e, ok := r.s.exams[res.ExamID]; ok {
			sum.ExamTitle = e.Title
			sum.ExamGrade = e.Grade
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Result, out[j].Result
		return newestFirst(a.CompletedAt, b.CompletedAt, a.ID, b.ID)
	})
	return out
}
