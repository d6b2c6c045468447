package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/cache"
	"github.com/mohammedtarek206/elamid/internal/events"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories/memory"
	"github.com/mohammedtarek206/elamid/internal/validator"
)

type testEnv struct {
	deps   Dependencies
	store  *memory.Store
	events *events.MockEventPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	pub := events.NewMockEventPublisher(logger)
	return &testEnv{
		deps: Dependencies{
			Repo:      store,
			Logger:    logger,
			Validator: validator.NewBusinessValidator(),
			Tokens:    auth.NewTokenIssuer(auth.TokenConfig{Secret: []byte("test-secret")}),
			Cache:     cache.NewCacheManager(nil),
			Events:    pub,
		},
		store:  store,
		events: pub,
	}
}

func (e *testEnv) student(t *testing.T, code string, grade models.Grade) *models.Student {
	t.Helper()
	s := &models.Student{Name: "Student " + code, Code: code, Grade: grade, IsActive: true}
	if err := e.store.Student().Create(context.Background(), s); err != nil {
		t.Fatalf("create student: %v", err)
	}
	return s
}

// exam creates an active exam with one question per entry of answers, each
// worth the matching points.
func (e *testEnv) exam(t *testing.T, grade models.Grade, answers []string, points []int) (*models.Exam, []*models.Question) {
	t.Helper()
	ctx := context.Background()
	exam := &models.Exam{Title: "Exam", Grade: grade, Duration: 30, AttemptsAllowed: 1, IsActive: true, ShowResultImmediately: true}
	if err := e.store.Exam().Create(ctx, exam); err != nil {
		t.Fatalf("create exam: %v", err)
	}
	var questions []*models.Question
	for i, a := range answers {
		q := &models.Question{
			ExamID:        exam.ID,
			Text:          "question",
			Type:          models.MultipleChoice,
			Options:       []string{"a", "b", "c"},
			CorrectAnswer: a,
			Points:        points[i],
		}
		if err := e.store.Question().Create(ctx, q); err != nil {
			t.Fatalf("create question: %v", err)
		}
		questions = append(questions, q)
	}
	return exam, questions
}

func strPtr(s string) *string { return &s }
