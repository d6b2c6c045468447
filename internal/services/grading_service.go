package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/events"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
	"github.com/mohammedtarek206/elamid/internal/validator"
)

// Grading is the outcome of scoring one submission
type Grading struct {
	Score       int
	TotalPoints int
	Answers     []models.AnswerRecord
}

// Grade scores a submission. Questions are walked in the order given, which is
// also the order of the returned records. Only the first answer for a question
// counts; unknown question ids are ignored and a missing answer is incorrect.
// Correctness is exact string equality with the stored option index.
func Grade(questions []*models.Question, answers []SubmittedAnswer) Grading {
	first := make(map[uint]SubmittedAnswer, len(answers))
	for _, a := range answers {
		if _, seen := first[a.QuestionID]; !seen {
			first[a.QuestionID] = a
		}
	}

	g := Grading{Answers: make([]models.AnswerRecord, 0, len(questions))}
	for _, q := range questions {
		g.TotalPoints += q.Points

		record := models.AnswerRecord{QuestionID: q.ID}
		if a, ok := first[q.ID]; ok && a.SelectedAnswer != nil {
			selected := *a.SelectedAnswer
			record.SelectedAnswer = &selected
			record.IsCorrect = selected == q.CorrectAnswer
		}
		if record.IsCorrect {
			g.Score += q.Points
		}
		g.Answers = append(g.Answers, record)
	}
	return g
}

type gradingService struct {
	deps      Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	tokens    *auth.TokenIssuer
	policy    ExamPolicy
}

func NewGradingService(deps Dependencies, policy ExamPolicy) GradingService {
	return &gradingService{
		deps:      deps,
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		tokens:    deps.Tokens,
		policy:    policy,
	}
}

// Submit grades the student's answers against the stored questions and records
// the result. Nothing the client sends about correctness is trusted.
func (s *gradingService) Submit(ctx context.Context, student *models.Student, examID uint, req *SubmitExamRequest) (*models.Result, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if !auth.CanAccessGrade(&auth.StudentPrincipal{Student: student}, exam.Grade) {
		return nil, NewPermissionError(student.ID, exam.ID, "exam", "submit", "exam belongs to another grade")
	}
	if !exam.IsActive {
		return nil, ErrExamInactive
	}

	if err := s.checkDeadline(ctx, student, exam, req.AttemptToken); err != nil {
		return nil, err
	}

	var result *models.Result
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := s.checkAttempts(ctx, tx, student, exam); err != nil {
			return err
		}

		questions, err := tx.Question().ListByExam(ctx, exam.ID)
		if err != nil {
			return fmt.Errorf("failed to load questions: %w", err)
		}

		graded := Grade(questions, req.Answers)
		result = &models.Result{
			StudentID:   student.ID,
			ExamID:      exam.ID,
			Score:       graded.Score,
			TotalPoints: graded.TotalPoints,
			Answers:     graded.Answers,
			CompletedAt: auth.NowFunc(),
		}
		if err := tx.Result().Create(ctx, result); err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Exam submitted",
		"result_id", result.ID,
		"student_id", student.ID,
		"exam_id", exam.ID,
		"score", result.Score,
		"total_points", result.TotalPoints)

	publish(ctx, s.deps, events.NewEvent(events.ExamSubmitted, events.ExamSubmittedData{
		ResultID:    result.ID,
		StudentID:   student.ID,
		ExamID:      exam.ID,
		Score:       result.Score,
		TotalPoints: result.TotalPoints,
	}))

	if !exam.ShowResultImmediately {
		hidden := *result
		hidden.Answers = nil
		return &hidden, nil
	}
	return result, nil
}

// checkDeadline enforces the attempt ticket handed out when the exam was opened
func (s *gradingService) checkDeadline(ctx context.Context, student *models.Student, exam *models.Exam, ticket string) error {
	if !s.policy.EnforceDeadline {
		return nil
	}

	claims, err := s.tokens.VerifyAttempt(ticket, student.ID, exam.ID)
	if err != nil {
		return ErrInvalidAttemptToken
	}
	if now := auth.NowFunc(); now.After(claims.Deadline) {
		s.logger.InfoContext(ctx, "Late submission rejected",
			"student_id", student.ID,
			"exam_id", exam.ID,
			"deadline", claims.Deadline,
			"late_by", now.Sub(claims.Deadline).String())
		return NewBusinessRuleError("exam_deadline", "the time allowed for this exam is over",
			map[string]interface{}{"deadline": claims.Deadline}, ErrExamDeadlinePassed)
	}
	return nil
}

// checkAttempts counts earlier results with the student row locked, so two
// concurrent submissions cannot both pass the limit.
func (s *gradingService) checkAttempts(ctx context.Context, tx repositories.Repository, student *models.Student, exam *models.Exam) error {
	if !s.policy.EnforceAttemptLimit || exam.AttemptsAllowed <= 0 {
		return nil
	}

	if _, err := tx.Student().GetByIDForUpdate(ctx, student.ID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to lock student: %w", err)
	}

	used, err := tx.Result().CountByStudentAndExam(ctx, student.ID, exam.ID)
	if err != nil {
		return fmt.Errorf("failed to count attempts: %w", err)
	}
	if used >= int64(exam.AttemptsAllowed) {
		return NewBusinessRuleError("attempt_limit", "no attempts left for this exam",
			map[string]interface{}{"attemptsAllowed": exam.AttemptsAllowed, "used": used}, ErrAttemptLimitReached)
	}
	return nil
}
