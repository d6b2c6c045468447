package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mohammedtarek206/elamid/internal/cache"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

const resultsSheet = "Results"

var resultsHeader = []interface{}{
	"Result ID", "Student", "Exam", "Grade", "Score", "Total Points", "Percentage", "Completed At",
}

type resultService struct {
	repo   repositories.Repository
	logger *slog.Logger
	cache  *cache.CacheManager
}

func NewResultService(deps Dependencies) ResultService {
	return &resultService{
		repo:   deps.Repo,
		logger: deps.Logger,
		cache:  deps.Cache,
	}
}

// List returns every result newest first with student and exam names
func (s *resultService) List(ctx context.Context) ([]*models.ResultSummary, error) {
	results, err := s.repo.Result().ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

func (s *resultService) GetByID(ctx context.Context, id uint) (*models.Result, error) {
	result, err := s.repo.Result().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, nil
}

func (s *resultService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Result().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrResultNotFound
		}
		return fmt.Errorf("failed to delete result: %w", err)
	}

	cache.InvalidateStatsCache(ctx, s.cache)
	s.logger.InfoContext(ctx, "Result deleted", "result_id", id)
	return nil
}

// Export writes one row per result. Results whose student or exam is gone keep
// empty name cells; a 0/0 result has an empty percentage.
func (s *resultService) Export(ctx context.Context, w io.Writer) error {
	results, err := s.List(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.WarnContext(ctx, "Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &resultsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(resultsSheet, "A1", "H1", style)
	}

	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.ID,
			r.StudentName,
			r.ExamTitle,
			gradeCell(r.ExamGrade),
			r.Score,
			r.TotalPoints,
			percentageCell(r.Score, r.TotalPoints),
			r.CompletedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(resultsSheet, "B", "C", 28); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.InfoContext(ctx, "Results exported", "rows", len(results))
	return nil
}

func gradeCell(g models.Grade) interface{} {
	if !g.Valid() {
		return ""
	}
	return int(g)
}

// percentageCell truncates to two decimals; 0/0 has no percentage
func percentageCell(score, total int) interface{} {
	if total == 0 {
		return ""
	}
	return float64(score*10000/total) / 100
}
