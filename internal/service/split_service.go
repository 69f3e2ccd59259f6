package service

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/gcedu/attrition-pipeline/internal/dataset"
	"github.com/gcedu/attrition-pipeline/internal/model"
)

// SplitService writes the train/valid/test partitions of a cleaned table.
type SplitService struct {
	processedDir string
	log          zerolog.Logger
}

// NewSplitService creates a new SplitService.
func NewSplitService(processedDir string, log zerolog.Logger) *SplitService {
	return &SplitService{
		processedDir: processedDir,
		log:          log.With().Str("component", "split_service").Logger(),
	}
}

// Split reads cleaned-<week>.csv, encodes it and writes train.csv,
// valid.csv and test.csv next to it.
func (s *SplitService) Split(_ context.Context, week int, prev, curr model.TermCode) (*dataset.SplitSummary, error) {
	path := dataset.CleanedPath(s.processedDir, week)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cleaned table: %w", err)
	}
	defer f.Close()

	rows, stats, err := dataset.ReadFeatures(f)
	if err != nil {
		return nil, err
	}
	if stats.Skipped > 0 {
		s.log.Warn().
			Int("skipped", stats.Skipped).
			Str("first_error", stats.FirstError).
			Msg("Skipped unreadable feature rows")
	}

	split, err := dataset.SplitByTerm(rows, prev, curr)
	if err != nil {
		return nil, err
	}
	for _, t := range split.Tables() {
		if _, err := dataset.WriteFile(s.processedDir, t); err != nil {
			return nil, err
		}
	}

	sum := split.Summary
	s.log.Info().
		Str("prev_term", string(prev)).
		Str("curr_term", string(curr)).
		Int("train", sum.TrainRows).
		Int("valid", sum.ValidRows).
		Int("test", sum.TestRows).
		Int("positives", sum.Positives).
		Int("negatives", sum.Negatives).
		Float64("baseline_accuracy", sum.BaselineAccuracy).
		Float64("scale_pos_weight", sum.ScalePosWeight).
		Msg("Split written")
	return &sum, nil
}
