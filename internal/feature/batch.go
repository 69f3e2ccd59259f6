package feature

import "github.com/gcedu/attrition-pipeline/internal/model"

// TermBatch holds the rows computed for a single term.
type TermBatch[T any] struct {
	Term model.TermCode
	Rows []T
}

// Concat flattens batches in order. Batches are produced in ascending term
// order, so the result is sorted by term.
func Concat[T any](batches []TermBatch[T]) []T {
	n := 0
	for _, b := range batches {
		n += len(b.Rows)
	}
	out := make([]T, 0, n)
	for _, b := range batches {
		out = append(out, b.Rows...)
	}
	return out
}
