package feature

import (
	"sort"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// AggregateMajors computes the major-volatility features per term. Terms
// with no major rows produce no batch at all.
func AggregateMajors(rows []model.MajorRecord, terms []model.TermCode) []TermBatch[model.MajorFeatures] {
	h := newMajorHistory(rows)
	batches := make([]TermBatch[model.MajorFeatures], 0, len(terms))
	for _, t := range terms {
		current := h.in(t)
		if len(current) == 0 {
			continue
		}

		changed := make(map[string]int)
		for _, r := range current {
			if r.Changed() {
				changed[r.StudentID] = 1
			} else if _, ok := changed[r.StudentID]; !ok {
				changed[r.StudentID] = 0
			}
		}
		ids := make([]string, 0, len(changed))
		for id := range changed {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		out := make([]model.MajorFeatures, 0, len(ids))
		for _, id := range ids {
			upTo := h.through(id, t)
			unique := make(map[string]struct{}, len(upTo))
			for _, r := range upTo {
				unique[r.Major] = struct{}{}
			}
			out = append(out, model.MajorFeatures{
				StudentID:            id,
				TermCode:             t,
				MajorChangedFromLast: changed[id],
				NumberOfMajors:       len(upTo),
				NumberOfUniqueMajors: len(unique),
			})
		}
		batches = append(batches, TermBatch[model.MajorFeatures]{Term: t, Rows: out})
	}
	return batches
}
