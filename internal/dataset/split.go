package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// ErrInvalidSplit is returned when the previous/current terms cannot split
// the table.
var ErrInvalidSplit = errors.New("invalid split terms")

// categoricalColumns are one-hot encoded before training.
var categoricalColumns = []string{"Ethnicity", "Gender", "IsHispanic"}

// SplitSummary describes the training partition's class balance.
type SplitSummary struct {
	TrainRows int `json:"train_rows"`
	ValidRows int `json:"valid_rows"`
	TestRows  int `json:"test_rows"`
	Positives int `json:"positives"`
	Negatives int `json:"negatives"`
	// BaselineAccuracy is the accuracy of predicting that nobody withdraws.
	BaselineAccuracy float64 `json:"baseline_accuracy"`
	// ScalePosWeight is negatives/positives, the usual class-imbalance weight.
	ScalePosWeight float64 `json:"scale_pos_weight"`
}

// Split is the encoded training table partitioned by term.
type Split struct {
	Header  []string
	Train   [][]string
	Valid   [][]string
	Test    [][]string
	Summary SplitSummary
}

// Tables returns the partitions as writable tables named train/valid/test.
func (s *Split) Tables() []Table {
	enc := func(r []string) []string { return r }
	return []Table{
		NewTable("train", s.Header, s.Train, enc),
		NewTable("valid", s.Header, s.Valid, enc),
		NewTable("test", s.Header, s.Test, enc),
	}
}

// SplitByTerm one-hot encodes the demographic columns (dropping the first
// category of each) and partitions rows: train before prev, valid at prev,
// test at curr. Rows after curr, or strictly between prev and curr, are left
// out.
func SplitByTerm(rows []model.FeatureRow, prev, curr model.TermCode) (*Split, error) {
	if !prev.Valid() || !curr.Valid() || !prev.Before(curr) {
		return nil, fmt.Errorf("%w: prev=%q curr=%q", ErrInvalidSplit, prev, curr)
	}

	values := func(r model.FeatureRow) []string { return []string{r.Ethnicity, r.Gender, r.IsHispanic} }
	categories := make([][]string, len(categoricalColumns))
	for i := range categoricalColumns {
		seen := make(map[string]struct{})
		for _, r := range rows {
			seen[values(r)[i]] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		if len(cats) > 0 {
			cats = cats[1:]
		}
		categories[i] = cats
	}

	// StudentID, TermCode, numeric features, one-hot columns, Target.
	header := []string{"StudentID", "TermCode"}
	numeric := make([]int, 0, len(FeatureHeader))
	for i, col := range FeatureHeader {
		switch col {
		case "StudentID", "TermCode", "Target", "Ethnicity", "Gender", "IsHispanic":
			continue
		}
		numeric = append(numeric, i)
		header = append(header, col)
	}
	for i, col := range categoricalColumns {
		for _, c := range categories[i] {
			header = append(header, col+"_"+c)
		}
	}
	header = append(header, "Target")

	s := &Split{Header: header}
	var labels []float64
	for _, r := range rows {
		var dst *[][]string
		switch {
		case r.TermCode.Before(prev):
			dst = &s.Train
			labels = append(labels, float64(r.Target))
		case r.TermCode == prev:
			dst = &s.Valid
		case r.TermCode == curr:
			dst = &s.Test
		default:
			continue
		}

		encoded := encodeFeatureRow(r)
		out := make([]string, 0, len(header))
		out = append(out, r.StudentID, string(r.TermCode))
		for _, i := range numeric {
			out = append(out, encoded[i])
		}
		vals := values(r)
		for i := range categoricalColumns {
			for _, c := range categories[i] {
				if vals[i] == c {
					out = append(out, "1")
				} else {
					out = append(out, "0")
				}
			}
		}
		out = append(out, strconv.Itoa(r.Target))
		*dst = append(*dst, out)
	}

	s.Summary = summarize(labels)
	s.Summary.TrainRows = len(s.Train)
	s.Summary.ValidRows = len(s.Valid)
	s.Summary.TestRows = len(s.Test)
	return s, nil
}

func summarize(labels []float64) SplitSummary {
	var sum SplitSummary
	if len(labels) == 0 {
		return sum
	}
	rate := stat.Mean(labels, nil)
	for _, l := range labels {
		if l == 1 {
			sum.Positives++
		} else {
			sum.Negatives++
		}
	}
	sum.BaselineAccuracy = 1 - rate
	if sum.Positives > 0 {
		sum.ScalePosWeight = float64(sum.Negatives) / float64(sum.Positives)
	}
	return sum
}
