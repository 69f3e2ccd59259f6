package dataset

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// FeatureHeader is the column order of the training table.
var FeatureHeader = []string{
	"StudentID", "Attempted", "Full", "Age", "Dev", "Internet",
	"PercentageOfRepeats", "PercentageOfHistDrop", "TermCode",
	"MajorChangedFromLast", "NumberOfMajors", "NumberOfUniqueMajors",
	"TermGPALast", "CumGPALast", "PercentageOfAbsence",
	"Ethnicity", "Gender", "IsHispanic", "Target",
}

// CleanedPath is the training table written for an attendance week.
func CleanedPath(dir string, week int) string {
	return filepath.Join(dir, fmt.Sprintf("cleaned-%d.csv", week))
}

func encodeFeatureRow(r model.FeatureRow) []string {
	return []string{
		r.StudentID,
		formatFloat(r.Attempted),
		strconv.Itoa(r.Full),
		strconv.Itoa(r.Age),
		strconv.Itoa(r.Dev),
		strconv.Itoa(r.Internet),
		formatFloat(r.PercentageOfRepeats),
		formatFloat(r.PercentageOfHistDrop),
		string(r.TermCode),
		strconv.Itoa(r.MajorChangedFromLast),
		strconv.Itoa(r.NumberOfMajors),
		strconv.Itoa(r.NumberOfUniqueMajors),
		formatFloat(r.TermGPALast),
		formatFloat(r.CumGPALast),
		formatFloat(r.PercentageOfAbsence),
		r.Ethnicity,
		r.Gender,
		r.IsHispanic,
		strconv.Itoa(r.Target),
	}
}

// FeatureTable wraps training rows for writing.
func FeatureTable(name string, rows []model.FeatureRow) Table {
	return NewTable(name, FeatureHeader, rows, encodeFeatureRow)
}

// ReadFeatures decodes a training table written by FeatureTable.
func ReadFeatures(r io.Reader) ([]model.FeatureRow, LoadStats, error) {
	return readCSV(r, "features", FeatureHeader, func(rec record) (model.FeatureRow, error) {
		f := model.FeatureRow{
			StudentID:  rec.str("StudentID"),
			TermCode:   model.TermCode(rec.str("TermCode")),
			Ethnicity:  rec.str("Ethnicity"),
			Gender:     rec.str("Gender"),
			IsHispanic: rec.str("IsHispanic"),
		}
		floats := []struct {
			col string
			dst *float64
		}{
			{"Attempted", &f.Attempted},
			{"PercentageOfRepeats", &f.PercentageOfRepeats},
			{"PercentageOfHistDrop", &f.PercentageOfHistDrop},
			{"TermGPALast", &f.TermGPALast},
			{"CumGPALast", &f.CumGPALast},
			{"PercentageOfAbsence", &f.PercentageOfAbsence},
		}
		for _, fl := range floats {
			v, err := rec.num(fl.col)
			if err != nil {
				return f, err
			}
			*fl.dst = v
		}
		ints := []struct {
			col string
			dst *int
		}{
			{"Full", &f.Full},
			{"Age", &f.Age},
			{"Dev", &f.Dev},
			{"Internet", &f.Internet},
			{"MajorChangedFromLast", &f.MajorChangedFromLast},
			{"NumberOfMajors", &f.NumberOfMajors},
			{"NumberOfUniqueMajors", &f.NumberOfUniqueMajors},
			{"Target", &f.Target},
		}
		for _, in := range ints {
			v, err := rec.integer(in.col)
			if err != nil {
				return f, err
			}
			*in.dst = v
		}
		return f, nil
	})
}
