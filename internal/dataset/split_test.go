package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

func splitRows() []model.FeatureRow {
	return []model.FeatureRow{
		{StudentID: "1", TermCode: "B17Q", Ethnicity: "Asian", Gender: "F", IsHispanic: "False", Target: 1},
		{StudentID: "2", TermCode: "B17Q", Ethnicity: "White", Gender: "M", IsHispanic: "False", Target: 0},
		{StudentID: "3", TermCode: "B18C", Ethnicity: "White", Gender: "M", IsHispanic: "True", Target: 0},
		{StudentID: "4", TermCode: "B18C", Ethnicity: "Black", Gender: "F", IsHispanic: "False", Target: 0},
		{StudentID: "1", TermCode: "B18Q", Ethnicity: "Asian", Gender: "F", IsHispanic: "False", Target: 0},
		{StudentID: "2", TermCode: "B19C", Ethnicity: "White", Gender: "M", IsHispanic: "False", Target: 1},
		{StudentID: "2", TermCode: "B19Q", Ethnicity: "White", Gender: "M", IsHispanic: "False", Target: 0},
	}
}

func TestSplitByTerm_Partitions(t *testing.T) {
	s, err := SplitByTerm(splitRows(), "B18Q", "B19C")
	require.NoError(t, err)

	assert.Len(t, s.Train, 4)
	assert.Len(t, s.Valid, 1)
	assert.Len(t, s.Test, 1)

	termCol := 1
	for _, r := range s.Train {
		assert.Less(t, r[termCol], "B18Q")
	}
	assert.Equal(t, "B18Q", s.Valid[0][termCol])
	assert.Equal(t, "B19C", s.Test[0][termCol])
}

func TestSplitByTerm_OneHotDropsFirstCategory(t *testing.T) {
	s, err := SplitByTerm(splitRows(), "B18Q", "B19C")
	require.NoError(t, err)

	assert.Contains(t, s.Header, "Ethnicity_Black")
	assert.Contains(t, s.Header, "Ethnicity_White")
	assert.NotContains(t, s.Header, "Ethnicity_Asian")
	assert.Contains(t, s.Header, "Gender_M")
	assert.NotContains(t, s.Header, "Gender_F")
	assert.Contains(t, s.Header, "IsHispanic_True")
	assert.NotContains(t, s.Header, "Ethnicity")
	assert.Equal(t, "Target", s.Header[len(s.Header)-1])

	col := func(name string) int {
		for i, h := range s.Header {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %s", name)
		return -1
	}
	for _, r := range append(append(s.Train, s.Valid...), s.Test...) {
		require.Len(t, r, len(s.Header))
	}
	// student 2 in B17Q is White/M
	assert.Equal(t, "1", s.Train[1][col("Ethnicity_White")])
	assert.Equal(t, "0", s.Train[1][col("Ethnicity_Black")])
	assert.Equal(t, "1", s.Train[1][col("Gender_M")])
}

func TestSplitByTerm_Summary(t *testing.T) {
	s, err := SplitByTerm(splitRows(), "B18Q", "B19C")
	require.NoError(t, err)

	assert.Equal(t, 1, s.Summary.Positives)
	assert.Equal(t, 3, s.Summary.Negatives)
	assert.InDelta(t, 0.75, s.Summary.BaselineAccuracy, 1e-9)
	assert.InDelta(t, 3.0, s.Summary.ScalePosWeight, 1e-9)
	assert.Equal(t, 4, s.Summary.TrainRows)
}

func TestSplitByTerm_InvalidTerms(t *testing.T) {
	_, err := SplitByTerm(splitRows(), "B19C", "B18Q")
	assert.ErrorIs(t, err, ErrInvalidSplit)

	_, err = SplitByTerm(splitRows(), "", "B18Q")
	assert.ErrorIs(t, err, ErrInvalidSplit)
}

func TestSplit_Tables(t *testing.T) {
	s, err := SplitByTerm(splitRows(), "B18Q", "B19C")
	require.NoError(t, err)

	tables := s.Tables()
	require.Len(t, tables, 3)
	assert.Equal(t, "train", tables[0].Name())
	assert.Equal(t, 4, tables[0].Len())
	assert.Equal(t, s.Header, tables[2].Header())
}
