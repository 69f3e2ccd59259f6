package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

func TestAggregateMajors_UnchangedMajor(t *testing.T) {
	rows := []model.MajorRecord{
		major("s1", "B17Q", "Nursing", "Nursing"),
		major("s1", "B18C", "Nursing", "Nursing"),
	}

	batches := AggregateMajors(rows, []model.TermCode{"B17Q", "B18C"})

	f, ok := findMajor(batches, "s1", "B18C")
	require.True(t, ok)
	assert.Equal(t, 0, f.MajorChangedFromLast)
	assert.Equal(t, 2, f.NumberOfMajors)
	assert.Equal(t, 1, f.NumberOfUniqueMajors)
}

func TestAggregateMajors_ChangedMajor(t *testing.T) {
	rows := []model.MajorRecord{
		major("s1", "B17Q", "Nursing", "Nursing"),
		major("s1", "B18C", "Biology", "Nursing"),
		major("s1", "B18Q", "Biology", "Biology"),
	}

	batches := AggregateMajors(rows, []model.TermCode{"B17Q", "B18C", "B18Q"})

	spring, ok := findMajor(batches, "s1", "B18C")
	require.True(t, ok)
	assert.Equal(t, 1, spring.MajorChangedFromLast)
	assert.Equal(t, 2, spring.NumberOfMajors)
	assert.Equal(t, 2, spring.NumberOfUniqueMajors)

	fall, ok := findMajor(batches, "s1", "B18Q")
	require.True(t, ok)
	assert.Equal(t, 0, fall.MajorChangedFromLast)
	assert.Equal(t, 3, fall.NumberOfMajors)
	assert.Equal(t, 2, fall.NumberOfUniqueMajors)
}

func TestAggregateMajors_SkipsTermsWithoutRows(t *testing.T) {
	rows := []model.MajorRecord{
		major("s1", "B17Q", "Nursing", "Nursing"),
		major("s1", "B18Q", "Nursing", "Nursing"),
	}

	batches := AggregateMajors(rows, []model.TermCode{"B17Q", "B18C", "B18Q"})

	require.Len(t, batches, 2)
	assert.Equal(t, model.TermCode("B17Q"), batches[0].Term)
	assert.Equal(t, model.TermCode("B18Q"), batches[1].Term)
}

func TestAggregateMajors_FutureRowsIgnored(t *testing.T) {
	rows := []model.MajorRecord{
		major("s1", "B17Q", "Nursing", "Nursing"),
		major("s1", "B19Q", "Art", "Nursing"),
	}

	batches := AggregateMajors(rows, []model.TermCode{"B17Q"})

	f, ok := findMajor(batches, "s1", "B17Q")
	require.True(t, ok)
	assert.Equal(t, 1, f.NumberOfMajors)
	assert.Equal(t, 1, f.NumberOfUniqueMajors)
}

func TestAggregateMajors_UniqueNeverExceedsTotal(t *testing.T) {
	rows := []model.MajorRecord{
		major("s1", "B17Q", "A", "A"),
		major("s1", "B17Q", "B", "A"),
		major("s1", "B18C", "A", "B"),
		major("s2", "B18C", "C", "C"),
		major("s2", "B18Q", "C", "C"),
		major("s2", "B18Q", "D", "C"),
	}
	terms := []model.TermCode{"B17Q", "B18C", "B18Q"}

	for _, f := range Concat(AggregateMajors(rows, terms)) {
		assert.LessOrEqual(t, f.NumberOfUniqueMajors, f.NumberOfMajors, "%s/%s", f.StudentID, f.TermCode)
	}

	f, ok := findMajor(AggregateMajors(rows, terms), "s1", "B17Q")
	require.True(t, ok)
	assert.Equal(t, 1, f.MajorChangedFromLast, "any changed row in the term marks a change")
}
