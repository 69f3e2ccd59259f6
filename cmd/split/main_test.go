package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    splitArgs
		wantErr error
	}{
		{name: "week only", args: []string{"-w", "3"}, want: splitArgs{week: 3}},
		{name: "terms", args: []string{"-w", "3", "-prev", "B18C", "-curr", "B18Q"}, want: splitArgs{week: 3, prev: "B18C", curr: "B18Q"}},
		{name: "lowercase term", args: []string{"-w", "3", "-curr", "b18q"}, wantErr: model.ErrInvalidTermCode},
		{name: "text term", args: []string{"-w", "3", "-prev", "Fall 2018"}, wantErr: model.ErrInvalidTermCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args, &bytes.Buffer{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArgs_MissingWeek(t *testing.T) {
	var out bytes.Buffer
	_, err := parseArgs([]string{"-curr", "B18Q"}, &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "Usage: split")

	_, err = parseArgs([]string{"-h"}, &out)
	assert.ErrorIs(t, err, errHelp)
}
