package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWeek(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr bool
	}{
		{name: "short flag", args: []string{"-w", "4"}, want: 4},
		{name: "long flag", args: []string{"-week_number=12"}, want: 12},
		{name: "double dash", args: []string{"--week_number", "1"}, want: 1},
		{name: "missing", args: nil, wantErr: true},
		{name: "zero", args: []string{"-w", "0"}, wantErr: true},
		{name: "negative", args: []string{"-w", "-3"}, wantErr: true},
		{name: "not a number", args: []string{"-w", "three"}, wantErr: true},
		{name: "unknown flag", args: []string{"-x", "1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := parseWeek(tt.args, &out)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, out.String(), "Usage: preprocess")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWeek_Help(t *testing.T) {
	var out bytes.Buffer
	_, err := parseWeek([]string{"-h"}, &out)
	assert.ErrorIs(t, err, errHelp)
	assert.Contains(t, out.String(), "-week_number")
}
