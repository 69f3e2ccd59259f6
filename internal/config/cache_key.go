package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PreprocessLockKey returns the lock key guarding cleaned-<week>.csv.
func (r *CacheKeyStruct) PreprocessLockKey(week int) string {
	return fmt.Sprintf("pipeline:preprocess:%d", week)
}

// RunReportKey returns the key holding a finished run's report.
func (r *CacheKeyStruct) RunReportKey(runID string) string {
	return fmt.Sprintf("pipeline:run:%s", runID)
}

// RunListKey returns the list of recent run ids, newest first.
func (r *CacheKeyStruct) RunListKey() string {
	return "pipeline:runs"
}

var CacheKey = NewCacheKeyStruct()
