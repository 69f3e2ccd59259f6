package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gcedu/attrition-pipeline/internal/config"
	"github.com/gcedu/attrition-pipeline/internal/dataset"
	"github.com/gcedu/attrition-pipeline/internal/feature"
	"github.com/gcedu/attrition-pipeline/internal/model"
)

// ErrRunInProgress is returned when another preprocess run holds the lock
// for the same week.
var ErrRunInProgress = errors.New("a run for this week is already in progress")

// recentRuns is how many run ids the run list keeps.
const recentRuns = 50

// RunReport summarizes one preprocess run.
type RunReport struct {
	ID                  string              `json:"id"`
	Week                int                 `json:"week"`
	Output              string              `json:"output"`
	Rows                int                 `json:"rows"`
	Terms               []model.TermCode    `json:"terms"`
	TermCounts          []feature.TermCount `json:"term_counts"`
	MalformedTerms      []string            `json:"malformed_terms,omitempty"`
	CurrentWeeks        []model.WeekMarker  `json:"current_weeks,omitempty"`
	DuplicateAttendance int                 `json:"duplicate_attendance"`
	Loads               []dataset.LoadStats `json:"loads"`
	Join                feature.JoinReport  `json:"join"`
	StartedAt           time.Time           `json:"started_at"`
	Duration            time.Duration       `json:"duration"`
}

// NewRunReport starts a report with a fresh run id.
func NewRunReport(week int, now time.Time) *RunReport {
	return &RunReport{ID: uuid.NewString(), Week: week, StartedAt: now}
}

// RunRegistry serializes preprocess runs per week and keeps their reports.
type RunRegistry interface {
	// Acquire takes the week's lock. The returned release must be called
	// once the run ends.
	Acquire(ctx context.Context, week int) (release func(context.Context) error, err error)
	// Publish stores a finished run's report.
	Publish(ctx context.Context, report *RunReport) error
}

// NoopRegistry is used when no Redis is configured.
type NoopRegistry struct{}

func (NoopRegistry) Acquire(context.Context, int) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

func (NoopRegistry) Publish(context.Context, *RunReport) error { return nil }

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisRegistry keeps locks and reports in Redis.
type RedisRegistry struct {
	rdb       redis.Cmdable
	lockTTL   time.Duration
	reportTTL time.Duration
	log       zerolog.Logger
}

// NewRedisRegistry creates a RedisRegistry. lockTTL bounds how long a crashed
// run can block the next one.
func NewRedisRegistry(rdb redis.Cmdable, lockTTL, reportTTL time.Duration, log zerolog.Logger) *RedisRegistry {
	return &RedisRegistry{
		rdb:       rdb,
		lockTTL:   lockTTL,
		reportTTL: reportTTL,
		log:       log.With().Str("component", "run_registry").Logger(),
	}
}

func (r *RedisRegistry) Acquire(ctx context.Context, week int) (func(context.Context) error, error) {
	key := config.CacheKey.PreprocessLockKey(week)
	token := uuid.NewString()

	ok, err := r.rdb.SetNX(ctx, key, token, r.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: week %d", ErrRunInProgress, week)
	}
	r.log.Debug().Str("key", key).Dur("ttl", r.lockTTL).Msg("Lock acquired")

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release %s: %w", key, err)
		}
		return nil
	}, nil
}

func (r *RedisRegistry) Publish(ctx context.Context, report *RunReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}

	listKey := config.CacheKey.RunListKey()
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.RunReportKey(report.ID), data, r.reportTTL)
	pipe.LPush(ctx, listKey, report.ID)
	pipe.LTrim(ctx, listKey, 0, recentRuns-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish run report: %w", err)
	}

	r.log.Info().Str("run_id", report.ID).Msg("Run report published")
	return nil
}

// Recent returns up to n of the latest run reports, newest first. Reports
// that have expired are skipped.
func (r *RedisRegistry) Recent(ctx context.Context, n int) ([]RunReport, error) {
	ids, err := r.rdb.LRange(ctx, config.CacheKey.RunListKey(), 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	reports := make([]RunReport, 0, len(ids))
	for _, id := range ids {
		data, err := r.rdb.Get(ctx, config.CacheKey.RunReportKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get run %s: %w", id, err)
		}
		var rep RunReport
		if err := json.Unmarshal(data, &rep); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
