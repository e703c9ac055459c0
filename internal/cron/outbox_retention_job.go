package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
)

const (
	outboxRetentionJobName = "outbox-retention"
	dlqRetentionJobName    = "outbox-dlq-retention"

	defaultOutboxRetentionDays = 30
	defaultDLQRetentionDays    = 90
	defaultExhaustedAttempts   = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type deletedRecorder interface {
	AddDeleted(job string, rows int64)
}

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type dlqPurger interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxPurger
	Metrics    deletedRecorder
	// RetentionDays is how long published rows are kept.
	RetentionDays int
	// ExhaustedAttempts matches the publisher's max attempts; rows at or past it
	// are purged once the DLQ holds their copy.
	ExhaustedAttempts int
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultOutboxRetentionDays
	}
	attempts := params.ExhaustedAttempts
	if attempts <= 0 {
		attempts = defaultExhaustedAttempts
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		metrics:   params.Metrics,
		retention: retention,
		attempts:  attempts,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      outboxPurger
	metrics   deletedRecorder
	retention int
	attempts  int
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return outboxRetentionJobName }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := retentionCutoff(j.now(), j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.attempts)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("purge outbox events: %w", err)
	}
	if j.metrics != nil {
		j.metrics.AddDeleted(j.Name(), deleted)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	}), "outbox retention complete")
	return nil
}

type DLQRetentionJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    dlqPurger
	Metrics       deletedRecorder
	RetentionDays int
}

func NewDLQRetentionJob(params DLQRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("dlq repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultDLQRetentionDays
	}
	return &dlqRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		metrics:   params.Metrics,
		retention: retention,
		now:       time.Now,
	}, nil
}

type dlqRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      dlqPurger
	metrics   deletedRecorder
	retention int
	now       func() time.Time
}

func (j *dlqRetentionJob) Name() string { return dlqRetentionJobName }

func (j *dlqRetentionJob) Run(ctx context.Context) error {
	cutoff := retentionCutoff(j.now(), j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteFailedBefore(ctx, tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return fmt.Errorf("purge dlq: %w", err)
	}
	if j.metrics != nil {
		j.metrics.AddDeleted(j.Name(), deleted)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "dlq retention complete")
	return nil
}

func retentionCutoff(now time.Time, days int) time.Time {
	return now.UTC().Add(-time.Duration(days) * 24 * time.Hour)
}
