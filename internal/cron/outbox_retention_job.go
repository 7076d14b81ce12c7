package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Abhijit5011/Electromart/pkg/logger"
)

const (
	defaultOutboxRetentionDays = 30
	defaultOutboxKeepAttempts  = 5
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

// OutboxRetentionJobParams configure outbox pruning.
type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    outboxPruner
	RetentionDays int
	// Published rows that needed at least this many attempts are kept for inspection.
	KeepAttempts int
}

type outboxRetentionJob struct {
	logg          *logger.Logger
	db            txRunner
	repo          outboxPruner
	retentionDays int
	keepAttempts  int
	now           func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultOutboxRetentionDays
	}
	keep := params.KeepAttempts
	if keep <= 0 {
		keep = defaultOutboxKeepAttempts
	}
	return &outboxRetentionJob{
		logg:          params.Logger,
		db:            params.DB,
		repo:          params.Repository,
		retentionDays: days,
		keepAttempts:  keep,
		now:           time.Now,
	}, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retentionDays)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.keepAttempts)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("prune outbox: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "outbox pruned")
	return nil
}
