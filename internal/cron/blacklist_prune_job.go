package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/poiquest/poiquest-backend/pkg/logger"
)

type blacklistPruneRepo interface {
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
}

// BlacklistPruneJobParams configure the token blacklist prune job.
type BlacklistPruneJobParams struct {
	Logger     *logger.Logger
	Repository blacklistPruneRepo
}

// NewBlacklistPruneJob builds the job that drops blacklist rows whose tokens
// have expired on their own. An expired token can never verify again, so its
// blacklist row no longer changes any outcome.
func NewBlacklistPruneJob(params BlacklistPruneJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("blacklist repository required")
	}
	return &blacklistPruneJob{
		logg: params.Logger,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type blacklistPruneJob struct {
	logg *logger.Logger
	repo blacklistPruneRepo
	now  func() time.Time
}

func (j *blacklistPruneJob) Name() string { return "blacklist-prune" }

func (j *blacklistPruneJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	pruned, err := j.repo.PruneExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("blacklist prune: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":      now,
		"rows_pruned": pruned,
	})
	j.logg.Info(logCtx, "blacklist prune complete")
	return nil
}
