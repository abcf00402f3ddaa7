package service

import (
	"context"
	"time"

	"ecolearn_backend/pkg/logger"

	"go.uber.org/zap"
)

// Reconciler recomputes every user's cached totals from the points log on a
// schedule. The log is the source of truth; any drift in the projection is
// corrected and reported. Safe to run concurrently with live traffic: each
// recompute takes the same row lock as an append.
type Reconciler struct {
	users  UserRepository
	points PointsRepository
}

func NewReconciler(users UserRepository, points PointsRepository) *Reconciler {
	return &Reconciler{
		users:  users,
		points: points,
	}
}

func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	log := logger.Logger()

	ids, err := r.users.ListUserIDs(ctx)
	if err != nil {
		return err
	}

	for _, id := range ids {
		drift, err := r.points.RecomputeProgress(ctx, id)
		if err != nil {
			log.Error("failed to reconcile user progress",
				zap.String("user_id", id.String()),
				zap.Error(err))
			continue
		}
		if drift != 0 {
			log.Warn("corrected points projection drift",
				zap.String("user_id", id.String()),
				zap.Int("drift", drift))
		}
	}

	return nil
}

func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	log := logger.Logger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("reconciler stopped")
			return
		case <-ticker.C:
			if err := r.ReconcileAll(ctx); err != nil {
				log.Error("reconciliation pass failed", zap.Error(err))
			}
		}
	}
}
