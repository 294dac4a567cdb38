package cache

import (
	"context"
	"time"

	"go-bar-manager/internal/model"
)

// SnapshotCache holds the sales snapshots of one bar, keyed by bar.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]model.SalesSnapshot, bool, error)
	Set(ctx context.Context, key string, value []model.SalesSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(_ context.Context, _ string) ([]model.SalesSnapshot, bool, error) {
	return nil, false, nil
}

func (NoopSnapshotCache) Set(_ context.Context, _ string, _ []model.SalesSnapshot, _ time.Duration) error {
	return nil
}

func (NoopSnapshotCache) Delete(_ context.Context, _ string) error {
	return nil
}

// SnapshotKey is the cache key of a bar's snapshots
func SnapshotKey(barID string) string {
	return "stats:snapshots:" + barID
}
