package cache

import (
	"context"
	"time"

	"rhive/backoffice/internal/domain"
)

type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.FrequentlySoldReport, bool, error)
	Set(ctx context.Context, key string, value *domain.FrequentlySoldReport, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*domain.FrequentlySoldReport, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *domain.FrequentlySoldReport, _ time.Duration) error {
	return nil
}

func (NoopReportCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
