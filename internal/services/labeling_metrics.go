package services

import (
	"context"
	"time"
)

// LabelingMetrics receives counters from the labeling service.
type LabelingMetrics interface {
	RecordNavigation(ctx context.Context, action string, role string)
	RecordSave(ctx context.Context, role string, err error)
	RecordWorklistBuild(ctx context.Context, role string, size int, elapsed time.Duration, err error)
	RecordReset(ctx context.Context, role string)
}

type noopMetrics struct{}

func (noopMetrics) RecordNavigation(context.Context, string, string)                       {}
func (noopMetrics) RecordSave(context.Context, string, error)                              {}
func (noopMetrics) RecordWorklistBuild(context.Context, string, int, time.Duration, error) {}
func (noopMetrics) RecordReset(context.Context, string)                                    {}
