package service

import (
	"fmt"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
)

// ThresholdPolicy bands completion percentages for display.
type ThresholdPolicy struct {
	Good int `json:"good"`
	Warn int `json:"warn"`
}

func DefaultThresholdPolicy() ThresholdPolicy {
	return ThresholdPolicy{Good: 90, Warn: 80}
}

func (p ThresholdPolicy) Validate() error {
	if p.Good < 0 || p.Good > 100 || p.Warn < 0 || p.Warn > 100 {
		return fmt.Errorf("thresholds must be within 0..100, got good=%d warn=%d", p.Good, p.Warn)
	}
	if p.Warn > p.Good {
		return fmt.Errorf("warn threshold %d is above good threshold %d", p.Warn, p.Good)
	}
	return nil
}

// Bucket maps pct to good (>= Good), warn (>= Warn) or bad.
func (p ThresholdPolicy) Bucket(pct int) model.Bucket {
	switch {
	case pct >= p.Good:
		return model.BucketGood
	case pct >= p.Warn:
		return model.BucketWarn
	default:
		return model.BucketBad
	}
}
