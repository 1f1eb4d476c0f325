package shared

import "time"

// Bounds applied by [Settings.Sanitize].
const (
	MaxThrottleMs       = 10000
	MinSortAttempts     = 1
	MaxSortAttempts     = 30
	MinBatchDeleteCount = 1
	MaxBatchDeleteCount = 50
)

// Settings holds the tunables that drive a scan or deletion run.
//
// Values loaded from config or flags may be out of range; call [Settings.Sanitize] before use.
type Settings struct {
	ScanPageThrottleMs    int `toml:"scan_page_throttle_ms" json:"scanPageThrottleMs" yaml:"scanPageThrottleMs"`
	DeleteThrottleMs      int `toml:"delete_throttle_ms" json:"deleteThrottleMs" yaml:"deleteThrottleMs"`
	SortVerifyMaxAttempts int `toml:"sort_verify_max_attempts" json:"sortVerifyMaxAttempts" yaml:"sortVerifyMaxAttempts"`
	SortVerifyPollMs      int `toml:"sort_verify_poll_ms" json:"sortVerifyPollMs" yaml:"sortVerifyPollMs"`
	BatchDeleteCount      int `toml:"batch_delete_count" json:"batchDeleteCount" yaml:"batchDeleteCount"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		ScanPageThrottleMs:    50,
		DeleteThrottleMs:      50,
		SortVerifyMaxAttempts: 6,
		SortVerifyPollMs:      350,
		BatchDeleteCount:      1,
	}
}

// Sanitize returns a copy with every field clamped into its valid range.
func (s Settings) Sanitize() Settings {
	return Settings{
		ScanPageThrottleMs:    ClampInt(s.ScanPageThrottleMs, 0, MaxThrottleMs),
		DeleteThrottleMs:      ClampInt(s.DeleteThrottleMs, 0, MaxThrottleMs),
		SortVerifyMaxAttempts: ClampInt(s.SortVerifyMaxAttempts, MinSortAttempts, MaxSortAttempts),
		SortVerifyPollMs:      ClampInt(s.SortVerifyPollMs, 0, MaxThrottleMs),
		BatchDeleteCount:      ClampInt(s.BatchDeleteCount, MinBatchDeleteCount, MaxBatchDeleteCount),
	}
}

// ScanPageThrottle returns the page throttle as a [time.Duration].
func (s Settings) ScanPageThrottle() time.Duration {
	return Millis(s.ScanPageThrottleMs)
}

// DeleteThrottle returns the inter-batch delay as a [time.Duration].
func (s Settings) DeleteThrottle() time.Duration {
	return Millis(s.DeleteThrottleMs)
}

// SortVerifyPoll returns the sort verification poll interval as a [time.Duration].
func (s Settings) SortVerifyPoll() time.Duration {
	return Millis(s.SortVerifyPollMs)
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Millis converts a millisecond count into a [time.Duration]; negative values become zero.
func Millis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
