// Package storage holds photo files on disk and enforces the per-household
// storage quota.
package storage

import (
	"errors"
	"fmt"
)

// Per-household photo storage quota.
const (
	// QuotaBytes is the fixed storage allowance per household.
	QuotaBytes int64 = 500 * 1024 * 1024
	// WarnFraction of the quota at which list and upload responses start
	// carrying a warning flag.
	WarnFraction = 0.80
)

// ErrQuotaExceeded rejects an upload that does not fit in the remaining
// quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Quota reports a household's storage usage.
type Quota struct {
	UsedBytes  int64 `json:"used_bytes"`
	LimitBytes int64 `json:"limit_bytes"`
	Warning    bool  `json:"warning"`
}

// NewQuota builds the usage report for the given consumption.
func NewQuota(usedBytes int64) Quota {
	return Quota{
		UsedBytes:  usedBytes,
		LimitBytes: QuotaBytes,
		Warning:    float64(usedBytes) >= WarnFraction*float64(QuotaBytes),
	}
}

// Remaining returns the unconsumed quota, never negative.
func (q Quota) Remaining() int64 {
	if q.UsedBytes >= q.LimitBytes {
		return 0
	}
	return q.LimitBytes - q.UsedBytes
}

// CheckUpload rejects an upload larger than the remaining quota.
func (q Quota) CheckUpload(sizeBytes int64) error {
	if sizeBytes > q.Remaining() {
		return fmt.Errorf("upload of %s exceeds remaining quota of %s: %w",
			FormatBytes(sizeBytes), FormatBytes(q.Remaining()), ErrQuotaExceeded)
	}
	return nil
}

// FormatBytes renders a byte count for humans: FormatBytes(0) == "0 B",
// FormatBytes(1536) == "1.5 KB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
