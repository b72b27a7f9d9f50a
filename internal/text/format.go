// Package text provides small text formatting helpers used in bot replies.
package text

import (
	"fmt"
	"time"
)

// FormatFileSize renders a byte count in human-readable form (B, KB, MB, GB).
func FormatFileSize(sizeBytes int64) string {
	if sizeBytes <= 0 {
		return "0B"
	}

	units := []string{"B", "KB", "MB", "GB"}
	size := float64(sizeBytes)
	idx := 0
	for size >= 1024 && idx < len(units)-1 {
		size /= 1024
		idx++
	}
	if idx == 0 {
		return fmt.Sprintf("%d %s", sizeBytes, units[0])
	}
	return fmt.Sprintf("%.2f %s", size, units[idx])
}

// FormatDuration renders a duration as HH:MM:SS, dropping sub-second noise.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
