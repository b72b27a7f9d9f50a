package text

import (
	"testing"
	"time"
)

func TestFormatFileSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		size int64
		want string
	}{
		{name: "zero", size: 0, want: "0B"},
		{name: "negative", size: -5, want: "0B"},
		{name: "bytes", size: 512, want: "512 B"},
		{name: "kilobytes", size: 2048, want: "2.00 KB"},
		{name: "megabytes", size: 5 * 1024 * 1024, want: "5.00 MB"},
		{name: "fractional megabytes", size: 1536 * 1024, want: "1.50 MB"},
		{name: "gigabytes", size: 3 * 1024 * 1024 * 1024, want: "3.00 GB"},
		{name: "caps at gigabytes", size: 2048 * 1024 * 1024 * 1024, want: "2048.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatFileSize(tt.size); got != tt.want {
				t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "zero", d: 0, want: "0:00:00"},
		{name: "negative clamps to zero", d: -time.Minute, want: "0:00:00"},
		{name: "seconds only", d: 42 * time.Second, want: "0:00:42"},
		{name: "minutes and seconds", d: 3*time.Minute + 7*time.Second, want: "0:03:07"},
		{name: "hours roll over", d: 25*time.Hour + 61*time.Second, want: "25:01:01"},
		{name: "sub-second rounded", d: 1500 * time.Millisecond, want: "0:00:02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}
