package util

import (
	"math"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.50 KiB"},
		{1024 * 1024, "1.00 MiB"},
		{500 * 1024 * 1024, "500.00 MiB"},
		{1024 * 1024 * 1024 * 2, "2.00 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{10.5, "00:00:10"},
		{3661, "01:01:01"},
		{-1, "??:??:??"},
		{math.NaN(), "??:??:??"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatDuration(tt.seconds)
			if got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0.000"},
		{1, "1.000"},
		{2.5, "2.500"},
		{-3, "0.000"},
	}

	for _, tt := range tests {
		if got := FormatSeconds(tt.seconds); got != tt.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestParseFFmpegTime(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOk bool
	}{
		{"00:00:00", 0, true},
		{"00:00:01", 1, true},
		{"01:02:03", 3723, true},
		{"00:00:10.00", 10, true},
		{"01:30:45.75", 5445.75, true},
		{"-00:00:00.02", 0, false},
		{"", 0, false},
		{"00:00", 0, false},
		{"N/A", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFFmpegTime(tt.input)
			if ok != tt.wantOk {
				t.Errorf("ParseFFmpegTime(%q) ok = %v, want %v", tt.input, ok, tt.wantOk)
				return
			}
			if ok && got != tt.want {
				t.Errorf("ParseFFmpegTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseBitrate(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"2M", 2_000_000, false},
		{"2m", 2_000_000, false},
		{"1.5M", 1_500_000, false},
		{"800k", 800_000, false},
		{"1500000", 1_500_000, false},
		{" 4M ", 4_000_000, false},
		{"0", 0, true},
		{"", 0, true},
		{"2G", 0, true},
		{"fast", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBitrate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBitrate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBitrate(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCalculateSizeReduction(t *testing.T) {
	tests := []struct {
		input  int64
		output int64
		want   float64
	}{
		{100, 50, 50},
		{1000, 250, 75},
		{0, 100, 0},
		{100, 100, 0},
		{100, 150, -50}, // Output larger = negative reduction
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			got := CalculateSizeReduction(tt.input, tt.output)
			if got != tt.want {
				t.Errorf("CalculateSizeReduction(%d, %d) = %v, want %v", tt.input, tt.output, got, tt.want)
			}
		})
	}
}
