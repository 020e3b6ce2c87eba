package ffmpeg

import (
	"strings"
	"testing"
)

func TestCodecParamsBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func() string
		contains []string
		want     string
	}{
		{
			name: "keyframe interval",
			build: func() string {
				return NewCodecParamsBuilder().
					WithKeyint(60).
					WithMinKeyint(30).
					Build()
			},
			want: "keyint=60:min-keyint=30",
		},
		{
			name: "zero values skipped",
			build: func() string {
				return NewCodecParamsBuilder().
					WithKeyint(0).
					WithLogLevel("").
					Build()
			},
			want: "",
		},
		{
			name: "chained params",
			build: func() string {
				return NewCodecParamsBuilder().
					WithKeyint(48).
					WithMinKeyint(24).
					WithLogLevel("error").
					Build()
			},
			contains: []string{"keyint=48", "min-keyint=24", "log-level=error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.build()
			if tt.contains == nil && result != tt.want {
				t.Errorf("result = %q, want %q", result, tt.want)
			}
			for _, want := range tt.contains {
				if !strings.Contains(result, want) {
					t.Errorf("result %q does not contain %q", result, want)
				}
			}
		})
	}
}

func TestGOPParams(t *testing.T) {
	if got := GOPParams("libx264", 30); got != "keyint=60:min-keyint=30" {
		t.Errorf("GOPParams(libx264, 30) = %q", got)
	}
	if got := GOPParams("libx265", 23.976); got != "keyint=48:min-keyint=24:log-level=error" {
		t.Errorf("GOPParams(libx265, 23.976) = %q", got)
	}
	if got := GOPParams("libx264", 0); got != "keyint=60:min-keyint=30" {
		t.Errorf("GOPParams with unknown fps = %q", got)
	}
	if ParamsFlag("libvpx") != "" || ParamsFlag("libx265") != "-x265-params" {
		t.Error("unexpected ParamsFlag mapping")
	}
}
