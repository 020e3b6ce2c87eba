package ffmpeg

import "testing"

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		maxW, maxH   int
		even         bool
		wantW, wantH int
	}{
		{"thumbnail of 1080p", 1920, 1080, 400, 300, false, 400, 225},
		{"preview of 1080p", 1920, 1080, 640, 480, true, 640, 360},
		{"1080p kept", 1920, 1080, 1920, 1080, true, 1920, 1080},
		{"4K downscaled", 3840, 2160, 1920, 1080, true, 1920, 1080},
		{"portrait", 1080, 1920, 1920, 1080, true, 608, 1080},
		{"never upscale", 320, 240, 1920, 1080, true, 320, 240},
		{"odd source made even", 641, 361, 1920, 1080, true, 640, 360},
		{"odd source kept for stills", 641, 361, 1920, 1080, false, 641, 361},
		{"extreme panorama", 10000, 10, 400, 300, false, 400, 1},
		{"extreme panorama even", 10000, 10, 640, 480, true, 640, 2},
		{"invalid source", 0, 1080, 400, 300, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitWithin(tt.srcW, tt.srcH, tt.maxW, tt.maxH, tt.even)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("FitWithin(%d, %d, %d, %d, %v) = %dx%d, want %dx%d",
					tt.srcW, tt.srcH, tt.maxW, tt.maxH, tt.even, w, h, tt.wantW, tt.wantH)
			}
			if w > tt.maxW || h > tt.maxH {
				t.Errorf("result %dx%d exceeds bound %dx%d", w, h, tt.maxW, tt.maxH)
			}
		})
	}
}

func TestVideoFilterChain(t *testing.T) {
	chain := NewVideoFilterChain()
	if chain.Build() != "" {
		t.Error("new chain should be empty")
	}

	got := chain.AddScale(640, 360).AddScale(320, 180).Build()
	if got != "scale=640:360:flags=lanczos,scale=320:180:flags=lanczos" {
		t.Errorf("Build() = %q", got)
	}

	if NewVideoFilterChain().AddScale(0, 360).Build() != "" {
		t.Error("invalid scale should be skipped")
	}
}
