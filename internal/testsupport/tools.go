package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Stage names understood by the fake ffmpeg.
const (
	StageEncode    = "encode"
	StageThumbnail = "thumbnail"
	StagePreview   = "preview"
)

// Probe describes what the fake ffprobe reports for a file.
type Probe struct {
	Width     int
	Height    int
	Duration  float64
	Codec     string
	FrameRate string
}

// JSON renders p in ffprobe's -print_format json layout.
func (p Probe) JSON() string {
	codec := p.Codec
	if codec == "" {
		codec = "h264"
	}
	rate := p.FrameRate
	if rate == "" {
		rate = "30/1"
	}
	return fmt.Sprintf(`{
  "streams": [
    {"index": 0, "codec_type": "audio", "codec_name": "aac", "sample_rate": "48000", "channels": 2},
    {"index": 1, "codec_type": "video", "codec_name": %q, "width": %d, "height": %d, "r_frame_rate": %q, "avg_frame_rate": %q}
  ],
  "format": {"filename": "input", "duration": "%.6f", "size": "5242880", "bit_rate": "4194304"}
}
`, codec, p.Width, p.Height, rate, rate, p.Duration)
}

// FakeOptions controls the behaviour of FakeTools.
type FakeOptions struct {
	// Source is reported for inputs outside the compressed/ and previews/ dirs.
	Source Probe
	// Compressed and Preview are reported for the derived artifacts.
	Compressed Probe
	Preview    Probe

	// FrameWidth and FrameHeight size the BMP the thumbnail stage receives.
	FrameWidth  int
	FrameHeight int

	// FailStage makes that ffmpeg stage write a partial output and exit 1.
	FailStage string
	// HangStage makes that ffmpeg stage sleep until killed.
	HangStage string
	// EmptyFrameOnSeek makes thumbnail extraction with -ss produce no bytes.
	EmptyFrameOnSeek bool
	// ProbeFailPattern makes ffprobe exit 1 for inputs whose path matches
	// this shell glob.
	ProbeFailPattern string
}

// DefaultFakeOptions describes a 10 second 1920x1080 H.264 source.
func DefaultFakeOptions() FakeOptions {
	return FakeOptions{
		Source:      Probe{Width: 1920, Height: 1080, Duration: 10},
		Compressed:  Probe{Width: 1920, Height: 1080, Duration: 10},
		Preview:     Probe{Width: 640, Height: 360, Duration: 10},
		FrameWidth:  640,
		FrameHeight: 360,
	}
}

// FakeTools holds paths to generated ffmpeg and ffprobe stand-ins.
type FakeTools struct {
	Dir     string
	FFmpeg  string
	FFprobe string
	// Log receives one line of arguments per ffmpeg invocation.
	Log string
}

// NewFakeTools writes ffmpeg/ffprobe stand-in scripts into a temp dir.
func NewFakeTools(t testing.TB, opts FakeOptions) *FakeTools {
	t.Helper()
	RequireShell(t)

	dir := t.TempDir()
	frame := filepath.Join(dir, "frame.bmp")
	WriteBMP(t, frame, max(opts.FrameWidth, 1), max(opts.FrameHeight, 1))

	writeJSON := func(name string, p Probe) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(p.JSON()), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}
	sourceJSON := writeJSON("source.json", opts.Source)
	compressedJSON := writeJSON("compressed.json", opts.Compressed)
	previewJSON := writeJSON("preview.json", opts.Preview)

	failPattern := opts.ProbeFailPattern
	if failPattern == "" {
		failPattern = "/nonexistent-pattern/*"
	}
	emptySeek := "0"
	if opts.EmptyFrameOnSeek {
		emptySeek = "1"
	}

	logPath := filepath.Join(dir, "ffmpeg.log")

	ffmpeg := WriteScript(t, dir, "ffmpeg", fmt.Sprintf(`fail=%q
hang=%q
frame=%q
log=%q
emptyseek=%q
for a in "$@"; do out="$a"; done
case " $* " in
  *" -version "*) echo "ffmpeg version 7.1-fake"; exit 0 ;;
esac
echo "$*" >> "$log"
mode=encode
case " $* " in
  *" image2pipe "*) mode=thumbnail ;;
  *" -t "*) mode=preview ;;
esac
echo "Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'input':" >&2
echo "  Duration: 00:00:10.00, start: 0.000000, bitrate: 4096 kb/s" >&2
if [ "$mode" = "$hang" ]; then exec sleep 30; fi
if [ "$mode" = "thumbnail" ]; then
  if [ "$mode" = "$fail" ]; then echo "Invalid data found when processing input" >&2; exit 1; fi
  case " $* " in
    *" -ss "*) if [ "$emptyseek" = "1" ]; then exit 0; fi ;;
  esac
  cat "$frame"
  exit 0
fi
printf 'frame=  150 fps=0.0 q=28.0 size=     256kB time=00:00:05.00 bitrate= 400.0kbits/s speed=10x\r' >&2
if [ "$mode" = "$fail" ]; then
  echo "partial" > "$out"
  echo "Conversion failed!" >&2
  exit 1
fi
printf 'frame=  300 fps=0.0 q=28.0 size=     512kB time=00:00:10.00 bitrate= 400.0kbits/s speed=10x\n' >&2
echo "fake $mode output" > "$out"
exit 0
`, opts.FailStage, opts.HangStage, frame, logPath, emptySeek))

	ffprobe := WriteScript(t, dir, "ffprobe", fmt.Sprintf(`for a in "$@"; do in="$a"; done
case " $* " in
  *" -version "*) echo "ffprobe version 7.1-fake"; exit 0 ;;
esac
case "$in" in
  %s) echo "$in: Invalid data found when processing input" >&2; exit 1 ;;
  */compressed/*) cat %q ;;
  */previews/*) cat %q ;;
  *) cat %q ;;
esac
`, failPattern, compressedJSON, previewJSON, sourceJSON))

	return &FakeTools{Dir: dir, FFmpeg: ffmpeg, FFprobe: ffprobe, Log: logPath}
}

// Invocations returns the argument lines recorded by the fake ffmpeg.
func (f *FakeTools) Invocations(t testing.TB) []string {
	t.Helper()

	data, err := os.ReadFile(f.Log)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read ffmpeg log: %v", err)
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	return lines
}
