// Package ffmpeg provides FFmpeg command building and execution.
package ffmpeg

import (
	"fmt"
	"strings"
)

// CodecParamsBuilder builds -x264-params / -x265-params values with method chaining.
type CodecParamsBuilder struct {
	params []paramKV
}

type paramKV struct {
	key   string
	value string
}

// NewCodecParamsBuilder creates a new codec parameters builder.
func NewCodecParamsBuilder() *CodecParamsBuilder {
	return &CodecParamsBuilder{}
}

// WithKeyint sets the maximum GOP length in frames.
func (b *CodecParamsBuilder) WithKeyint(frames int) *CodecParamsBuilder {
	if frames > 0 {
		b.params = append(b.params, paramKV{"keyint", fmt.Sprintf("%d", frames)})
	}
	return b
}

// WithMinKeyint sets the minimum GOP length in frames.
func (b *CodecParamsBuilder) WithMinKeyint(frames int) *CodecParamsBuilder {
	if frames > 0 {
		b.params = append(b.params, paramKV{"min-keyint", fmt.Sprintf("%d", frames)})
	}
	return b
}

// WithLogLevel sets the encoder's own log level (libx265 only).
func (b *CodecParamsBuilder) WithLogLevel(level string) *CodecParamsBuilder {
	if level != "" {
		b.params = append(b.params, paramKV{"log-level", level})
	}
	return b
}

// Build builds the parameters into a colon-separated string.
func (b *CodecParamsBuilder) Build() string {
	var parts []string
	for _, p := range b.params {
		parts = append(parts, fmt.Sprintf("%s=%s", p.key, p.value))
	}
	return strings.Join(parts, ":")
}

// ParamsFlag returns the private-options flag for an encoder, or "" when it
// has none.
func ParamsFlag(encoder string) string {
	switch encoder {
	case "libx264":
		return "-x264-params"
	case "libx265":
		return "-x265-params"
	default:
		return ""
	}
}

// GOPParams returns codec params for a two-second keyframe interval at fps,
// which keeps seeking in gallery players responsive.
func GOPParams(encoder string, fps float64) string {
	if fps <= 0 {
		fps = 30
	}
	keyint := int(fps*2 + 0.5)
	b := NewCodecParamsBuilder().WithKeyint(keyint).WithMinKeyint(max(keyint/2, 1))
	if encoder == "libx265" {
		b.WithLogLevel("error")
	}
	return b.Build()
}
