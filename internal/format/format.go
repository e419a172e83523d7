// SPDX-License-Identifier: MIT

// Package format renders transcripts into the supported export formats.
package format

import (
	"fmt"

	"github.com/ExponentialDS/vid-text/internal/transcript"
)

// Formatter renders a transcript into one output format.
type Formatter interface {
	// Name is the identifier used in requests and file names.
	Name() string
	// ContentType is the MIME type served for this format.
	ContentType() string
	// Ext is the file extension without the dot.
	Ext() string
	Format(t *transcript.Transcript) ([]byte, error)
}

// ErrUnknown reports a format name nobody registered.
type ErrUnknown struct {
	Name string
}

func (e *ErrUnknown) Error() string {
	return fmt.Sprintf("format: unknown format %q", e.Name)
}

var registry = map[string]Formatter{}

func register(f Formatter) {
	registry[f.Name()] = f
}

func init() {
	register(Text{})
	register(JSON{})
	register(SRT{})
	register(WebVTT{})
	register(Markdown{})
}

// Get returns the formatter registered under name.
func Get(name string) (Formatter, error) {
	f, ok := registry[name]
	if !ok {
		return nil, &ErrUnknown{Name: name}
	}
	return f, nil
}

// Names lists the registered format names in stable order.
func Names() []string {
	return []string{"text", "json", "srt", "vtt", "md"}
}

// timestamp renders seconds as HH:MM:SS<sep>mmm. SRT separates millis
// with a comma, WebVTT with a dot.
func timestamp(seconds float64, sep byte) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms)
}

// cueEnd returns the end time of segment i, clamped to the start of the
// following segment when cues overlap.
func cueEnd(segments []transcript.Segment, i int) float64 {
	end := segments[i].End()
	if i+1 < len(segments) && segments[i+1].Start < end {
		end = segments[i+1].Start
	}
	return end
}
