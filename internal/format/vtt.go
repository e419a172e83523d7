// SPDX-License-Identifier: MIT

package format

import (
	"fmt"
	"strings"

	"github.com/ExponentialDS/vid-text/internal/transcript"
)

// WebVTT renders W3C WebVTT subtitles with dot-millisecond timestamps.
type WebVTT struct{}

func (WebVTT) Name() string        { return "vtt" }
func (WebVTT) ContentType() string { return "text/vtt; charset=utf-8" }
func (WebVTT) Ext() string         { return "vtt" }

func (WebVTT) Format(t *transcript.Transcript) ([]byte, error) {
	var b strings.Builder
	b.WriteString("WEBVTT\n")
	for i, seg := range t.Segments {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%s --> %s\n", timestamp(seg.Start, '.'), timestamp(cueEnd(t.Segments, i), '.'))
		b.WriteString(seg.Text)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
