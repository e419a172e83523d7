// SPDX-License-Identifier: MIT

package format

import (
	"fmt"
	"strings"

	"github.com/ExponentialDS/vid-text/internal/transcript"
)

// SRT renders SubRip subtitles: numbered cues with comma-millisecond
// timestamps. Overlapping cues are clamped so each one ends no later
// than the next one starts.
type SRT struct{}

func (SRT) Name() string        { return "srt" }
func (SRT) ContentType() string { return "application/x-subrip; charset=utf-8" }
func (SRT) Ext() string         { return "srt" }

func (SRT) Format(t *transcript.Transcript) ([]byte, error) {
	var b strings.Builder
	for i, seg := range t.Segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", timestamp(seg.Start, ','), timestamp(cueEnd(t.Segments, i), ','))
		b.WriteString(seg.Text)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
