// SPDX-License-Identifier: MIT

package format

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/ExponentialDS/vid-text/internal/transcript"
)

// Markdown renders a readable document: a heading, one timestamped
// paragraph per cue. Inline markup from formatting-preserving fetches
// (<b>, <i>) is converted to Markdown emphasis.
type Markdown struct{}

func (Markdown) Name() string        { return "md" }
func (Markdown) ContentType() string { return "text/markdown; charset=utf-8" }
func (Markdown) Ext() string         { return "md" }

func (Markdown) Format(t *transcript.Transcript) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Transcript %s\n\n", t.VideoID)
	if t.Language != "" {
		fmt.Fprintf(&b, "Language: %s", t.Language)
		if t.Generated {
			b.WriteString(" (auto-generated)")
		}
		b.WriteString("\n\n")
	}

	for _, seg := range t.Segments {
		text := seg.Text
		if strings.ContainsRune(text, '<') {
			converted, err := htmltomarkdown.ConvertString(text)
			if err == nil {
				text = strings.TrimSpace(converted)
			}
		}
		fmt.Fprintf(&b, "**[%s]** %s\n\n", timestamp(seg.Start, '.'), text)
	}

	return []byte(b.String()), nil
}
