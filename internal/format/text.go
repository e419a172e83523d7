// SPDX-License-Identifier: MIT

package format

import (
	"github.com/ExponentialDS/vid-text/internal/transcript"
)

// Text renders one caption line per row, no timing.
type Text struct{}

func (Text) Name() string        { return "text" }
func (Text) ContentType() string { return "text/plain; charset=utf-8" }
func (Text) Ext() string         { return "txt" }

func (Text) Format(t *transcript.Transcript) ([]byte, error) {
	out := t.PlainText()
	if out != "" {
		out += "\n"
	}
	return []byte(out), nil
}
