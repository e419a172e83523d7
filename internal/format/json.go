// SPDX-License-Identifier: MIT

package format

import (
	"encoding/json"

	"github.com/ExponentialDS/vid-text/internal/transcript"
)

// JSON renders the transcript with full timing, suitable for reimport.
type JSON struct{}

func (JSON) Name() string        { return "json" }
func (JSON) ContentType() string { return "application/json; charset=utf-8" }
func (JSON) Ext() string         { return "json" }

func (JSON) Format(t *transcript.Transcript) ([]byte, error) {
	out, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
