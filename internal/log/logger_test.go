// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithComponentField(t *testing.T) {
	var buf bytes.Buffer
	base = zerolog.New(&buf).With().Timestamp().Str("service", "vid-text").Logger()

	l := WithComponent("youtube")
	l.Info().Str(FieldEvent, "tracks.listed").Msg("listed caption tracks")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry["component"] != "youtube" {
		t.Errorf("expected component youtube, got %v", entry["component"])
	}
	if entry["event"] != "tracks.listed" {
		t.Errorf("expected event tracks.listed, got %v", entry["event"])
	}
	if entry["service"] != "vid-text" {
		t.Errorf("expected service vid-text, got %v", entry["service"])
	}

	Configure(Config{})
}

func TestContextEnrichmentOutput(t *testing.T) {
	var buf bytes.Buffer
	base = zerolog.New(&buf)

	ctx := ContextWithRequestID(nil, "req-789")
	ctx = ContextWithFetchID(ctx, "fetch-abc")

	l := WithContext(ctx, Base())
	l.Info().Msg("enriched")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry["request_id"] != "req-789" {
		t.Errorf("expected request_id req-789, got %v", entry["request_id"])
	}
	if entry["fetch_id"] != "fetch-abc" {
		t.Errorf("expected fetch_id fetch-abc, got %v", entry["fetch_id"])
	}

	Configure(Config{})
}
