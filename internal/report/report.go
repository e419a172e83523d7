// SPDX-License-Identifier: MIT

// Package report derives a compact analysis from a transcript: corpus
// stats, the dominant keywords and an extractive bullet summary.
package report

import (
	"time"

	"github.com/ExponentialDS/vid-text/internal/transcript"
)

const (
	// TopKeywordCount is how many keywords a report carries.
	TopKeywordCount = 20
	// BulletCount is how many summary bullets a report carries.
	BulletCount = 5

	bulletMinChars = 40
	bulletMaxChars = 220
)

// Keyword is one ranked keyword with its occurrence count.
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Report is the derived analysis for one transcript.
type Report struct {
	VideoID         string    `json:"video_id"`
	LanguageCode    string    `json:"language_code"`
	GeneratedAt     time.Time `json:"generated_at"`
	Words           int       `json:"words"`
	UniqueWords     int       `json:"unique_words"`
	Segments        int       `json:"segments"`
	DurationSeconds float64   `json:"duration_seconds"`
	Keywords        []Keyword `json:"keywords"`
	Bullets         []string  `json:"bullets"`
}

// Build derives the report for t. It is deterministic: the same
// transcript always yields the same report apart from GeneratedAt.
func Build(t *transcript.Transcript) *Report {
	text := t.PlainText()
	tokens := cleanTokens(text)

	unique := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		unique[tok] = struct{}{}
	}

	return &Report{
		VideoID:         t.VideoID,
		LanguageCode:    t.LanguageCode,
		GeneratedAt:     time.Now().UTC(),
		Words:           t.WordCount(),
		UniqueWords:     len(unique),
		Segments:        len(t.Segments),
		DurationSeconds: t.Duration(),
		Keywords:        topKeywords(tokens, TopKeywordCount),
		Bullets:         summaryBullets(text, BulletCount, bulletMinChars, bulletMaxChars),
	}
}
