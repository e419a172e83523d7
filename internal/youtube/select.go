// SPDX-License-Identifier: MIT

package youtube

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/ExponentialDS/vid-text/internal/transcript"
)

// Selection is the outcome of picking a track from a TrackList. Track is
// ready to fetch, Info records how it was chosen.
type Selection struct {
	Track CaptionTrack
	Info  transcript.PickInfo
}

// Select picks the caption track to fetch. Resolution order:
//
//  1. A track matching one of the preferred language codes, manually
//     created tracks before speech-recognized ones, exact code matches
//     before base-language matches ("en" also accepts "en-US").
//  2. A translatable track machine-translated into translateTo, when
//     translateTo is non-empty and offered for the video.
//  3. The first available track as a last resort.
//
// An empty track list yields ErrNoTranscriptFound.
func Select(list TrackList, preferred []string, translateTo string) (Selection, error) {
	if len(list.Tracks) == 0 {
		return Selection{}, &YTError{Sentinel: ErrNoTranscriptFound, Operation: "select", VideoID: list.VideoID}
	}

	if track, ok := findPreferred(list.Tracks, preferred); ok {
		return Selection{
			Track: track,
			Info: transcript.PickInfo{
				Source:       transcript.SourceDirect,
				Language:     track.Name,
				LanguageCode: track.LanguageCode,
				Generated:    track.Generated(),
			},
		}, nil
	}

	if translateTo != "" {
		if source, ok := findTranslatable(list.Tracks); ok {
			translated, err := Translate(source, translateTo, list.TranslationLanguages)
			if err == nil {
				return Selection{
					Track: translated,
					Info: transcript.PickInfo{
						Source:         transcript.SourceTranslated,
						Language:       translated.Name,
						LanguageCode:   translated.LanguageCode,
						Generated:      source.Generated(),
						TranslatedFrom: source.LanguageCode,
					},
				}, nil
			}
		}
	}

	track := list.Tracks[0]
	return Selection{
		Track: track,
		Info: transcript.PickInfo{
			Source:       transcript.SourceFirstAvailable,
			Language:     track.Name,
			LanguageCode: track.LanguageCode,
			Generated:    track.Generated(),
		},
	}, nil
}

// SelectStrict behaves like Select but fails instead of falling back when
// no preferred language can be served directly or via translation.
func SelectStrict(list TrackList, preferred []string, translateTo string) (Selection, error) {
	sel, err := Select(list, preferred, translateTo)
	if err != nil {
		return Selection{}, err
	}
	if sel.Info.Source == transcript.SourceFirstAvailable {
		return Selection{}, &YTError{
			Sentinel:  ErrNoTranscriptFound,
			Operation: "select",
			VideoID:   list.VideoID,
			Body:      fmt.Sprintf("wanted %v, available %v", preferred, availableCodes(list.Tracks)),
		}
	}
	return sel, nil
}

// findPreferred runs the ordered match passes over the track list.
func findPreferred(tracks []CaptionTrack, preferred []string) (CaptionTrack, bool) {
	type pass func(code string, t CaptionTrack) bool
	passes := []pass{
		func(code string, t CaptionTrack) bool { return !t.Generated() && strings.EqualFold(t.LanguageCode, code) },
		func(code string, t CaptionTrack) bool { return t.Generated() && strings.EqualFold(t.LanguageCode, code) },
		func(code string, t CaptionTrack) bool { return !t.Generated() && sameBaseLanguage(t.LanguageCode, code) },
		func(code string, t CaptionTrack) bool { return t.Generated() && sameBaseLanguage(t.LanguageCode, code) },
	}
	for _, match := range passes {
		for _, code := range preferred {
			for _, t := range tracks {
				if match(code, t) {
					return t, true
				}
			}
		}
	}
	return CaptionTrack{}, false
}

// findTranslatable returns the preferred translation source, manual
// tracks before generated ones.
func findTranslatable(tracks []CaptionTrack) (CaptionTrack, bool) {
	for _, t := range tracks {
		if t.IsTranslatable && !t.Generated() {
			return t, true
		}
	}
	for _, t := range tracks {
		if t.IsTranslatable {
			return t, true
		}
	}
	return CaptionTrack{}, false
}

// sameBaseLanguage reports whether two BCP 47 codes share a base language,
// so "en" pairs with "en-US" and "pt-BR" with "pt".
func sameBaseLanguage(a, b string) bool {
	tagA, errA := language.Parse(a)
	tagB, errB := language.Parse(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}
	baseA, confA := tagA.Base()
	baseB, confB := tagB.Base()
	if confA == language.No || confB == language.No {
		return false
	}
	return baseA == baseB
}

func availableCodes(tracks []CaptionTrack) []string {
	codes := make([]string, 0, len(tracks))
	for _, t := range tracks {
		codes = append(codes, t.LanguageCode)
	}
	return codes
}
