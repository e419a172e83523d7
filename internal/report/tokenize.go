// SPDX-License-Identifier: MIT

package report

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// stopwords are dropped before counting. Common English function words,
// auxiliaries and pronouns.
var stopwords = buildStopwords(`
a an and the this that those these to of for from on in with as at by it its be is are was were am been being do does did doing have has had having i you he she they we him her them us our your their my mine yours his hers theirs myself yourself themselves itself ourselves
about above after again against all also among around because before below between both but can cannot could down during each few further here how if into more most no nor not only other out over own same should so some such than then there through too under until up very what when where which who whom why will would
`)

func buildStopwords(blob string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(blob) {
		set[w] = struct{}{}
	}
	return set
}

// cleanTokens lowercases text and returns the content words: everything
// except punctuation, stopwords and pure numbers. Apostrophes survive
// inside words ("don't") but are trimmed at the edges.
func cleanTokens(text string) []string {
	text = norm.NFC.String(text)
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == '\'', unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, text)

	fields := strings.Fields(mapped)
	tokens := make([]string, 0, len(fields))
	for _, w := range fields {
		w = strings.Trim(strings.ToLower(w), "'")
		if w == "" {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if allDigits(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

// topKeywords ranks tokens by occurrence count, first appearance breaking
// ties, and returns at most n of them.
func topKeywords(tokens []string, n int) []Keyword {
	counts := make(map[string]int, len(tokens))
	firstSeen := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		if _, ok := counts[tok]; !ok {
			firstSeen[tok] = i
		}
		counts[tok]++
	}

	ranked := make([]Keyword, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, Keyword{Word: word, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Word] < firstSeen[ranked[j].Word]
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// sentenceBoundary matches a terminator followed by whitespace. The
// terminator stays with the sentence to its left.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// splitSentences cuts text after ., ! or ? followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, m := range sentenceBoundary.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[start : m[0]+1])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = m[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

type scoredSentence struct {
	text  string
	score float64
}

// scoreSentences ranks sentences by keyword density: the sum of corpus
// frequencies of a sentence's tokens, damped by token count to the 0.8
// so long sentences do not dominate on length alone.
func scoreSentences(sentences []string) []scoredSentence {
	all := cleanTokens(strings.Join(sentences, " "))
	if len(all) == 0 {
		return nil
	}
	freqs := make(map[string]int, len(all))
	for _, tok := range all {
		freqs[tok]++
	}

	scored := make([]scoredSentence, 0, len(sentences))
	for _, s := range sentences {
		toks := cleanTokens(s)
		if len(toks) == 0 {
			continue
		}
		sum := 0
		for _, tok := range toks {
			sum += freqs[tok]
		}
		scored = append(scored, scoredSentence{
			text:  s,
			score: float64(sum) / math.Pow(float64(len(toks)), 0.8),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored
}

// summaryBullets picks the k best-scoring sentences within the length
// window, deduplicated on their lowercased 40-character prefix. When no
// sentence qualifies, the first k sentences serve as the fallback.
func summaryBullets(text string, k, minChars, maxChars int) []string {
	sentences := splitSentences(text)
	ranked := scoreSentences(sentences)

	bullets := make([]string, 0, k)
	used := make(map[string]struct{})
	for _, cand := range ranked {
		runes := []rune(cand.text)
		if len(runes) < minChars || len(runes) > maxChars {
			continue
		}
		sigEnd := 40
		if len(runes) < sigEnd {
			sigEnd = len(runes)
		}
		sig := strings.ToLower(string(runes[:sigEnd]))
		if _, dup := used[sig]; dup {
			continue
		}
		used[sig] = struct{}{}
		bullets = append(bullets, cand.text)
		if len(bullets) >= k {
			break
		}
	}

	if len(bullets) == 0 && len(sentences) > 0 {
		if len(sentences) > k {
			sentences = sentences[:k]
		}
		bullets = sentences
	}
	return bullets
}
