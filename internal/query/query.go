// Package query normalises search queries before retrieval.
//
// The lexical path matches extracted keywords rather than the raw
// question: function words contribute nothing to BM25 relevance, and
// CJK text carries no word boundaries for a whitespace tokenizer to
// find. The vector path keeps the cleaned natural-language form, since
// embeddings benefit from the surrounding context.
package query

import (
	"strings"
	"unicode"
)

// englishStopWords are function words carrying no retrieval signal.
var englishStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "can": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "i": {}, "you": {},
	"he": {}, "she": {}, "it": {}, "we": {}, "they": {}, "me": {},
	"him": {}, "her": {}, "us": {}, "them": {},
}

// cjkStopWords are common CJK function words dropped when they form a
// whole run on their own.
var cjkStopWords = map[string]struct{}{
	"的": {}, "了": {}, "在": {}, "是": {}, "我": {}, "有": {}, "和": {},
	"就": {}, "不": {}, "都": {}, "也": {}, "很": {}, "这": {}, "那": {},
	"一个": {}, "什么": {}, "怎么": {}, "为什么": {}, "哪里": {}, "如何": {},
	"可以": {}, "还是": {}, "就是": {}, "这个": {}, "那个": {},
}

// Clean strips punctuation and collapses whitespace, keeping letters,
// digits and CJK characters.
func Clean(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	for _, r := range q {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Keywords extracts the meaningful search terms from q, in order and
// deduplicated. Stop words and single non-CJK characters are dropped;
// numbers and CJK runs are kept. An empty result means the query held
// no extractable terms; callers should fall back to the raw query.
func Keywords(q string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(term string) {
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}

	for _, field := range strings.Fields(Clean(q)) {
		for _, seg := range segments(field) {
			if isCJK(seg) {
				if _, stop := cjkStopWords[seg]; !stop {
					add(seg)
				}
				continue
			}
			lower := strings.ToLower(seg)
			if _, stop := englishStopWords[lower]; stop {
				continue
			}
			if len([]rune(seg)) < 2 && !isDigits(seg) {
				continue
			}
			add(lower)
		}
	}
	return out
}

// segments splits a field into alternating runs of CJK and non-CJK
// characters. CJK text carries no spaces, so a mixed token like
// "报告2024" holds two terms.
func segments(field string) []string {
	var segs []string
	var run []rune
	var runCJK bool

	flush := func() {
		if len(run) > 0 {
			segs = append(segs, string(run))
			run = run[:0]
		}
	}

	for _, r := range field {
		cjk := unicode.Is(unicode.Han, r)
		if cjk != runCJK {
			flush()
			runCJK = cjk
		}
		run = append(run, r)
	}
	flush()
	return segs
}

func isCJK(s string) bool {
	for _, r := range s {
		return unicode.Is(unicode.Han, r)
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
