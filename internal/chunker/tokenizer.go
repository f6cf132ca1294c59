package chunker

import "unicode"

// Token is a single whitespace-delimited unit of text with its byte
// offsets in the original string. Offsets allow chunks to be cut as
// contiguous slices of the source text.
type Token struct {
	// Text is the token content.
	Text string

	// Start is the byte offset of the first rune.
	Start int

	// End is the byte offset one past the last rune.
	End int
}

// Tokenize splits text into whitespace-delimited tokens.
// This is the tokenizer contract shared between the chunker and the
// size accounting callers pass to embedding providers: token counts
// reported on chunks are counts of these tokens.
func Tokenize(text string) []Token {
	var tokens []Token
	start := -1

	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, Token{Text: text[start:i], Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}

	if start >= 0 {
		tokens = append(tokens, Token{Text: text[start:], Start: start, End: len(text)})
	}

	return tokens
}

// Count returns the number of tokens in text.
func Count(text string) int {
	return len(Tokenize(text))
}

// endsSentence reports whether a token terminates a sentence.
// Covers both ASCII and CJK sentence-final punctuation.
func endsSentence(tok Token) bool {
	runes := []rune(tok.Text)
	if len(runes) == 0 {
		return false
	}

	switch runes[len(runes)-1] {
	case '.', '!', '?', ';', '。', '！', '？', '；':
		return true
	}
	return false
}
