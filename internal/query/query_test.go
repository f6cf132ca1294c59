package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_StripsPunctuationAndCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "what does it match", Clean("what? does!   it match..."))
	assert.Equal(t, "a b", Clean("  a\t\nb  "))
	assert.Equal(t, "", Clean("?!*()"))
}

func TestKeywords_DropsStopWords(t *testing.T) {
	assert.Equal(t, []string{"score", "match"}, Keywords("the score of a match"))
	assert.Equal(t, []string{"revenue", "grow", "quarter"}, Keywords("Did the revenue grow this quarter?"))
}

func TestKeywords_KeepsNumbers(t *testing.T) {
	assert.Equal(t, []string{"stock", "600519"}, Keywords("the stock 600519"))
	assert.Equal(t, []string{"7"}, Keywords("7"))
}

func TestKeywords_DropsSingleCharacters(t *testing.T) {
	assert.Equal(t, []string{"report"}, Keywords("x report"))
}

func TestKeywords_Deduplicates(t *testing.T) {
	assert.Equal(t, []string{"report", "annual"}, Keywords("report Report annual report"))
}

func TestKeywords_SplitsCJKRunsFromLatin(t *testing.T) {
	assert.Equal(t, []string{"审计报告", "2024"}, Keywords("审计报告2024"))
	assert.Equal(t, []string{"财务报表", "revenue"}, Keywords("财务报表 revenue"))
}

func TestKeywords_DropsCJKStopWords(t *testing.T) {
	assert.Equal(t, []string{"利润"}, Keywords("利润 的"))
}

func TestKeywords_EmptyWhenNothingExtractable(t *testing.T) {
	assert.Empty(t, Keywords("of the and"))
	assert.Empty(t, Keywords("?!"))
	assert.Empty(t, Keywords(""))
}
