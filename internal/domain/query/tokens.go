package query

import (
	"strings"
	"unicode"
)

// Tokenize splits lowercase text into word tokens.
// '+', '#', '.', and '-' are kept inside tokens so c++, c#, node.js and mid-level survive;
// leading and trailing dots and hyphens are trimmed.
func Tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if w := trimToken(word.String()); w != "" {
			tokens = append(tokens, w)
		}
		word.Reset()
	}
	for _, r := range strings.ToLower(text) {
		if isTokenRune(r) {
			word.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// SplitWord separates the token core of a whitespace-delimited word from its surrounding punctuation.
// SplitWord("(python),") returns "(", "python", "),".
func SplitWord(word string) (prefix, core, suffix string) {
	runes := []rune(word)
	start := 0
	for start < len(runes) && !isCoreEdge(runes[start]) {
		start++
	}
	end := len(runes)
	for end > start && !isCoreEdge(runes[end-1]) && !isTrailingSymbol(runes, end-1) {
		end--
	}
	return string(runes[:start]), string(runes[start:end]), string(runes[end:])
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' || r == '-'
}

func isCoreEdge(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isTrailingSymbol keeps the ++ of c++ and the # of c# attached to the core.
func isTrailingSymbol(runes []rune, i int) bool {
	r := runes[i]
	if r != '+' && r != '#' {
		return false
	}
	for j := i - 1; j >= 0; j-- {
		if isCoreEdge(runes[j]) {
			return true
		}
		if runes[j] != '+' && runes[j] != '#' {
			return false
		}
	}
	return false
}

func trimToken(w string) string {
	return strings.Trim(w, ".-")
}

// HasDigit reports whether s contains a decimal digit.
func HasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
