package mancer

import "strings"

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// StripPunctuation removes ASCII punctuation from a lookup term.
func StripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, s)
}

// ZeroPad left-pads s with zeros to width.
func ZeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
