package speech

import (
	"strings"
	"unicode"
)

// googleMaxChunk is the longest input the translate endpoint accepts per call.
const googleMaxChunk = 100

// sentenceBreaks end a segment; the break rune stays with the segment.
const sentenceBreaks = "?!？！.,¡()[]¿…‥،;:—。，、：\n"

// splitText cuts text into speakable chunks of at most max runes. It breaks
// at sentence punctuation first, then at whitespace, and hard-cuts words
// longer than max. Adjacent short segments are merged back up to max.
// Segments without any word rune are dropped.
func splitText(text string, max int) []string {
	if max <= 0 {
		max = googleMaxChunk
	}

	var pieces []string
	for _, seg := range splitAtBreaks(text) {
		seg = strings.TrimSpace(seg)
		if !speakable(seg) {
			continue
		}
		for _, piece := range minimize(seg, max) {
			if speakable(piece) {
				pieces = append(pieces, piece)
			}
		}
	}

	return merge(pieces, max)
}

func splitAtBreaks(text string) []string {
	var (
		segs  []string
		start int
	)
	for i, r := range text {
		if strings.ContainsRune(sentenceBreaks, r) {
			end := i + len(string(r))
			segs = append(segs, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		segs = append(segs, text[start:])
	}
	return segs
}

// minimize splits seg at whitespace so every piece fits in max runes.
func minimize(seg string, max int) []string {
	var out []string
	runes := []rune(seg)
	for len(runes) > max {
		cut := -1
		for i := max; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		if cut <= 0 {
			out = append(out, string(runes[:max]))
			runes = runes[max:]
		} else {
			out = append(out, strings.TrimSpace(string(runes[:cut])))
			runes = runes[cut:]
		}
		runes = []rune(strings.TrimLeftFunc(string(runes), unicode.IsSpace))
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		out = append(out, rest)
	}
	return out
}

func merge(pieces []string, max int) []string {
	var (
		out     []string
		current string
		size    int
	)
	for _, p := range pieces {
		n := len([]rune(p))
		switch {
		case current == "":
			current, size = p, n
		case size+1+n <= max:
			current += " " + p
			size += 1 + n
		default:
			out = append(out, current)
			current, size = p, n
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

func speakable(s string) bool {
	for _, r := range s {
		if isWordRune(r) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return !unicode.IsSpace(r) && !unicode.IsPunct(r)
}
