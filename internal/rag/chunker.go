// Package rag splits frameworks into embedded chunks and retrieves the ones
// closest to a query.
package rag

import (
	"strings"
	"unicode"
)

// Chunker splits text into chunks of at most Size runes. Paragraph breaks are
// preferred cut points; consecutive chunks share Overlap runes.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker clamps overlap below size.
func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return Chunker{Size: size, Overlap: overlap}
}

// Split returns the chunks for text. Blank input yields no chunks.
func (c Chunker) Split(text string) []string {
	var out []string
	emit := func(r []rune) {
		if s := strings.TrimSpace(string(r)); s != "" {
			out = append(out, s)
		}
	}

	var cur []rune
	fresh := false // cur holds runes not yet emitted
	for _, para := range paragraphs(text) {
		p := []rune(para)
		if fresh && len(cur)+2+len(p) > c.Size {
			emit(cur)
			cur = tail(cur, c.Overlap)
			fresh = false
		}
		if len(cur) > 0 {
			cur = append(cur, '\n', '\n')
		}
		cur = append(cur, p...)
		fresh = true

		for len(cur) > c.Size {
			cut := cutPoint(cur, c.Size)
			emit(cur[:cut])
			next := cut - c.Overlap
			if next <= 0 {
				next = cut
			}
			for next < cut && !unicode.IsSpace(cur[next-1]) {
				next++
			}
			cur = append([]rune(nil), cur[next:]...)
		}
	}
	if fresh {
		emit(cur)
	}
	return out
}

func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// cutPoint finds the last whitespace at or before limit so words stay whole.
func cutPoint(r []rune, limit int) int {
	for i := limit; i > limit/2; i-- {
		if unicode.IsSpace(r[i-1]) {
			return i
		}
	}
	return limit
}

func tail(r []rune, n int) []rune {
	if n <= 0 || len(r) == 0 {
		return nil
	}
	if n > len(r) {
		n = len(r)
	}
	return append([]rune(nil), r[len(r)-n:]...)
}
