package language

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"
)

// ErrInvalidSpan is returned when a span does not describe text inside the
// query it is resolved against.
var ErrInvalidSpan = errors.New("span does not resolve against query text")

// Span is a half-open byte range [Start, End) within query text.
type Span struct {
	Start int
	End   int
}

// Location is a 1-based line and column, as reported in GraphQL response errors.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Locator maps byte spans of one query text to line and column.
//
// Line terminators are "\n", "\r\n" and a lone "\r", the same set the parser
// counts. Columns count runes from the start of the line, so a byte order mark
// occupies one column just as it does in parser positions.
type Locator struct {
	text       string
	lineStarts []int
}

// NewLocator indexes the line starts of text.
func NewLocator(text string) *Locator {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			starts = append(starts, i+1)
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		}
	}
	return &Locator{text: text, lineStarts: starts}
}

// Locate returns the location of span's start.
func (l *Locator) Locate(span Span) (Location, error) {
	if span.Start < 0 || span.End < span.Start || span.End > len(l.text) {
		return Location{}, fmt.Errorf("%w: [%d, %d) outside %d bytes", ErrInvalidSpan, span.Start, span.End, len(l.text))
	}
	if span.Start < len(l.text) && !utf8.RuneStart(l.text[span.Start]) {
		return Location{}, fmt.Errorf("%w: offset %d splits a character", ErrInvalidSpan, span.Start)
	}
	line := sort.Search(len(l.lineStarts), func(i int) bool { return l.lineStarts[i] > span.Start })
	lineStart := l.lineStarts[line-1]
	if span.Start > lineStart && span.Start < len(l.text) && l.text[span.Start-1] == '\r' && l.text[span.Start] == '\n' {
		return Location{}, fmt.Errorf("%w: offset %d splits a line terminator", ErrInvalidSpan, span.Start)
	}
	column := utf8.RuneCountInString(l.text[lineStart:span.Start]) + 1
	return Location{Line: line, Column: column}, nil
}

// Locate is a one-shot form of NewLocator(text).Locate(span).
func Locate(text string, span Span) (Location, error) {
	return NewLocator(text).Locate(span)
}

// SpanOf converts a parser position into a byte span of text. Parser
// positions count runes, so the conversion walks text once.
func SpanOf(pos *Position, text string) (Span, error) {
	if pos == nil {
		return Span{}, fmt.Errorf("%w: node has no position", ErrInvalidSpan)
	}
	if pos.Start < 0 || pos.End < pos.Start {
		return Span{}, fmt.Errorf("%w: rune range [%d, %d)", ErrInvalidSpan, pos.Start, pos.End)
	}
	start, end := -1, -1
	runes := 0
	for i := range text {
		if runes == pos.Start {
			start = i
		}
		if runes == pos.End {
			end = i
			break
		}
		runes++
	}
	if runes == pos.Start && start < 0 {
		start = len(text)
	}
	if runes == pos.End && end < 0 {
		end = len(text)
	}
	if start < 0 || end < 0 {
		return Span{}, fmt.Errorf("%w: rune range [%d, %d) outside text of %d runes", ErrInvalidSpan, pos.Start, pos.End, runes)
	}
	return Span{Start: start, End: end}, nil
}
