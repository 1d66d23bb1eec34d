// Package tokenizer decomposes article text into a grid of words addressed
// by paragraph, line and position. Each word keeps the punctuation split off
// either side of its core token so the text can be rebuilt exactly.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Break markers appended to the trailing punctuation of the last word of a
// line and of a paragraph.
const (
	LineBreak      = "\n"
	ParagraphBreak = "\n\n"
)

// Word is one whitespace-delimited word of the text. Trailing includes the
// line or paragraph break marker when the word ends one.
type Word struct {
	Paragraph      int
	Line           int
	Position       int
	Token          string
	Leading        string
	Trailing       string
	EndOfLine      bool
	EndOfParagraph bool
}

// Tokenize splits text into words in reading order. Paragraphs are runs of
// non-blank lines; blank lines only separate them. The last word of the last
// paragraph carries no break marker.
func Tokenize(text string) []Word {
	paragraphs := Paragraphs(text)
	words := make([]Word, 0, len(text)/6)
	for p, lines := range paragraphs {
		lastParagraph := p == len(paragraphs)-1
		for l, line := range lines {
			lastLine := l == len(lines)-1
			fields := strings.Fields(line)
			for i, field := range fields {
				leading, core, trailing := SplitWord(field)
				w := Word{
					Paragraph: p + 1,
					Line:      l + 1,
					Position:  i + 1,
					Token:     core,
					Leading:   leading,
					Trailing:  trailing,
				}
				if i == len(fields)-1 {
					w.EndOfLine = true
					switch {
					case lastLine && lastParagraph:
						w.EndOfParagraph = true
					case lastLine:
						w.EndOfParagraph = true
						w.Trailing += ParagraphBreak
					default:
						w.Trailing += LineBreak
					}
				}
				words = append(words, w)
			}
		}
	}
	return words
}

// Paragraphs groups the non-blank lines of text into paragraphs. Carriage
// returns before a newline are dropped.
func Paragraphs(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var (
		paragraphs [][]string
		current    []string
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}
	return paragraphs
}

// SplitWord separates a whitespace-free word into its leading punctuation,
// core token and trailing punctuation. A word with no letter or digit is
// returned whole as the core.
func SplitWord(word string) (leading, core, trailing string) {
	start := strings.IndexFunc(word, isAlnum)
	if start < 0 {
		return "", word, ""
	}
	end := strings.LastIndexFunc(word, isAlnum)
	_, size := utf8.DecodeRuneInString(word[end:])
	end += size
	return word[:start], word[start:end], word[end:]
}

// StripBreaks removes any break marker from trailing punctuation.
func StripBreaks(trailing string) string {
	return strings.TrimRight(trailing, "\n")
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
