// Package validator parses a raw article submission: four header lines
// (title, authors, newspaper, date) followed by the body. Problems are
// reported per field in a FormatError.
package validator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
)

const (
	headerLines    = 4
	maxTitleLength = 1024
)

// FormatError holds per-field parse failures. It matches
// apperrors.ErrFormat with errors.Is.
type FormatError struct {
	Fields map[string]string
}

func (e *FormatError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "malformed article: " + strings.Join(parts, "; ")
}

func (e *FormatError) Unwrap() error {
	return apperrors.ErrFormat
}

// Name is a reporter name split into first and last parts.
type Name struct {
	First string
	Last  string
}

// Submission is a parsed article ready for tokenizing.
type Submission struct {
	Title       string
	Authors     string
	Newspaper   string
	PublishedOn time.Time
	Reporter    Name
	Body        string
}

// ParseArticle splits raw into header fields and body. Dates are tried
// against layouts in order. The body keeps its internal layout; blank lines
// before and after it are dropped.
func ParseArticle(raw string, layouts []string) (*Submission, error) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")
	if len(lines) < headerLines {
		return nil, &FormatError{Fields: map[string]string{
			"header": fmt.Sprintf("expected %d header lines (title, authors, newspaper, date), got %d", headerLines, len(lines)),
		}}
	}

	errs := make(map[string]string)
	sub := &Submission{
		Title:     strings.TrimSpace(lines[0]),
		Authors:   strings.TrimSpace(lines[1]),
		Newspaper: strings.TrimSpace(lines[2]),
	}
	switch {
	case sub.Title == "":
		errs["title"] = "title is required"
	case len(sub.Title) > maxTitleLength:
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if sub.Authors == "" {
		errs["authors"] = "at least one author is required"
	} else {
		sub.Reporter = ParseName(FirstAuthor(sub.Authors))
	}
	if sub.Newspaper == "" {
		errs["newspaper"] = "newspaper is required"
	}
	date, err := ParseDate(lines[3], layouts)
	if err != nil {
		errs["date"] = err.Error()
	}
	sub.PublishedOn = date
	if len(errs) > 0 {
		return nil, &FormatError{Fields: errs}
	}

	sub.Body = trimBlankLines(lines[headerLines:])
	return sub, nil
}

// ParseDate tries each layout in order and returns the date at midnight UTC.
func ParseDate(value string, layouts []string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

var authorSeparators = strings.NewReplacer(";", ",", "&", ",", " and ", ",", " AND ", ",")

// FirstAuthor returns the first name listed in an authors line.
func FirstAuthor(authors string) string {
	for _, part := range strings.Split(authorSeparators.Replace(authors), ",") {
		if part = strings.TrimSpace(part); part != "" {
			return part
		}
	}
	return ""
}

// ParseName splits a full name on its first run of whitespace.
func ParseName(full string) Name {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return Name{}
	case 1:
		return Name{First: fields[0]}
	default:
		return Name{First: fields[0], Last: strings.Join(fields[1:], " ")}
	}
}

func trimBlankLines(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
