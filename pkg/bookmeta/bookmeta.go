// Package bookmeta holds the format-neutral metadata shape produced by the
// per-format file parsers and consumed by the ingest pipeline.
package bookmeta

import (
	"fmt"
	"strings"
	"time"
)

type Parsed struct {
	Title         string
	Subtitle      string
	Authors       []string
	Categories    []string
	Description   string
	Publisher     string
	PublishedDate *time.Time
	Language      string
	Series        string
	SeriesNumber  *float64
	SeriesTotal   *int
	ISBN10        string
	ISBN13        string
	PageCount     *int
}

func (p *Parsed) String() string {
	return fmt.Sprintf(
		"Title:     %s\nAuthor(s): %s\nSeries:    %s\nPublisher: %s\nLanguage:  %s",
		p.Title, strings.Join(p.Authors, ", "), p.Series, p.Publisher, p.Language,
	)
}

// SplitNames splits a delimited name list (comma or semicolon) into trimmed,
// non-empty names. ComicInfo credits and some OPF creator tags pack multiple
// people into one string.
func SplitNames(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	for _, segment := range strings.Split(s, ";") {
		for _, part := range strings.Split(segment, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
	}
	return parts
}

// NormalizeISBN strips hyphens and spaces and classifies the identifier by
// length. It returns ("", "") for anything that is not a 10 or 13 digit ISBN.
func NormalizeISBN(raw string) (isbn10, isbn13 string) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	cleaned = strings.TrimPrefix(cleaned, "urn:isbn:")

	switch len(cleaned) {
	case 10:
		return cleaned, ""
	case 13:
		return "", cleaned
	}
	return "", ""
}
