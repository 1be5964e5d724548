// Package pathpattern renders a user-supplied naming template into a relative
// file path. Templates contain {placeholder} tokens and <...> optional blocks;
// an optional block is dropped entirely when any placeholder inside it is
// blank. Resolution is a pure string transform with no filesystem access.
package pathpattern

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/booklore-app/booklore/pkg/models"
)

var (
	illegalCharRe   = regexp.MustCompile(`[\\/:*?"<>|]`)
	controlCharRe   = regexp.MustCompile(`[[:cntrl:]]`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	optionalBlockRe = regexp.MustCompile(`<([^<>]*)>`)
	placeholderRe   = regexp.MustCompile(`\{(.*?)\}`)
	extensionRe     = regexp.MustCompile(`.*\.[a-zA-Z0-9]+$`)
)

// ResolveBook renders the pattern for a book's primary file. The book's
// Metadata relation may be nil.
func ResolveBook(book *models.Book, pattern string) string {
	return Resolve(book.Metadata, pattern, strings.TrimSpace(book.FileName))
}

// Resolve renders the pattern against the given metadata and the name of the
// file currently on disk. A blank pattern returns the current filename
// unchanged. Unknown placeholders outside optional blocks are preserved
// verbatim; inside an optional block they count as blank and drop the block.
func Resolve(meta *models.Metadata, pattern, currentFilename string) string {
	if strings.TrimSpace(pattern) == "" {
		return currentFilename
	}

	values := buildValues(meta, currentFilename)
	return resolveWithValues(pattern, values, currentFilename)
}

func buildValues(meta *models.Metadata, currentFilename string) map[string]string {
	title := "Untitled"
	subtitle := ""
	authors := ""
	year := ""
	series := ""
	seriesIndex := ""
	language := ""
	publisher := ""
	isbn := ""

	if meta != nil {
		if meta.Title != "" {
			title = meta.Title
		}
		subtitle = meta.Subtitle
		authors = strings.Join(meta.AuthorNames(), ", ")
		if meta.PublishedDate != nil {
			year = strconv.Itoa(meta.PublishedDate.Year())
		}
		series = meta.SeriesName
		if meta.SeriesNumber != nil {
			seriesIndex = formatSeriesNumber(*meta.SeriesNumber)
		}
		language = meta.Language
		publisher = meta.Publisher
		isbn = meta.ISBN13
		if isbn == "" {
			isbn = meta.ISBN10
		}
	}

	return map[string]string{
		"authors":         sanitize(authors),
		"title":           sanitize(title),
		"subtitle":        sanitize(subtitle),
		"year":            sanitize(year),
		"series":          sanitize(series),
		"seriesIndex":     sanitize(seriesIndex),
		"language":        sanitize(language),
		"publisher":       sanitize(publisher),
		"isbn":            sanitize(isbn),
		"currentFilename": currentFilename,
	}
}

func resolveWithValues(pattern string, values map[string]string, currentFilename string) string {
	extension := ""
	if lastDot := strings.LastIndex(currentFilename, "."); lastDot >= 0 && lastDot < len(currentFilename)-1 {
		extension = sanitize(currentFilename[lastDot+1:])
	}
	values["extension"] = extension

	// Pass one: optional blocks. A block survives only if every placeholder
	// inside it resolves to a non-blank value.
	result := optionalBlockRe.ReplaceAllStringFunc(pattern, func(match string) string {
		block := match[1 : len(match)-1]

		for _, ph := range placeholderRe.FindAllStringSubmatch(block, -1) {
			if strings.TrimSpace(values[ph[1]]) == "" {
				return ""
			}
		}

		for key, value := range values {
			block = strings.ReplaceAll(block, "{"+key+"}", value)
		}
		return block
	})

	// Pass two: top-level placeholders. Unknown names stay verbatim.
	result = placeholderRe.ReplaceAllStringFunc(result, func(match string) string {
		key := match[1 : len(match)-1]
		if value, ok := values[key]; ok {
			return value
		}
		return match
	})

	if strings.TrimSpace(result) == "" {
		result = currentFilename
	}

	hasExtension := extensionRe.MatchString(result)
	explicitExtension := strings.Contains(pattern, "{extension}")
	if !explicitExtension && !hasExtension && extension != "" {
		result += "." + extension
	}

	return result
}

func formatSeriesNumber(n float64) string {
	if math.Mod(n, 1) == 0 {
		return strconv.Itoa(int(n))
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func sanitize(input string) string {
	out := illegalCharRe.ReplaceAllString(input, "")
	out = controlCharRe.ReplaceAllString(out, "")
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
