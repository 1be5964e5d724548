package processor

import (
	"regexp"
	"strings"

	"github.com/booklore-app/booklore/pkg/bookmeta"
	"github.com/booklore-app/booklore/pkg/cbx"
	"github.com/booklore-app/booklore/pkg/epub"
	"github.com/booklore-app/booklore/pkg/models"
	"github.com/booklore-app/booklore/pkg/pdf"
)

type epubExtractor struct{}

func (epubExtractor) BookType() string { return models.BookTypeEPUB }

func (epubExtractor) Extract(file *LibraryFile) (*bookmeta.Parsed, error) {
	return epub.Parse(file.FullPath())
}

type pdfExtractor struct{}

func (pdfExtractor) BookType() string { return models.BookTypePDF }

func (pdfExtractor) Extract(file *LibraryFile) (*bookmeta.Parsed, error) {
	return pdf.Parse(file.FullPath())
}

type cbxExtractor struct{}

func (cbxExtractor) BookType() string { return models.BookTypeCBX }

func (cbxExtractor) Extract(file *LibraryFile) (*bookmeta.Parsed, error) {
	return cbx.Parse(file.FullPath())
}

var parentheticalPattern = regexp.MustCompile(`\s?\(.*?\)`)

// CleanFileName derives a shell title from a filename: drops "(Z-Library)"
// junk, parenthesized annotations, and the extension.
func CleanFileName(fileName string) string {
	name := strings.TrimSpace(strings.ReplaceAll(fileName, "(Z-Library)", ""))
	name = strings.TrimSpace(parentheticalPattern.ReplaceAllString(name, ""))
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = strings.TrimSpace(name[:idx])
	}
	return name
}

func metadataFromParsed(parsed *bookmeta.Parsed) *models.Metadata {
	meta := &models.Metadata{
		Title:         parsed.Title,
		Subtitle:      parsed.Subtitle,
		Description:   parsed.Description,
		Publisher:     parsed.Publisher,
		PublishedDate: parsed.PublishedDate,
		Language:      parsed.Language,
		SeriesName:    parsed.Series,
		SeriesNumber:  parsed.SeriesNumber,
		SeriesTotal:   parsed.SeriesTotal,
		ISBN10:        parsed.ISBN10,
		ISBN13:        parsed.ISBN13,
		PageCount:     parsed.PageCount,
	}

	for _, name := range parsed.Authors {
		meta.Authors = append(meta.Authors, &models.Author{Name: name})
	}
	for _, name := range parsed.Categories {
		meta.Categories = append(meta.Categories, &models.Category{Name: name})
	}

	return meta
}
