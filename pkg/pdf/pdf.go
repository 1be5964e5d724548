// Package pdf extracts bibliographic metadata from PDF document information
// dictionaries.
package pdf

import (
	"os"
	"strings"

	"github.com/booklore-app/booklore/pkg/bookmeta"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
)

// Parse reads the document information dictionary of the PDF at path. PDFs
// carry far less structured metadata than EPUBs; the title and author fields
// are frequently empty or junk, which the caller handles by falling back to
// filename-derived metadata.
func Parse(path string) (*bookmeta.Parsed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	info, err := api.PDFInfo(f, path, nil, false, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return fromInfo(info.Title, info.Author, info.Subject, info.Keywords, info.PageCount), nil
}

func fromInfo(title, author, subject string, keywords []string, pageCount int) *bookmeta.Parsed {
	parsed := &bookmeta.Parsed{
		Title:       title,
		Authors:     bookmeta.SplitNames(author),
		Description: subject,
	}

	for _, kw := range keywords {
		if trimmed := strings.TrimSpace(kw); trimmed != "" {
			parsed.Categories = append(parsed.Categories, trimmed)
		}
	}

	if pageCount > 0 {
		parsed.PageCount = &pageCount
	}

	return parsed
}
