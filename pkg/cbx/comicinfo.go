// Package cbx parses metadata out of comic archives. Only zip-based archives
// (.cbz) carry a readable ComicInfo.xml; for .cbr and .cb7 the ingest pipeline
// falls back to filename-derived metadata.
package cbx

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/booklore-app/booklore/pkg/bookmeta"
	"github.com/pkg/errors"
)

type ComicInfo struct {
	XMLName     xml.Name `xml:"ComicInfo"`
	Title       string   `xml:"Title"`
	Series      string   `xml:"Series"`
	Number      string   `xml:"Number"`
	Count       string   `xml:"Count"`
	Volume      string   `xml:"Volume"`
	Summary     string   `xml:"Summary"`
	Year        string   `xml:"Year"`
	Month       string   `xml:"Month"`
	Day         string   `xml:"Day"`
	Writer      string   `xml:"Writer"`
	Penciller   string   `xml:"Penciller"`
	Inker       string   `xml:"Inker"`
	Publisher   string   `xml:"Publisher"`
	Genre       string   `xml:"Genre"`
	PageCount   string   `xml:"PageCount"`
	LanguageISO string   `xml:"LanguageISO"`
	GTIN        string   `xml:"GTIN"`
}

// Parse extracts metadata from the comic archive at path. Non-zip archives
// return an error; callers are expected to fall back to shell metadata.
func Parse(path string) (*bookmeta.Parsed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	stats, err := f.Stat()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	zipReader, err := zip.NewReader(f, stats.Size())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var comicInfo *ComicInfo
	for _, file := range zipReader.File {
		if strings.ToLower(file.Name) == "comicinfo.xml" {
			r, err := file.Open()
			if err != nil {
				return nil, errors.WithStack(err)
			}
			comicInfo, err = ParseComicInfo(r)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			break
		}
	}

	parsed := &bookmeta.Parsed{}

	if comicInfo != nil {
		parsed.Title = comicInfo.Title
		parsed.Series = comicInfo.Series
		parsed.Description = strings.TrimSpace(comicInfo.Summary)
		parsed.Publisher = strings.TrimSpace(comicInfo.Publisher)
		parsed.Language = strings.TrimSpace(comicInfo.LanguageISO)
		parsed.Categories = bookmeta.SplitNames(comicInfo.Genre)

		if comicInfo.Number != "" {
			if num, err := strconv.ParseFloat(comicInfo.Number, 64); err == nil {
				parsed.SeriesNumber = &num
			}
		}
		if comicInfo.Count != "" {
			if count, err := strconv.Atoi(comicInfo.Count); err == nil {
				parsed.SeriesTotal = &count
			}
		}
		if comicInfo.PageCount != "" {
			if pages, err := strconv.Atoi(comicInfo.PageCount); err == nil && pages > 0 {
				parsed.PageCount = &pages
			}
		}

		// Writers are the comic equivalent of authors; pencillers and inkers
		// fill in when no writer is credited.
		parsed.Authors = bookmeta.SplitNames(comicInfo.Writer)
		if len(parsed.Authors) == 0 {
			parsed.Authors = bookmeta.SplitNames(comicInfo.Penciller)
		}
		if len(parsed.Authors) == 0 {
			parsed.Authors = bookmeta.SplitNames(comicInfo.Inker)
		}

		parsed.PublishedDate = parseReleaseDate(comicInfo.Year, comicInfo.Month, comicInfo.Day)

		isbn10, isbn13 := bookmeta.NormalizeISBN(comicInfo.GTIN)
		parsed.ISBN10 = isbn10
		parsed.ISBN13 = isbn13
	}

	// Fall back to series number hints in the filename, e.g. "Title v3".
	if parsed.SeriesNumber == nil {
		if num := extractSeriesNumberFromFilename(filepath.Base(path)); num != nil {
			parsed.SeriesNumber = num
		}
	}

	return parsed, nil
}

// ParseComicInfo parses a ComicInfo.xml document from r.
func ParseComicInfo(r io.ReadCloser) (*ComicInfo, error) {
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	comicInfo := &ComicInfo{}
	err = xml.Unmarshal(b, comicInfo)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return comicInfo, nil
}

func parseReleaseDate(yearStr, monthStr, dayStr string) *time.Time {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year <= 0 {
		return nil
	}

	month := 1
	if m, err := strconv.Atoi(monthStr); err == nil && m >= 1 && m <= 12 {
		month = m
	}
	day := 1
	if d, err := strconv.Atoi(dayStr); err == nil && d >= 1 && d <= 31 {
		day = d
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

var filenameVolumeRe = regexp.MustCompile(`(?i)(?:\bv(?:ol(?:ume)?)?\.?\s*|#)(\d+(?:\.\d+)?)`)

func extractSeriesNumberFromFilename(filename string) *float64 {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	matches := filenameVolumeRe.FindStringSubmatch(name)
	if len(matches) < 2 {
		return nil
	}
	if num, err := strconv.ParseFloat(matches[1], 64); err == nil {
		return &num
	}
	return nil
}
