package epub

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/booklore-app/booklore/pkg/bookmeta"
	"github.com/pkg/errors"
)

type Package struct {
	XMLName          xml.Name `xml:"package"`
	Text             string   `xml:",chardata"`
	Xmlns            string   `xml:"xmlns,attr"`
	Version          string   `xml:"version,attr"`
	UniqueIdentifier string   `xml:"unique-identifier,attr"`
	Metadata         struct {
		Text    string `xml:",chardata"`
		Opf     string `xml:"opf,attr"`
		Dc      string `xml:"dc,attr"`
		Dcterms string `xml:"dcterms,attr"`
		Xsi     string `xml:"xsi,attr"`
		Calibre string `xml:"calibre,attr"`
		Title   []struct {
			Text string `xml:",chardata"`
			ID   string `xml:"id,attr"`
		} `xml:"title"`
		Creator []struct {
			Text   string `xml:",chardata"`
			ID     string `xml:"id,attr"`
			Role   string `xml:"role,attr"`
			FileAs string `xml:"file-as,attr"`
		} `xml:"creator"`
		Subject     []string `xml:"subject"`
		Description string   `xml:"description"`
		Publisher   string   `xml:"publisher"`
		Identifier  []struct {
			Text   string `xml:",chardata"`
			ID     string `xml:"id,attr"`
			Scheme string `xml:"scheme,attr"`
		} `xml:"identifier"`
		Date     string `xml:"date"`
		Rights   string `xml:"rights"`
		Language string `xml:"language"`
		Meta     []struct {
			Text     string `xml:",chardata"`
			Name     string `xml:"name,attr"`
			Content  string `xml:"content,attr"`
			Refines  string `xml:"refines,attr"`
			Property string `xml:"property,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Text string `xml:",chardata"`
		Item []struct {
			Text      string `xml:",chardata"`
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Text    string `xml:",chardata"`
		Toc     string `xml:"toc,attr"`
		Itemref []struct {
			Text  string `xml:",chardata"`
			Idref string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// Parse extracts bibliographic metadata from the OPF package document inside
// the EPUB archive at path.
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

	for _, file := range zipReader.File {
		if filepath.Ext(file.Name) == ".opf" {
			r, err := file.Open()
			if err != nil {
				return nil, errors.WithStack(err)
			}
			return ParseOPF(file.Name, r)
		}
	}

	return nil, errors.New("no opf file found")
}

// ParseOPF parses the package document read from r. The filename is the
// OPF's path inside the archive.
func ParseOPF(_ string, r io.ReadCloser) (*bookmeta.Parsed, error) {
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pkg := &Package{}
	err = xml.Unmarshal(b, pkg)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Parse out refining meta tags into a more lookup-friendly structure.
	metaProperties := map[string]map[string]string{}
	metaContent := map[string]string{}
	for _, m := range pkg.Metadata.Meta {
		if m.Refines != "" {
			key := strings.ReplaceAll(m.Refines, "#", "")
			if _, ok := metaProperties[key]; !ok {
				metaProperties[key] = map[string]string{}
			}
			metaProperties[key][m.Property] = m.Text
		} else if m.Content != "" {
			metaContent[m.Name] = m.Content
		}
	}

	// Main title and subtitle. A single dc:title is the main title; with
	// several, title-type refinements decide which is which.
	title := ""
	subtitle := ""
	if len(pkg.Metadata.Title) == 1 {
		title = pkg.Metadata.Title[0].Text
	} else if len(pkg.Metadata.Title) > 1 {
		for _, t := range pkg.Metadata.Title {
			titleType := ""
			if t.ID != "" && metaProperties[t.ID] != nil {
				titleType = metaProperties[t.ID]["title-type"]
			}
			switch titleType {
			case "main":
				title = t.Text
			case "subtitle":
				subtitle = t.Text
			}
		}
		if title == "" {
			title = pkg.Metadata.Title[0].Text
		}
	}

	authors := []string{}
	for _, creator := range pkg.Metadata.Creator {
		role := creator.Role
		if role == "" && creator.ID != "" && metaProperties[creator.ID] != nil {
			role = metaProperties[creator.ID]["role"]
		}
		if role == "aut" || role == "" || len(pkg.Metadata.Creator) == 1 {
			authors = append(authors, strings.TrimSpace(creator.Text))
		}
	}

	isbn10 := ""
	isbn13 := ""
	for _, id := range pkg.Metadata.Identifier {
		i10, i13 := bookmeta.NormalizeISBN(id.Text)
		if i10 != "" && isbn10 == "" {
			isbn10 = i10
		}
		if i13 != "" && isbn13 == "" {
			isbn13 = i13
		}
	}

	series := metaContent["calibre:series"]
	var seriesNumber *float64
	if seriesIndexStr := metaContent["calibre:series_index"]; seriesIndexStr != "" {
		if num, err := strconv.ParseFloat(seriesIndexStr, 64); err == nil {
			seriesNumber = &num
		}
	}

	categories := []string{}
	for _, subject := range pkg.Metadata.Subject {
		if trimmed := strings.TrimSpace(subject); trimmed != "" {
			categories = append(categories, trimmed)
		}
	}

	return &bookmeta.Parsed{
		Title:         title,
		Subtitle:      subtitle,
		Authors:       authors,
		Categories:    categories,
		Description:   strings.TrimSpace(pkg.Metadata.Description),
		Publisher:     strings.TrimSpace(pkg.Metadata.Publisher),
		PublishedDate: parseDate(pkg.Metadata.Date),
		Language:      strings.TrimSpace(pkg.Metadata.Language),
		Series:        series,
		SeriesNumber:  seriesNumber,
		ISBN10:        isbn10,
		ISBN13:        isbn13,
	}, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
	"2006",
}

func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
