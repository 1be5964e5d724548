package cbx

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCBZ(t *testing.T, comicInfoXML string) string {
	t.Helper()

	tmpDir := t.TempDir()
	cbzPath := filepath.Join(tmpDir, "Saga v3.cbz")

	f, err := os.Create(cbzPath)
	require.NoError(t, err)

	zw := zip.NewWriter(f)

	imgWriter, err := zw.Create("page001.jpg")
	require.NoError(t, err)
	_, err = imgWriter.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	require.NoError(t, err)

	if comicInfoXML != "" {
		comicInfoWriter, err := zw.Create("ComicInfo.xml")
		require.NoError(t, err)
		_, err = comicInfoWriter.Write([]byte(comicInfoXML))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	return cbzPath
}

func TestParse(t *testing.T) {
	t.Parallel()

	path := writeCBZ(t, `<?xml version="1.0"?>
<ComicInfo>
  <Title>Saga Volume Three</Title>
  <Series>Saga</Series>
  <Number>3</Number>
  <Count>12</Count>
  <Summary>Space opera continues.</Summary>
  <Year>2014</Year>
  <Month>3</Month>
  <Day>25</Day>
  <Writer>Brian K. Vaughan</Writer>
  <Penciller>Fiona Staples</Penciller>
  <Publisher>Image Comics</Publisher>
  <Genre>Science Fiction, Fantasy</Genre>
  <PageCount>144</PageCount>
  <LanguageISO>en</LanguageISO>
  <GTIN>9781607069317</GTIN>
</ComicInfo>`)

	parsed, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "Saga Volume Three", parsed.Title)
	assert.Equal(t, "Saga", parsed.Series)
	require.NotNil(t, parsed.SeriesNumber)
	assert.Equal(t, 3.0, *parsed.SeriesNumber)
	require.NotNil(t, parsed.SeriesTotal)
	assert.Equal(t, 12, *parsed.SeriesTotal)
	assert.Equal(t, "Space opera continues.", parsed.Description)
	assert.Equal(t, []string{"Brian K. Vaughan"}, parsed.Authors)
	assert.Equal(t, "Image Comics", parsed.Publisher)
	assert.Equal(t, []string{"Science Fiction", "Fantasy"}, parsed.Categories)
	require.NotNil(t, parsed.PageCount)
	assert.Equal(t, 144, *parsed.PageCount)
	assert.Equal(t, "en", parsed.Language)
	assert.Equal(t, "9781607069317", parsed.ISBN13)
	require.NotNil(t, parsed.PublishedDate)
	assert.Equal(t, 2014, parsed.PublishedDate.Year())
}

func TestParse_NoComicInfoFallsBackToFilename(t *testing.T) {
	t.Parallel()

	path := writeCBZ(t, "")

	parsed, err := Parse(path)
	require.NoError(t, err)

	assert.Empty(t, parsed.Title)
	// "Saga v3.cbz" carries a volume hint.
	require.NotNil(t, parsed.SeriesNumber)
	assert.Equal(t, 3.0, *parsed.SeriesNumber)
}

func TestParse_PencillerFallback(t *testing.T) {
	t.Parallel()

	path := writeCBZ(t, `<?xml version="1.0"?>
<ComicInfo>
  <Title>Untitled Comic</Title>
  <Penciller>Fiona Staples</Penciller>
</ComicInfo>`)

	parsed, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fiona Staples"}, parsed.Authors)
}

func TestParse_NotAZipArchive(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "broken.cbr")
	require.NoError(t, os.WriteFile(path, []byte("Rar!\x1a\x07\x00 not really"), 0600))

	_, err := Parse(path)
	require.Error(t, err)
}

func TestExtractSeriesNumberFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		expected *float64
	}{
		{"Saga v3.cbz", float64Ptr(3)},
		{"Saga Vol. 12.cbz", float64Ptr(12)},
		{"Saga Volume 2.cbz", float64Ptr(2)},
		{"Saga #7.5.cbz", float64Ptr(7.5)},
		{"Saga.cbz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()
			got := extractSeriesNumberFromFilename(tt.filename)
			if tt.expected == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.expected, *got)
			}
		})
	}
}

func float64Ptr(f float64) *float64 {
	return &f
}
