package bookmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "Frank Herbert", []string{"Frank Herbert"}},
		{"comma separated", "Terry Pratchett, Neil Gaiman", []string{"Terry Pratchett", "Neil Gaiman"}},
		{"semicolon separated", "Terry Pratchett; Neil Gaiman", []string{"Terry Pratchett", "Neil Gaiman"}},
		{"mixed with blanks", "A,, ;B", []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, SplitNames(tt.input))
		})
	}
}

func TestNormalizeISBN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		isbn10 string
		isbn13 string
	}{
		{"isbn13 with hyphens", "978-0-441-17271-9", "", "9780441172719"},
		{"isbn10", "0441172717", "0441172717", ""},
		{"urn prefix", "urn:isbn:9780441172719", "", "9780441172719"},
		{"garbage", "not-an-isbn", "", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			isbn10, isbn13 := NormalizeISBN(tt.input)
			assert.Equal(t, tt.isbn10, isbn10)
			assert.Equal(t, tt.isbn13, isbn13)
		})
	}
}
