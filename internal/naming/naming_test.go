package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvention_Model(t *testing.T) {
	c := NewConvention(nil)

	tests := []struct {
		filename string
		expected string
	}{
		{"book.csv", "book"},
		{"Book.csv", "book"},
		{"chapter.CSV", "chapter"},
		{"some/path/author.csv", "author"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, c.Model(tt.filename), "Model(%q)", tt.filename)
	}
}

func TestConvention_Model_Override(t *testing.T) {
	c := NewConvention(map[string]string{"book": "library_books"})

	assert.Equal(t, "library_books", c.Model("book.csv"))
	assert.Equal(t, "chapter", c.Model("chapter.csv"))
}

func TestConvention_Module(t *testing.T) {
	c := NewConvention(nil)

	assert.Equal(t, "library", c.Module("library"))
	assert.Equal(t, "library", c.Module("data/Library"))
}

func TestConvention_RefTable(t *testing.T) {
	c := NewConvention(nil)

	assert.Equal(t, "author", c.RefTable("author_id"))
	assert.Equal(t, "publisher", c.RefTable("publisher"))
}

func TestConvention_RefTable_Override(t *testing.T) {
	c := NewConvention(map[string]string{"author_id": "people"})

	assert.Equal(t, "people", c.RefTable("author_id"))
}
