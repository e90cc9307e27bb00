// Package citation models bibliographic sources and formats them as
// Chicago-style footnotes and bibliography entries.
package citation

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/oklog/ulid/v2"
)

// SourceType selects the citation layout for a Source.
type SourceType string

const (
	TypeBook        SourceType = "book"
	TypeBookSection SourceType = "book_section"
	TypeArticle     SourceType = "article"
	TypeWebsite     SourceType = "website"
)

// SourceTypes lists the supported types in form order.
var SourceTypes = []SourceType{TypeBook, TypeBookSection, TypeArticle, TypeWebsite}

// Source is a bibliographic record attached to a project.
type Source struct {
	ID         string     `json:"id"`
	Type       SourceType `json:"source_type"`
	Author     string     `json:"author"`
	Title      string     `json:"title"`
	Year       string     `json:"year"`
	Publisher  string     `json:"publisher,omitempty"`
	City       string     `json:"city,omitempty"`
	Journal    string     `json:"journal,omitempty"`
	Volume     string     `json:"volume,omitempty"`
	Issue      string     `json:"issue,omitempty"`
	Pages      string     `json:"pages,omitempty"`
	BookTitle  string     `json:"book_title,omitempty"`
	Editor     string     `json:"editor,omitempty"`
	URL        string     `json:"url,omitempty"`
	AccessDate string     `json:"access_date,omitempty"`
	SiteName   string     `json:"site_name,omitempty"`
}

// Validate enforces the fields required before a source is persisted.
func (s Source) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Type, validation.Required, validation.In(TypeBook, TypeBookSection, TypeArticle, TypeWebsite)),
		validation.Field(&s.Author, validation.Required.Error("author is required")),
		validation.Field(&s.Title, validation.Required.Error("title is required")),
	)
}

// Field describes one input of the source form.
type Field struct {
	Key   string
	Label string
}

var fieldsByType = map[SourceType][]Field{
	TypeBook: {
		{"author", "Author (Last, First)"},
		{"title", "Title"},
		{"year", "Year"},
		{"publisher", "Publisher"},
	},
	TypeBookSection: {
		{"author", "Author (Last, First)"},
		{"title", "Chapter Title"},
		{"book_title", "Book Title"},
		{"editor", "Editor"},
		{"year", "Year"},
		{"publisher", "Publisher"},
		{"pages", "Pages"},
	},
	TypeArticle: {
		{"author", "Author (Last, First)"},
		{"title", "Title"},
		{"year", "Year"},
		{"journal", "Journal"},
		{"volume", "Volume"},
		{"issue", "Issue"},
		{"pages", "Pages"},
	},
	TypeWebsite: {
		{"author", "Author (Last, First)"},
		{"title", "Title"},
		{"year", "Year"},
		{"site_name", "Website Name"},
		{"url", "URL"},
		{"access_date", "Access Date"},
	},
}

// FieldsFor returns the form fields shown for a source type.
func FieldsFor(t SourceType) []Field {
	return append([]Field(nil), fieldsByType[t]...)
}

// NewSource builds a source from form values keyed by Field.Key, assigns
// a fresh id and validates it.
func NewSource(t SourceType, values map[string]string) (Source, error) {
	get := func(key string) string { return strings.TrimSpace(values[key]) }
	src := Source{
		ID:         NewID(),
		Type:       t,
		Author:     get("author"),
		Title:      get("title"),
		Year:       get("year"),
		Publisher:  get("publisher"),
		City:       get("city"),
		Journal:    get("journal"),
		Volume:     get("volume"),
		Issue:      get("issue"),
		Pages:      get("pages"),
		BookTitle:  get("book_title"),
		Editor:     get("editor"),
		URL:        get("url"),
		AccessDate: get("access_date"),
		SiteName:   get("site_name"),
	}
	if err := src.Validate(); err != nil {
		return Source{}, err
	}
	return src, nil
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a sortable, timestamp-derived identifier.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
