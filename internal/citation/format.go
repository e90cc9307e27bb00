package citation

import "strings"

// Footnote renders the source as a Chicago-style note. page is optional and
// only used when the source itself carries no page range.
func (s Source) Footnote(page string) string {
	a := AuthorFirst(s.Author)
	var b strings.Builder
	switch s.Type {
	case TypeBook:
		b.WriteString(a + ", *" + s.Title + "*")
		b.WriteString(s.publication(" (", ")"))
		if page != "" {
			b.WriteString(", " + page)
		}
	case TypeArticle:
		b.WriteString(a + `, "` + s.Title + `," *` + s.Journal + "*")
		b.WriteString(s.volumeIssue())
		if s.Year != "" {
			b.WriteString(" (" + s.Year + ")")
		}
		switch {
		case s.Pages != "":
			b.WriteString(": " + s.Pages)
		case page != "":
			b.WriteString(": " + page)
		}
	case TypeBookSection:
		b.WriteString(a + `, "` + s.Title + `," in *` + s.BookTitle + "*")
		if s.Editor != "" {
			b.WriteString(", ed. " + s.Editor)
		}
		b.WriteString(s.publication(" (", ")"))
		switch {
		case s.Pages != "":
			b.WriteString(", " + s.Pages)
		case page != "":
			b.WriteString(", " + page)
		}
	case TypeWebsite:
		b.WriteString(a + `, "` + s.Title + `,"`)
		if s.SiteName != "" {
			b.WriteString(" *" + s.SiteName + "*,")
		}
		if s.AccessDate != "" {
			b.WriteString(" accessed " + s.AccessDate + ",")
		}
		if s.URL != "" {
			b.WriteString(" " + s.URL)
		}
		return strings.TrimRight(b.String(), ",") + "."
	default:
		return a + ", *" + s.Title + "* (" + s.Year + ")."
	}
	b.WriteString(".")
	return b.String()
}

// Bibliography renders the source as a Chicago-style bibliography entry.
func (s Source) Bibliography() string {
	a := AuthorLast(s.Author)
	var b strings.Builder
	switch s.Type {
	case TypeBook:
		b.WriteString(a + ". *" + s.Title + "*.")
		b.WriteString(s.publication(" ", "."))
	case TypeArticle:
		b.WriteString(a + `. "` + s.Title + `." *` + s.Journal + "*")
		b.WriteString(s.volumeIssue())
		if s.Year != "" {
			b.WriteString(" (" + s.Year + ")")
		}
		if s.Pages != "" {
			b.WriteString(": " + s.Pages)
		}
		b.WriteString(".")
	case TypeBookSection:
		b.WriteString(a + `. "` + s.Title + `." In *` + s.BookTitle + "*")
		if s.Editor != "" {
			b.WriteString(", edited by " + s.Editor)
		}
		if s.Pages != "" {
			b.WriteString(", " + s.Pages)
		}
		b.WriteString(".")
		b.WriteString(s.publication(" ", "."))
	case TypeWebsite:
		b.WriteString(a + `. "` + s.Title + `."`)
		if s.SiteName != "" {
			b.WriteString(" *" + s.SiteName + "*.")
		}
		if s.AccessDate != "" {
			b.WriteString(" Accessed " + s.AccessDate + ".")
		}
		if s.URL != "" {
			b.WriteString(" " + s.URL + ".")
		}
	default:
		return a + ". *" + s.Title + "*. " + s.Year + "."
	}
	return b.String()
}

// publication renders "{publisher}, {year}" or "{year}" between open and
// close, or nothing when both are empty.
func (s Source) publication(open, close string) string {
	switch {
	case s.Publisher != "":
		return open + s.Publisher + ", " + s.Year + close
	case s.Year != "":
		return open + s.Year + close
	}
	return ""
}

func (s Source) volumeIssue() string {
	if s.Volume == "" {
		return ""
	}
	out := " " + s.Volume
	if s.Issue != "" {
		out += ", no. " + s.Issue
	}
	return out
}

// Citekey derives a pandoc-style key: the lowercase alphabetic surname
// followed by the year.
func (s Source) Citekey() string {
	last := "unknown"
	if s.Author != "" {
		surname, _, _ := strings.Cut(s.Author, ",")
		if fields := strings.Fields(surname); len(fields) > 0 {
			last = strings.ToLower(fields[len(fields)-1])
		}
	}
	var b strings.Builder
	for _, r := range last {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String() + s.Year
}

// Surname returns the lowercase family name used to order a bibliography.
func (s Source) Surname() string {
	surname, _, _ := strings.Cut(s.Author, ",")
	fields := strings.Fields(surname)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}

// AuthorFirst turns "Last, First" into "First Last".
func AuthorFirst(author string) string {
	last, first, ok := strings.Cut(author, ",")
	if !ok {
		return author
	}
	return strings.TrimSpace(first) + " " + strings.TrimSpace(last)
}

// AuthorLast turns "First Last" into "Last, First". Names already in
// comma form and single-word names are returned unchanged.
func AuthorLast(author string) string {
	if author == "" || strings.Contains(author, ",") {
		return author
	}
	idx := strings.LastIndex(author, " ")
	if idx < 0 {
		return author
	}
	return author[idx+1:] + ", " + author[:idx]
}
