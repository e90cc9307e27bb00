package receiver

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	unsafeLast  = regexp.MustCompile(`[^\p{L}\p{N}_-]`)
	unsafeTitle = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
)

// FileName builds "<Last>-<Title><ext>" from the student's name and the
// submission title.
func FileName(student, title, ext string) string {
	last := "Unknown"
	if words := strings.Fields(student); len(words) > 0 {
		last = words[len(words)-1]
	}
	last = truncateRunes(unsafeLast.ReplaceAllString(last, ""), 30)
	safeTitle := truncateRunes(strings.TrimSpace(unsafeTitle.ReplaceAllString(title, "")), 50)
	return last + "-" + safeTitle + ext
}

// Extension picks .md for markdown or plain-text uploads and .pdf for
// everything else.
func Extension(contentType string) string {
	if strings.Contains(contentType, "markdown") || strings.Contains(contentType, "text/plain") {
		return ".md"
	}
	return ".pdf"
}

// uniquePath returns dir/name, or "stem (n)ext" with the first free n
// from 2 when the name is taken.
func uniquePath(dir, name string) string {
	dest := filepath.Join(dir, name)
	if !fileExists(dest) {
		return dest
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		dest = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if !fileExists(dest) {
			return dest
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func truncateRunes(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
