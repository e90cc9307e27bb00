package export

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
)

// DefaultSpacing names the reference document used when the frontmatter
// does not pick one.
const DefaultSpacing = "double"

// ErrNoReferenceDoc means refsDir holds no usable .docx template.
var ErrNoReferenceDoc = errors.New("no reference .docx found")

// ResolveReferenceDoc picks the pandoc reference document: the file named
// by the spacing key, then the default, then the first .docx by name.
func ResolveReferenceDoc(refsDir string, fm Frontmatter) (string, error) {
	info, err := os.Stat(refsDir)
	if err != nil || !info.IsDir() {
		return "", ErrNoReferenceDoc
	}
	if spacing := fm["spacing"]; spacing != "" {
		if p := filepath.Join(refsDir, spacing+".docx"); exists(p) {
			return p, nil
		}
	}
	if p := filepath.Join(refsDir, DefaultSpacing+".docx"); exists(p) {
		return p, nil
	}
	matches, _ := filepath.Glob(filepath.Join(refsDir, "*.docx"))
	if len(matches) == 0 {
		return "", ErrNoReferenceDoc
	}
	sort.Strings(matches)
	return matches[0], nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
