package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/csheth/manuscripts/internal/atomicfile"
)

const (
	lastNameToken = "{{LASTNAME}}"

	emptyHeaderXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:p>
    <w:pPr>
      <w:pStyle w:val="Header"/>
    </w:pPr>
  </w:p>
</w:hdr>`

	emptyFooterXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:p>
    <w:pPr>
      <w:pStyle w:val="Footer"/>
    </w:pPr>
  </w:p>
</w:ftr>`
)

var (
	headerPart = regexp.MustCompile(`^word/header\d*\.xml`)
	footerPart = regexp.MustCompile(`^word/footer\d*\.xml`)
)

// PostProcessDOCX rewrites the header and footer parts of the docx at
// path. MLA keeps headers and blanks footers; every other style blanks
// headers. Parts that survive get the {{LASTNAME}} token resolved.
func PostProcessDOCX(path string, fm Frontmatter) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("export: open docx: %w", err)
	}
	defer zr.Close()

	mla := fm.Style() == "mla"
	lastName := fm.LastName()
	token := strings.NewReplacer(lastNameToken+" ", "", lastNameToken, "")
	if lastName != "" {
		token = strings.NewReplacer(lastNameToken+" ", lastName+" ", lastNameToken, lastName)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		data, err := readPart(f)
		if err != nil {
			return err
		}
		isHeader := headerPart.MatchString(f.Name)
		isFooter := footerPart.MatchString(f.Name)
		switch {
		case isHeader && !mla:
			data = []byte(emptyHeaderXML)
		case isFooter && mla:
			data = []byte(emptyFooterXML)
		case isHeader || isFooter:
			data = []byte(token.Replace(string(data)))
		}

		hdr := f.FileHeader
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(&hdr)
		if err != nil {
			return fmt.Errorf("export: write %s: %w", f.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("export: write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("export: finish docx: %w", err)
	}
	zr.Close()
	if err := atomicfile.Write(path, buf.Bytes()); err != nil {
		return fmt.Errorf("export: replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("export: read %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("export: read %s: %w", f.Name, err)
	}
	return data, nil
}
