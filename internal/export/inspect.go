package export

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFInfo summarizes a rendered PDF.
type PDFInfo struct {
	Pages int
}

// InspectPDF reads the page count of the PDF at path. Only the page tree
// is read, so listing many exports stays cheap.
func InspectPDF(path string) (info PDFInfo, err error) {
	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("export: inspect %s: %v", path, r)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return PDFInfo{}, fmt.Errorf("export: open pdf: %w", err)
	}
	defer file.Close()

	info.Pages = reader.NumPage()
	return info, nil
}
