package export

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// File is one finished export on disk.
type File struct {
	Name     string
	Path     string
	Format   Format
	Size     int64
	Modified time.Time
	Pages    int
}

// Label renders the file the way the exports list shows it.
func (f File) Label() string {
	label := fmt.Sprintf("%s (%s, %d KB)", f.Name, f.Modified.Format("Jan 02, 2006 15:04"), f.Size/1024)
	if f.Pages > 0 {
		label += fmt.Sprintf(" %dp", f.Pages)
	}
	return label
}

// ListExports returns the pdf, docx and md files in dir, newest first. A
// missing directory yields no files.
func ListExports(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("export: list %s: %w", dir, err)
	}
	var files []File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		format, ok := formatOf(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		f := File{
			Name:     entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			Format:   format,
			Size:     info.Size(),
			Modified: info.ModTime(),
		}
		if format == FormatPDF {
			if pdf, err := InspectPDF(f.Path); err == nil {
				f.Pages = pdf.Pages
			}
		}
		files = append(files, f)
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
	return files, nil
}

func formatOf(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, true
	case ".docx":
		return FormatDOCX, true
	case ".md":
		return FormatMarkdown, true
	}
	return "", false
}

// Printers lists the destinations reported by lpstat -a.
func Printers(ctx context.Context) []string {
	out, err := exec.CommandContext(ctx, "lpstat", "-a").Output()
	if err != nil {
		return nil
	}
	return parsePrinters(string(out))
}

func parsePrinters(out string) []string {
	var printers []string
	for _, line := range strings.Split(out, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			printers = append(printers, fields[0])
		}
	}
	return printers
}

// Print sends path to printer with lp.
func Print(ctx context.Context, printer, path string) error {
	if out, err := exec.CommandContext(ctx, "lp", "-d", printer, path).CombinedOutput(); err != nil {
		return fmt.Errorf("export: print %s: %w: %s", filepath.Base(path), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Open hands path to the desktop's default viewer.
func Open(path string) error {
	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	cmd := exec.Command(opener, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("export: open %s: %w", filepath.Base(path), err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
