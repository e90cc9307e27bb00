package export

import (
	"os"
	"os/exec"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Tools holds resolved paths to the external converters. An empty path
// means the tool is not installed.
type Tools struct {
	Pandoc      string
	LibreOffice string
}

var (
	pandocFallbacks = []string{
		"/usr/local/bin/pandoc",
		"/opt/homebrew/bin/pandoc",
		"/usr/bin/pandoc",
		"/snap/bin/pandoc",
	}
	libreOfficeDarwin = []string{
		"/Applications/LibreOffice.app/Contents/MacOS/soffice",
		"/usr/local/bin/soffice",
	}
	libreOfficeUnix = []string{
		"/usr/bin/libreoffice",
		"/usr/bin/soffice",
		"/usr/local/bin/libreoffice",
		"/snap/bin/libreoffice",
	}
)

// DetectTools looks both converters up concurrently.
func DetectTools() Tools {
	var (
		tools Tools
		g     errgroup.Group
	)
	g.Go(func() error {
		tools.Pandoc = DetectPandoc()
		return nil
	})
	g.Go(func() error {
		tools.LibreOffice = DetectLibreOffice()
		return nil
	})
	_ = g.Wait()
	return tools
}

// DetectPandoc checks PATH first, then the usual install locations.
func DetectPandoc() string {
	if p, err := exec.LookPath("pandoc"); err == nil {
		return p
	}
	return firstFile(pandocFallbacks)
}

// DetectLibreOffice checks the platform's install locations before PATH.
func DetectLibreOffice() string {
	candidates := libreOfficeUnix
	if runtime.GOOS == "darwin" {
		candidates = libreOfficeDarwin
	}
	if p := firstFile(candidates); p != "" {
		return p
	}
	for _, name := range []string{"libreoffice", "soffice"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

func firstFile(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}
