package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseFrontmatter(t *testing.T) {
	t.Parallel()
	text := "---\ntitle: \"A Study: Rivers\"\nauthor: 'Jane Smith'\nstyle: mla\n: orphan\nbibliography:\nnocolon\n---\nBody"
	fm := ParseFrontmatter(text)
	require.Equal(t, "A Study: Rivers", fm["title"])
	require.Equal(t, "Jane Smith", fm["author"])
	require.Equal(t, "mla", fm.Style())
	require.True(t, fm.Has("bibliography"))
	require.Equal(t, "", fm["bibliography"])
	require.Len(t, fm, 4)

	require.Empty(t, ParseFrontmatter("no block here"))
	require.Empty(t, ParseFrontmatter("\n---\ntitle: late\n---"))
}

func TestLastName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Smith", Frontmatter{"author": "Jane Q Smith"}.LastName())
	require.Equal(t, "Doe", Frontmatter{"author": "Jane Smith", "lastname": "Doe"}.LastName())
	require.Equal(t, "", Frontmatter{}.LastName())
}

func TestSafeName(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"My Essay!":             "My_Essay",
		"  spaced  out  ":       "spaced__out",
		"!!!":                   "export",
		"":                      "export",
		"well-formed_name":      "well-formed_name",
		strings.Repeat("x", 60): strings.Repeat("x", 50),
		"Café Notes":            "Café_Notes",
	}
	for in, want := range cases {
		require.Equal(t, want, SafeName(in), "input %q", in)
	}
}

func TestResolveReferenceDoc(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := ResolveReferenceDoc(filepath.Join(dir, "missing"), Frontmatter{})
	require.ErrorIs(t, err, ErrNoReferenceDoc)

	_, err = ResolveReferenceDoc(dir, Frontmatter{})
	require.ErrorIs(t, err, ErrNoReferenceDoc)

	touch(t, filepath.Join(dir, "zeta.docx"))
	touch(t, filepath.Join(dir, "alpha.docx"))
	got, err := ResolveReferenceDoc(dir, Frontmatter{})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "alpha.docx"), got)

	touch(t, filepath.Join(dir, "double.docx"))
	got, _ = ResolveReferenceDoc(dir, Frontmatter{"spacing": "single"})
	require.Equal(t, filepath.Join(dir, "double.docx"), got)

	touch(t, filepath.Join(dir, "single.docx"))
	got, _ = ResolveReferenceDoc(dir, Frontmatter{"spacing": "single"})
	require.Equal(t, filepath.Join(dir, "single.docx"), got)
}

func TestFilterScript(t *testing.T) {
	t.Parallel()

	basic, err := FilterScript(Frontmatter{})
	require.NoError(t, err)
	require.Contains(t, basic, "local function bib_entry_block")
	require.Contains(t, basic, `w:hanging="720"`)
	require.NotContains(t, basic, "meta_title")

	chicago, err := FilterScript(Frontmatter{"style": "chicago", "title": `A "Quoted" Title`, "author": `Back\slash`})
	require.NoError(t, err)
	require.Contains(t, chicago, `local meta_title = "A \"Quoted\" Title"`)
	require.Contains(t, chicago, `local meta_author = "Back\\slash"`)
	require.Contains(t, chicago, "2400")
	require.Contains(t, chicago, "4320")
	require.Contains(t, chicago, `"%s %d, %s"`)

	mla, err := FilterScript(Frontmatter{"style": "mla", "date": "2024-05-01"})
	require.NoError(t, err)
	require.Contains(t, mla, `local meta_date = "2024-05-01"`)
	require.Contains(t, mla, `"%d %s %s"`)
	require.NotContains(t, mla, "4320")
}

func TestPostProcessDOCX(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		fm     Frontmatter
		header string
		footer string
	}{
		{
			name:   "mla keeps header and resolves token",
			fm:     Frontmatter{"style": "mla", "author": "Jane Q Smith"},
			header: "<w:t>Smith 1</w:t>",
			footer: emptyFooterXML,
		},
		{
			name:   "chicago blanks header",
			fm:     Frontmatter{"style": "chicago", "lastname": "Doe"},
			header: emptyHeaderXML,
			footer: "<w:t>Doe</w:t>",
		},
		{
			name:   "no author removes token",
			fm:     Frontmatter{"style": "mla"},
			header: "<w:t>1</w:t>",
			footer: emptyFooterXML,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "out.docx")
			writeZip(t, path, map[string]string{
				"word/document.xml": "<w:document>{{LASTNAME}}</w:document>",
				"word/header1.xml":  "<w:t>{{LASTNAME}} 1</w:t>",
				"word/footer1.xml":  "<w:t>{{LASTNAME}}</w:t>",
			})
			require.NoError(t, PostProcessDOCX(path, tc.fm))
			parts := readZip(t, path)
			require.Equal(t, tc.header, parts["word/header1.xml"])
			require.Equal(t, tc.footer, parts["word/footer1.xml"])
			require.Equal(t, "<w:document>{{LASTNAME}}</w:document>", parts["word/document.xml"])
		})
	}

	require.Error(t, PostProcessDOCX(filepath.Join(t.TempDir(), "missing.docx"), Frontmatter{}))
}

func TestRunMarkdown(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "exports")
	p := &Pipeline{ExportDir: dir, Detect: func() Tools { return Tools{} }}

	res := p.Run(context.Background(), Request{ProjectID: "p1", Name: "My Essay!", Text: "hello", Format: FormatMarkdown})
	require.True(t, res.OK())
	want := filepath.Join(dir, "My_Essay.md")
	require.Equal(t, want, res.Path)
	require.Equal(t, "Exported to "+want, res.Message)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestRunMissingTools(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := filepath.Join(root, "exports")
	refs := filepath.Join(root, "refs")
	require.NoError(t, os.MkdirAll(refs, 0o755))
	touch(t, filepath.Join(refs, "double.docx"))

	p := &Pipeline{ExportDir: dir, RefsDir: refs, Detect: func() Tools { return Tools{} }}
	res := p.Run(context.Background(), Request{ProjectID: "p1", Name: "Essay", Text: "hi", Format: FormatDOCX})
	require.Equal(t, OutcomeToolMissing, res.Outcome)
	require.Equal(t, "Pandoc not found. Install pandoc for export.", res.Message)
	require.ErrorIs(t, res.Err, ErrToolNotFound)
	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err), "nothing is written before the tool check")

	p.Detect = func() Tools { return Tools{Pandoc: "/bin/true"} }
	res = p.Run(context.Background(), Request{ProjectID: "p1", Name: "Essay", Text: "hi", Format: FormatPDF})
	require.Equal(t, OutcomeToolMissing, res.Outcome)
	require.Equal(t, "LibreOffice not found. Install LibreOffice for PDF export.", res.Message)
	_, err = os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}

func TestRunNoReferenceDoc(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := filepath.Join(root, "exports")
	p := &Pipeline{ExportDir: dir, RefsDir: filepath.Join(root, "refs"), Detect: func() Tools { return Tools{Pandoc: "/bin/true"} }}

	res := p.Run(context.Background(), Request{ProjectID: "p1", Name: "Essay", Text: "hi", Format: FormatDOCX})
	require.Equal(t, OutcomeNoReference, res.Outcome)
	require.Equal(t, "No reference .docx found in refs/ directory.", res.Message)
	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}

type fixture struct {
	root     string
	exports  string
	refs     string
	argsFile string
	pipeline *Pipeline
	states   []State
	mu       sync.Mutex
}

func newFixture(t *testing.T, pandocBody string) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	root := t.TempDir()
	f := &fixture{
		root:     root,
		exports:  filepath.Join(root, "exports"),
		refs:     filepath.Join(root, "refs"),
		argsFile: filepath.Join(root, "pandoc.args"),
	}
	require.NoError(t, os.MkdirAll(f.refs, 0o755))
	touch(t, filepath.Join(f.refs, "double.docx"))

	if pandocBody == "" {
		pandocBody = fmt.Sprintf(`echo "$@" > %q
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
printf 'not a zip' > "$out"`, f.argsFile)
	}
	pandoc := script(t, root, "pandoc", pandocBody)
	soffice := script(t, root, "soffice", `base=$(basename "$6" .docx)
printf '%%PDF-1.4 fake' > "$5/$base.pdf"`)

	f.pipeline = &Pipeline{
		ExportDir: f.exports,
		RefsDir:   f.refs,
		Timeout:   5 * time.Second,
		Detect:    func() Tools { return Tools{Pandoc: pandoc, LibreOffice: soffice} },
		OnState: func(s State) {
			f.mu.Lock()
			f.states = append(f.states, s)
			f.mu.Unlock()
		},
	}
	return f
}

func (f *fixture) leftovers(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.exports)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunDOCX(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")

	res := f.pipeline.Run(context.Background(), Request{ProjectID: "p1", Name: "My Essay", Text: "# Hi", Format: FormatDOCX})
	require.True(t, res.OK(), res.Message)
	require.Equal(t, filepath.Join(f.exports, "My_Essay.docx"), res.Path)
	require.Equal(t, []string{"My_Essay.docx"}, f.leftovers(t))
	require.Equal(t, []State{StateIdle, StateWritingSource, StateFiltering, StateConverting, StatePostprocessing, StateDone}, f.states)

	args, err := os.ReadFile(f.argsFile)
	require.NoError(t, err)
	require.Contains(t, string(args), "--standalone --reference-doc="+filepath.Join(f.refs, "double.docx"))
	require.Contains(t, string(args), "--lua-filter="+filepath.Join(f.exports, "p1_filter.lua"))
	require.NotContains(t, string(args), "--citeproc")
}

func TestRunDOCXWithBibliography(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")

	text := "---\nbibliography: refs.bib\n---\nBody"
	res := f.pipeline.Run(context.Background(), Request{ProjectID: "p1", Name: "Essay", Text: text, Format: FormatDOCX})
	require.True(t, res.OK(), res.Message)
	args, err := os.ReadFile(f.argsFile)
	require.NoError(t, err)
	require.Contains(t, string(args), "--citeproc -o")
}

func TestRunPDF(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")

	res := f.pipeline.Run(context.Background(), Request{ProjectID: "p1", Name: "Essay", Text: "Body", Format: FormatPDF})
	require.True(t, res.OK(), res.Message)
	want := filepath.Join(f.exports, "Essay.pdf")
	require.Equal(t, want, res.Path)
	require.Equal(t, "Exported to "+want, res.Message)
	require.Equal(t, []string{"Essay.pdf"}, f.leftovers(t), "intermediate docx is removed")
	require.Contains(t, f.states, StateRendering)
}

func TestRunPandocFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, `echo "unknown option" >&2
exit 3`)

	res := f.pipeline.Run(context.Background(), Request{ProjectID: "p1", Name: "Essay", Text: "Body", Format: FormatPDF})
	require.Equal(t, OutcomeToolFailed, res.Outcome)
	require.Equal(t, "Pandoc error: unknown option\n", res.Message)
	require.Empty(t, f.leftovers(t))
	require.Equal(t, StateFailed, f.states[len(f.states)-1])
}

func TestRunTruncatesDiagnostics(t *testing.T) {
	t.Parallel()
	f := newFixture(t, fmt.Sprintf(`printf '%s' >&2
exit 1`, strings.Repeat("e", 300)))

	res := f.pipeline.Run(context.Background(), Request{ProjectID: "p1", Name: "Essay", Text: "Body", Format: FormatDOCX})
	require.Equal(t, "Pandoc error: "+strings.Repeat("e", 200), res.Message)
}

func TestRunTimeout(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "exec sleep 5")
	f.pipeline.Timeout = 200 * time.Millisecond

	res := f.pipeline.Run(context.Background(), Request{ProjectID: "p1", Name: "Essay", Text: "Body", Format: FormatDOCX})
	require.Equal(t, OutcomeTimeout, res.Outcome)
	require.Equal(t, "Export timed out.", res.Message)
	require.ErrorIs(t, res.Err, ErrTimeout)
	require.Empty(t, f.leftovers(t))
}

const slowPandoc = `sleep 0.5
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
printf 'not a zip' > "$out"`

// maxConcurrent replays the recorded states and returns the most runs
// that were between idle and done/failed at the same time.
func (f *fixture) maxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	active, peak := 0, 0
	for _, s := range f.states {
		switch s {
		case StateIdle:
			active++
		case StateDone, StateFailed:
			active--
		}
		peak = max(peak, active)
	}
	return peak
}

func runConcurrently(t *testing.T, f *fixture, reqs ...Request) {
	t.Helper()
	results := make([]Result, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			results[i] = f.pipeline.Run(context.Background(), req)
		}(i, req)
	}
	wg.Wait()
	for _, res := range results {
		require.True(t, res.OK(), res.Message)
	}
}

func TestRunSerializesSameProject(t *testing.T) {
	t.Parallel()
	f := newFixture(t, slowPandoc)

	runConcurrently(t, f,
		Request{ProjectID: "p1", Name: "Essay", Text: "one", Format: FormatDOCX},
		Request{ProjectID: "p1", Name: "Essay", Text: "two", Format: FormatDOCX},
	)
	require.Equal(t, 1, f.maxConcurrent(), "states %v", f.states)
	require.Len(t, f.states, 12)
}

func TestRunDifferentProjectsOverlap(t *testing.T) {
	t.Parallel()
	f := newFixture(t, slowPandoc)

	runConcurrently(t, f,
		Request{ProjectID: "p1", Name: "First", Text: "one", Format: FormatDOCX},
		Request{ProjectID: "p2", Name: "Second", Text: "two", Format: FormatDOCX},
	)
	require.Equal(t, 2, f.maxConcurrent(), "states %v", f.states)
	require.ElementsMatch(t, []string{"First.docx", "Second.docx"}, f.leftovers(t))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	require.Equal(t, FormatPDF, f)
	_, err = ParseFormat("odt")
	require.Error(t, err)
}

func TestListExports(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	now := time.Now()
	for i, name := range []string{"old.md", "mid.docx", "new.pdf", "scratch.lua", "notes.txt"} {
		path := filepath.Join(dir, name)
		touch(t, path)
		stamp := now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, stamp, stamp))
	}

	files, err := ListExports(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	require.Equal(t, "new.pdf", files[0].Name)
	require.Equal(t, FormatPDF, files[0].Format)
	require.Equal(t, "mid.docx", files[1].Name)
	require.Equal(t, "old.md", files[2].Name)
	require.Contains(t, files[2].Label(), "old.md (")

	missing, err := ListExports(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	require.Empty(t, missing)
}

// writePDF writes a minimal valid PDF with the given number of blank
// pages.
func writePDF(t *testing.T, path string, pages int) {
	t.Helper()
	kids := make([]string, pages)
	objects := []string{"<< /Type /Catalog /Pages 2 0 R >>", ""}
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestInspectPDFCountsPages(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writePDF(t, filepath.Join(dir, "Essay.pdf"), 2)

	info, err := InspectPDF(filepath.Join(dir, "Essay.pdf"))
	require.NoError(t, err)
	require.Equal(t, 2, info.Pages)

	files, err := ListExports(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, 2, files[0].Pages)
	require.Contains(t, files[0].Label(), " 2p")

	touch(t, filepath.Join(dir, "broken.pdf"))
	_, err = InspectPDF(filepath.Join(dir, "broken.pdf"))
	require.Error(t, err)
}

func TestParsePrinters(t *testing.T) {
	t.Parallel()
	out := "Office_Laser accepting requests since Mon 01 Jan\n\nHome accepting requests since Tue\n"
	require.Equal(t, []string{"Office_Laser", "Home"}, parsePrinters(out))
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func script(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func writeZip(t *testing.T, path string, parts map[string]string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	parts := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		parts[f.Name] = string(data)
	}
	return parts
}
