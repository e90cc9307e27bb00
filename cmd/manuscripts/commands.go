package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/csheth/manuscripts/internal/citation"
	"github.com/csheth/manuscripts/internal/export"
	"github.com/csheth/manuscripts/internal/project"
)

var errProjectArg = errors.New("a manuscript name or id is required")

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List manuscripts, most recently modified first",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			summaries, err := a.store.List()
			if err != nil {
				return err
			}
			return writeSummaries(cmd.Root().Writer, summaries)
		},
	}
}

func writeSummaries(w io.Writer, summaries []project.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMODIFIED")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Name, s.Modified.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create an empty manuscript",
		ArgsUsage: "<name>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if err := project.ValidateName(name); err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			p, err := a.store.Create(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "Created %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export a manuscript without opening the editor",
		ArgsUsage: "<manuscript>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "pdf, docx or md",
				Value:   string(export.FormatPDF),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := export.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			p, err := resolveProject(a.store, cmd.Args().First())
			if err != nil {
				return err
			}
			res := a.pipeline.Run(ctx, export.Request{
				ProjectID: p.ID,
				Name:      p.Name,
				Text:      p.Content,
				Format:    format,
			})
			if !res.OK() {
				return fmt.Errorf("%s: %s", res.Outcome, res.Message)
			}
			fmt.Fprintln(cmd.Root().Writer, res.Path)
			return nil
		},
	}
}

func importBibCommand() *cli.Command {
	return &cli.Command{
		Name:      "import-bib",
		Usage:     "Add the entries of a BibTeX file to a manuscript's sources",
		ArgsUsage: "<manuscript> <file.bib>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return errors.New("usage: import-bib <manuscript> <file.bib>")
			}
			raw, err := os.ReadFile(cmd.Args().Get(1))
			if err != nil {
				return err
			}
			sources := citation.ParseBibTeX(string(raw))
			if len(sources) == 0 {
				return fmt.Errorf("no entries found in %s", cmd.Args().Get(1))
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			p, err := resolveProject(a.store, cmd.Args().First())
			if err != nil {
				return err
			}
			for _, src := range sources {
				p.AddSource(src)
			}
			if err := a.store.Save(&p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "Imported %d source(s) into %s\n", len(sources), p.Name)
			return nil
		},
	}
}

// resolveProject finds a project by id, then by case-insensitive name.
func resolveProject(store *project.Store, ref string) (project.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return project.Project{}, errProjectArg
	}
	summaries, err := store.List()
	if err != nil {
		return project.Project{}, err
	}
	var matches []project.Summary
	for _, s := range summaries {
		if s.ID == ref {
			return store.Load(s.ID)
		}
		if strings.EqualFold(s.Name, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return project.Project{}, fmt.Errorf("no manuscript named %q", ref)
	case 1:
		return store.Load(matches[0].ID)
	}
	return project.Project{}, fmt.Errorf("%d manuscripts are named %q, use the id", len(matches), ref)
}
