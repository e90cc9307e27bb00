package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/csheth/manuscripts/internal/config"
	"github.com/csheth/manuscripts/internal/export"
	"github.com/csheth/manuscripts/internal/logging"
	"github.com/csheth/manuscripts/internal/project"
	"github.com/csheth/manuscripts/internal/tui"
)

// loadConfig applies the config file and then the command-line overrides.
func loadConfig(cmd *cli.Command) (*config.App, error) {
	cfg := config.NewDefaultApp()
	if err := config.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if data := cmd.String("data"); data != "" && data != cfg.DataDir {
		if cfg.RefsDir == filepath.Join(cfg.DataDir, "refs") {
			cfg.RefsDir = ""
		}
		cfg.DataDir = data
	}
	if cmd.IsSet("wrap") {
		cfg.WrapWidth = int(cmd.Int("wrap"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

type app struct {
	cfg      *config.App
	logger   *slog.Logger
	store    *project.Store
	pipeline *export.Pipeline
	close    func()
}

// openApp loads configuration and opens the log, store and export
// pipeline every command shares.
func openApp(cmd *cli.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.OpenFile(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	store, err := project.NewStore(cfg.DataDir, logger)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	pipeline := export.NewPipeline(store.ExportsDir(), cfg.RefsDir, logger)
	pipeline.Timeout = cfg.ExportTimeout
	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		pipeline: pipeline,
		close:    func() { _ = closer.Close() },
	}, nil
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	a.logger.Info("starting", slog.String("data_dir", a.cfg.DataDir), slog.String("refs_dir", a.cfg.RefsDir))

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !cmd.Bool("no-alt-screen") {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Store:            a.store,
			Pipeline:         a.pipeline,
			AutosaveInterval: a.cfg.AutosaveInterval,
			WrapWidth:        a.cfg.WrapWidth,
			Watch:            true,
			Student:          cmd.String("student"),
			Logger:           a.logger,
		}),
		opts...,
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "manuscripts",
		Usage:  "Write markdown essays with Chicago citations and export them to Word or PDF",
		Action: runTUI,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: config.DefaultAppFile(),
				Value:       config.DefaultAppFile(),
				Sources:     cli.EnvVars("MANUSCRIPTS_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Directory holding projects, exports and refs",
				Sources: cli.EnvVars("MANUSCRIPTS_DATA"),
			},
			&cli.StringFlag{
				Name:    "student",
				Usage:   "Name prefilled when submitting to a teacher",
				Sources: cli.EnvVars("MANUSCRIPTS_STUDENT"),
			},
			&cli.IntFlag{
				Name:  "wrap",
				Usage: "Wrap the editor at this many columns (0 follows the window)",
			},
			&cli.BoolFlag{
				Name:  "no-alt-screen",
				Usage: "Disable the alternate screen buffer",
			},
		},
		Commands: []*cli.Command{
			listCommand(),
			newCommand(),
			exportCommand(),
			importBibCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
