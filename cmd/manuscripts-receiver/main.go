package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/csheth/manuscripts/internal/config"
	"github.com/csheth/manuscripts/internal/logging"
	"github.com/csheth/manuscripts/internal/receiver"
)

func loadConfig(cmd *cli.Command) (*config.Receiver, error) {
	cfg := config.NewDefaultReceiver()
	if err := config.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.IsSet("teacher") {
		cfg.Teacher = cmd.String("teacher")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("password") {
		cfg.Password = cmd.String("password")
	}
	if cmd.IsSet("save-dir") {
		cfg.SaveDir = cmd.String("save-dir")
	}
	if cmd.Bool("no-mdns") {
		cfg.MDNS = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return receiver.Run(ctx, cfg, logging.New(os.Stderr, cfg.LogLevel))
}

func main() {
	cmd := &cli.Command{
		Name:   "manuscripts-receiver",
		Usage:  "Collect student submissions over the local network",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.DefaultReceiverFile(),
				Sources: cli.EnvVars("MANUSCRIPTS_RECEIVER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "teacher",
				Aliases: []string{"t"},
				Usage:   "Name students see when choosing where to submit",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "HTTP port",
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Password students must send with a submission",
				Sources: cli.EnvVars("MANUSCRIPTS_RECEIVER_PASSWORD"),
			},
			&cli.StringFlag{
				Name:  "save-dir",
				Usage: "Directory submissions are written to",
			},
			&cli.BoolFlag{
				Name:  "no-mdns",
				Usage: "Do not advertise on the local network",
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
