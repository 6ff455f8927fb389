package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/lint"
	pkgconfig "github.com/greg4fun/kubernetesrecipes.github.io-sub001/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// Defaults only; environment-driven config stays possible
		// through godotenv + a config file with ${VAR} expansion.
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runLint(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	err = internal.RunLint(ctx, cfg, os.Stdout, cmd.Bool("json"), cmd.Args().Slice())
	if errors.Is(err, lint.ErrFindings) {
		return cli.Exit("", 1)
	}
	return err
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, cfg)
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "kuberecipes",
		Usage:  "Kubernetes recipe catalog with Markdown storage, full-text search, and content linting",
		Action: runServe,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server and file watcher",
				Action: runServe,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:      "lint",
				Usage:     "Lint the recipe corpus (or the named recipes) and exit non-zero on errors",
				ArgsUsage: "[slug ...]",
				Action:    runLint,
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit the lint report as JSON",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the catalog over the Model Context Protocol on stdio",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
