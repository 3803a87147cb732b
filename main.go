package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/flowhttp/forwarder/internal/history"
	"github.com/flowhttp/forwarder/internal/plugin"
	"github.com/flowhttp/forwarder/internal/query"
	"github.com/flowhttp/forwarder/models"
	"github.com/flowhttp/forwarder/pkg/db"
	"github.com/flowhttp/forwarder/pkg/help"
)

func main() {
	// The launcher host invokes the binary with a single JSON-RPC
	// argument; everything else goes through the CLI.
	if len(os.Args) == 2 && plugin.LooksLikeRequest(os.Args[1]) {
		runPlugin(os.Args[1])
		return
	}

	app := &cli.App{
		Name:  "hqf",
		Usage: "Forward launcher queries to an HTTP endpoint and map the JSON response to result rows",
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Run one forwarding cycle from the terminal",
				ArgsUsage: "<search terms>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "settings",
						Usage: "Path to the settings YAML file",
						Value: defaultSettingsPath(),
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: json or yaml",
						Value: "json",
					},
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Skip recording this query",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Only log errors",
					},
				},
				Action: query.QueryAction,
			},
			{
				Name:  "history",
				Usage: "Show recent queries",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of queries to show",
						Value: 20,
					},
				},
				Action: history.ListAction,
				Subcommands: []*cli.Command{
					{
						Name:   "clear",
						Usage:  "Delete all recorded queries",
						Action: history.ClearAction,
					},
				},
			},
			{
				Name:  "quickstart",
				Usage: "Print the quick start reference",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runPlugin services one host RPC call. Whatever goes wrong, the host
// gets a well-formed response and a zero exit.
func runPlugin(arg string) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	req, err := plugin.ParseRequest(arg)
	if err != nil {
		logger.Error("bad RPC request", "error", err)
		_ = plugin.WriteResults(os.Stdout, []models.Result{{
			Title:    "Error: Plugin Error",
			SubTitle: "Malformed request from host",
			IcoPath:  models.DefaultIcon,
		}})
		return
	}

	settings, err := models.LoadSettings(defaultSettingsPath())
	if err != nil {
		logger.Warn("settings file unusable, using defaults", "error", err)
	}
	settings.ApplyMap(req.Settings)

	opts := []plugin.Option{
		plugin.WithCacheDir(filepath.Join(baseDir(), "cache")),
	}
	if settings.History && req.Method == "query" {
		database, err := db.Open()
		if err != nil {
			logger.Warn("history database unavailable", "error", err)
		} else {
			defer database.Close()
			opts = append(opts, plugin.WithHistory(database))
		}
	}

	p := plugin.New(settings, logger, os.Stdout, opts...)
	if err := p.Handle(req); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}

// baseDir is where the plugin keeps its files: next to the binary,
// which is how the launcher deploys plugins.
func baseDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(execPath)
}

func defaultSettingsPath() string {
	return filepath.Join(baseDir(), "settings.yaml")
}
