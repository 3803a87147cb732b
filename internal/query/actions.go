// Package query implements the `query` CLI verb: run one forwarding
// cycle from the terminal and print the mapped rows.
package query

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/flowhttp/forwarder/internal/plugin"
	"github.com/flowhttp/forwarder/models"
	"github.com/flowhttp/forwarder/pkg/db"
)

func QueryAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	settings, err := models.LoadSettings(c.String("settings"))
	if err != nil {
		logger.Error("failed to load settings", "error", err)
		os.Exit(2)
	}

	terms := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(terms) == "" {
		fmt.Fprintln(os.Stderr, "Error: No query provided")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  hqf query "search terms"`)
		fmt.Fprintln(os.Stderr, `  hqf query --format yaml "search terms"`)
		os.Exit(1)
	}

	opts := []plugin.Option{}
	if settings.History && !c.Bool("no-history") {
		database, err := db.Open()
		if err != nil {
			logger.Warn("history database unavailable", "error", err)
		} else {
			defer database.Close()
			opts = append(opts, plugin.WithHistory(database))
		}
	}

	p := plugin.New(settings, logger, os.Stdout, opts...)
	results := p.Query(terms)

	var outputData []byte
	var marshalErr error
	if strings.ToLower(c.String("format")) == "yaml" {
		outputData, marshalErr = yaml.Marshal(results)
	} else {
		outputData, marshalErr = json.MarshalIndent(results, "", "  ")
	}
	if marshalErr != nil {
		logger.Error("failed to marshal results", "error", marshalErr)
		os.Exit(2)
	}
	fmt.Println(string(outputData))

	return nil
}
