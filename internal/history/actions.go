// Package history implements the `history` CLI verbs for the query
// log kept in SQLite.
package history

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/urfave/cli/v2"

	"github.com/flowhttp/forwarder/pkg/db"
)

func ListAction(c *cli.Context) error {
	database, err := db.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	records, err := database.ListQueries(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list queries: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No queries recorded")
		return nil
	}

	// Print table header
	fmt.Printf("%-6s %-20s %-25s %-14s %-8s %-8s\n",
		"ID", "Created", "Query", "Status", "Results", "ms")
	fmt.Println(strings.Repeat("-", 90))

	for _, r := range records {
		fmt.Printf("%-6d %-20s %-25s %-14s %-8d %-8d\n",
			r.QueryID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			clip(r.QueryText, 25),
			r.Status,
			r.ResultCount,
			r.DurationMS,
		)
	}

	total, err := database.CountQueries()
	if err == nil {
		fmt.Printf("\nTotal: %d queries\n", total)
	}
	fmt.Printf("\nTip: Use 'hqf history clear' to wipe the log\n")

	return nil
}

func ClearAction(c *cli.Context) error {
	database, err := db.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	deleted, err := database.ClearQueries()
	if err != nil {
		return fmt.Errorf("failed to clear queries: %w", err)
	}

	fmt.Printf("Deleted %d queries\n", deleted)
	return nil
}

// clip shortens query text for the table without cutting a rune in
// half.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
