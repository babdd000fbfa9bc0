package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/walkerscm/cosmosctl/internal/connstr"
	"github.com/walkerscm/cosmosctl/internal/database"
)

const reportsDir = "reports"

var listDatabasesCmd = &cobra.Command{
	Use:   "list-databases",
	Short: "List all databases on the configured server",
	RunE:  runListDatabases,
}

func init() {
	listDatabasesCmd.Flags().String("env", ".env", "path to .env file")
	listDatabasesCmd.Flags().Bool("counts", false, "include size and collection count for each database")
	listDatabasesCmd.Flags().String("markdown", "", "write output to a markdown file (default: reports/databases-report-<timestamp>.md)")
	listDatabasesCmd.Flags().Bool("md", false, "shorthand: write markdown report to reports/ with auto-generated filename")
	rootCmd.AddCommand(listDatabasesCmd)
}

func runListDatabases(cmd *cobra.Command, args []string) error {
	envPath, _ := cmd.Flags().GetString("env")
	showCounts, _ := cmd.Flags().GetBool("counts")
	mdPath, _ := cmd.Flags().GetString("markdown")
	mdShort, _ := cmd.Flags().GetBool("md")

	// --md is a shorthand that auto-generates a timestamped path in reports/
	if mdShort && mdPath == "" {
		mdPath = filepath.Join(reportsDir,
			fmt.Sprintf("databases-report-%s.md", time.Now().Format("20060102-150405")))
	}

	client, conn, _, err := connect(cmd.Context(), envPath)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background()) //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	server := database.Mongo{Client: client}

	// Always fetch counts when writing markdown
	if mdPath != "" {
		showCounts = true
	}

	if !showCounts {
		names, err := database.ListDatabases(ctx, server)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat(), names, func(w io.Writer) error {
			for _, n := range names {
				fmt.Fprintln(w, n)
			}
			return nil
		})
	}

	results, err := database.ListDatabasesWithCounts(ctx, server)
	if err != nil {
		return err
	}

	err = render(cmd.OutOrStdout(), outputFormat(), results, func(w io.Writer) error {
		return writeDatabaseTable(w, results)
	})
	if err != nil {
		return err
	}

	if mdPath != "" {
		if err := writeMarkdown(mdPath, conn.Options, results); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nMarkdown written to %s\n", mdPath)
	}
	return nil
}

func writeDatabaseTable(w io.Writer, results []database.DatabaseStats) error {
	// Find longest name for alignment
	maxLen := 0
	for _, r := range results {
		if len(r.Name) > maxLen {
			maxLen = len(r.Name)
		}
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%-*s  %4d collections  %s\n",
			maxLen, r.Name, r.CollectionCount, humanize.Bytes(uint64(max(r.SizeOnDisk, 0)))); err != nil {
			return err
		}
	}
	return nil
}

func writeMarkdown(path string, opts connstr.Options, results []database.DatabaseStats) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating markdown file: %w", err)
	}
	defer f.Close()

	return writeMarkdownReport(f, opts, results, time.Now())
}

func writeMarkdownReport(w io.Writer, opts connstr.Options, results []database.DatabaseStats, now time.Time) error {
	var totalSize int64
	totalCollections := 0
	for _, r := range results {
		totalSize += r.SizeOnDisk
		totalCollections += r.CollectionCount
	}

	fmt.Fprintf(w, "# Databases Report\n\n")
	fmt.Fprintf(w, "**Server:** `%s`\n", opts.Server)
	fmt.Fprintf(w, "**Generated:** %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "**Total Databases:** %d\n", len(results))
	fmt.Fprintf(w, "**Total Collections:** %s\n", humanize.Comma(int64(totalCollections)))
	fmt.Fprintf(w, "**Total Size:** %s\n\n", humanize.Bytes(uint64(max(totalSize, 0))))

	fmt.Fprintf(w, "| # | Database | Collections | Size |\n")
	fmt.Fprintf(w, "|---|----------|------------:|-----:|\n")
	for i, r := range results {
		if _, err := fmt.Fprintf(w, "| %d | `%s` | %d | %s |\n",
			i+1, r.Name, r.CollectionCount, humanize.Bytes(uint64(max(r.SizeOnDisk, 0)))); err != nil {
			return err
		}
	}
	return nil
}
