package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/walkerscm/cosmosctl/internal/csvutil"
	"github.com/walkerscm/cosmosctl/internal/logger"
	"github.com/walkerscm/cosmosctl/internal/worker"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Round-trip every connection string in an inventory CSV",
	Long: `Read a CSV with "name" and "connection_string" columns, parse and rebuild
every entry with concurrent workers, and write the results with an
equivalence verdict per row.`,
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().String("file", "", "path to inventory CSV (skips interactive selection)")
	normalizeCmd.Flags().String("out", "", "output CSV (default: <file>-normalized.csv)")
	normalizeCmd.Flags().Int("batch-size", 500, "rows per batch")
	normalizeCmd.Flags().Int("workers", 4, "parallel worker count")
	rootCmd.AddCommand(normalizeCmd)
}

// normalizeSummary counts the outcome of a normalize run.
type normalizeSummary struct {
	Rows       int `json:"rows" yaml:"rows"`
	Equivalent int `json:"equivalent" yaml:"equivalent"`
	Augmented  int `json:"augmented" yaml:"augmented"`
	Failed     int `json:"failed" yaml:"failed"`
}

func runNormalize(cmd *cobra.Command, args []string) error {
	filePath, _ := cmd.Flags().GetString("file")
	outPath, _ := cmd.Flags().GetString("out")
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	workers := 4
	if cfg != nil {
		workers = cfg.Workers
	}

	var selectedCSV string
	if filePath != "" {
		if _, err := os.Stat(filePath); err != nil {
			return fmt.Errorf("csv file not found: %s", filePath)
		}
		selectedCSV = filePath
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting cwd: %w", err)
		}

		csvFiles, err := csvutil.ScanInventories(cwd)
		if err != nil {
			return err
		}
		if len(csvFiles) == 0 {
			return fmt.Errorf("no inventory CSVs in %s", cwd)
		}

		names := make([]string, len(csvFiles))
		for i, f := range csvFiles {
			names[i] = filepath.Base(f)
		}

		csvPrompt := promptui.Select{
			Label: "Select inventory CSV",
			Items: names,
			Size:  15,
		}
		csvIdx, _, err := csvPrompt.Run()
		if err != nil {
			return fmt.Errorf("csv selection: %w", err)
		}
		selectedCSV = csvFiles[csvIdx]
	}

	if outPath == "" {
		outPath = strings.TrimSuffix(selectedCSV, filepath.Ext(selectedCSV)) + csvutil.NormalizedSuffix
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	summary, err := normalizeFile(cmd.Context(), selectedCSV, out, batchSize, workers, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger.Info("normalized inventory", "file", selectedCSV, "out", outPath,
		"rows", summary.Rows, "failed", summary.Failed)

	return render(cmd.OutOrStdout(), outputFormat(), summary, func(w io.Writer) error {
		fmt.Fprintf(w, "\n--- Normalize Summary ---\n")
		fmt.Fprintf(w, "File:       %s\n", filepath.Base(selectedCSV))
		fmt.Fprintf(w, "Output:     %s\n", outPath)
		fmt.Fprintf(w, "Rows:       %d\n", summary.Rows)
		fmt.Fprintf(w, "Equivalent: %d\n", summary.Equivalent)
		fmt.Fprintf(w, "Augmented:  %d\n", summary.Augmented)
		fmt.Fprintf(w, "Failed:     %d\n", summary.Failed)
		return nil
	})
}

// normalizeFile reads the inventory at csvPath, runs it through the worker
// pool and writes the results to out in input order. Progress goes to progress.
func normalizeFile(ctx context.Context, csvPath string, out io.Writer, batchSize, workers int, progress io.Writer) (normalizeSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if batchSize < 1 {
		batchSize = 1
	}

	reader, err := csvutil.NewReader(csvPath)
	if err != nil {
		return normalizeSummary{}, fmt.Errorf("opening CSV: %w", err)
	}
	defer reader.Close()

	var cols worker.Columns
	if cols.Name, err = reader.Column("name"); err != nil {
		return normalizeSummary{}, err
	}
	if cols.ConnectionString, err = reader.Column("connection_string"); err != nil {
		return normalizeSummary{}, err
	}

	pool := worker.NewPool(cols, workers)
	pool.Start(ctx)

	bar := progressbar.NewOptions(countCSVRows(csvPath),
		progressbar.OptionSetDescription("Normalizing"),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(progress) }),
	)

	readErr := make(chan error, 1)
	go func() {
		defer pool.Done()
		batchNum := 0
		for {
			rows, err := reader.ReadBatch(batchSize)
			if len(rows) > 0 {
				pool.Submit(worker.Job{BatchNum: batchNum, Rows: rows})
				batchNum++
			}
			if err == io.EOF {
				readErr <- nil
				return
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	batches := make(map[int][]worker.NormalizedRow)
	var firstErr error
	for result := range pool.Results() {
		if result.Err != nil && firstErr == nil {
			firstErr = result.Err
		}
		batches[result.BatchNum] = result.Rows
		bar.Add(len(result.Rows)) //nolint:errcheck
	}
	bar.Finish() //nolint:errcheck

	if err := <-readErr; err != nil {
		return normalizeSummary{}, fmt.Errorf("reading %s: %w", csvPath, err)
	}
	if firstErr != nil {
		return normalizeSummary{}, firstErr
	}

	order := make([]int, 0, len(batches))
	for n := range batches {
		order = append(order, n)
	}
	sort.Ints(order)

	w, err := csvutil.NewWriter(out, worker.OutputHeaders)
	if err != nil {
		return normalizeSummary{}, err
	}

	var summary normalizeSummary
	for _, n := range order {
		for _, row := range batches[n] {
			summary.Rows++
			switch {
			case row.Err != "":
				summary.Failed++
				logger.Warn("inventory entry failed", "name", row.Name, "error", row.Err)
			case row.Augmented:
				summary.Augmented++
			case row.Equivalent:
				summary.Equivalent++
			}
			if err := w.Write(row.Record()); err != nil {
				return summary, err
			}
		}
	}
	return summary, w.Flush()
}

// countCSVRows does a quick line count of the file (minus the header).
func countCSVRows(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	count := 0
	for {
		n, err := f.Read(buf)
		for _, b := range buf[:n] {
			if b == '\n' {
				count++
			}
		}
		if err != nil {
			break
		}
	}
	if count > 0 {
		count--
	}
	return count
}
