package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/walkerscm/cosmosctl/internal/arm"
	"github.com/walkerscm/cosmosctl/internal/config"
	"github.com/walkerscm/cosmosctl/internal/throughput"
)

var throughputCmd = &cobra.Command{
	Use:   "throughput",
	Short: "Switch a database or collection between autoscale and manual throughput",
	Long: `Read the current throughput of a database (or collection with --collection)
through Azure Resource Manager and move it to autoscale or to a fixed number
of RU/s. With --list, report the throughput of every database and collection
(or of one database with --database) instead. AZURE_ACCESS_TOKEN and the account (AZURE_RESOURCE_ID, or
AZURE_SUBSCRIPTION_ID and COSMOS_ACCOUNT_NAME) are read from the environment
or the .env file.`,
	RunE: runThroughput,
}

func init() {
	throughputCmd.Flags().String("env", ".env", "path to .env file")
	throughputCmd.Flags().String("database", "", "database name")
	throughputCmd.Flags().String("collection", "", "collection name (default: database-level throughput)")
	throughputCmd.Flags().String("mode", "", "autoscale or manual (prompted when omitted)")
	throughputCmd.Flags().Int("ru", throughput.DefaultCollectionRU, "RU/s for manual mode")
	throughputCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	throughputCmd.Flags().Bool("list", false, "report current throughput instead of changing it")
	rootCmd.AddCommand(throughputCmd)
}

type throughputResult struct {
	Account string             `json:"account" yaml:"account"`
	Target  string             `json:"target" yaml:"target"`
	Action  string             `json:"action" yaml:"action"`
	Setting throughput.Setting `json:"setting" yaml:"setting"`
}

func runThroughput(cmd *cobra.Command, args []string) error {
	envPath, _ := cmd.Flags().GetString("env")
	db, _ := cmd.Flags().GetString("database")
	coll, _ := cmd.Flags().GetString("collection")
	modeRaw, _ := cmd.Flags().GetString("mode")
	ru, _ := cmd.Flags().GetInt("ru")
	yes, _ := cmd.Flags().GetBool("yes")
	list, _ := cmd.Flags().GetBool("list")

	if list {
		return runThroughputList(cmd, envPath, db)
	}
	if db == "" {
		return errors.New(`required flag "database" not set`)
	}

	change, err := changeFromFlags(modeRaw, ru)
	if err != nil {
		return err
	}
	target := throughput.Target{Database: db, Collection: coll}

	armCfg, err := config.LoadARMConfig(envPath)
	if err != nil {
		return err
	}

	ctx, cancel := armContext(cmd)
	defer cancel()

	svc, err := arm.NewMongoService(ctx, armCfg.Capabilities(), armCfg.Account)
	if err != nil {
		return err
	}

	if !yes {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Set %s on %s to %s", target, svc.Account().AccountName, describeChange(change)),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
			return nil
		}
	}

	action, setting, err := throughput.Apply(ctx, svc, target, change)
	if errors.Is(err, throughput.ErrAlreadySet) {
		color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "%s: %v\n", target, err)
		return nil
	}
	if err != nil {
		return err
	}

	res := throughputResult{
		Account: svc.Account().String(),
		Target:  target.String(),
		Action:  action.String(),
		Setting: setting,
	}
	return render(cmd.OutOrStdout(), outputFormat(), res, func(w io.Writer) error {
		color.New(color.FgGreen).Fprintf(w, "%s: ", res.Action)
		_, err := fmt.Fprintf(w, "%s is now %s\n", res.Target, res.Setting)
		return err
	})
}

func armContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, commandTimeout())
}

func runThroughputList(cmd *cobra.Command, envPath, db string) error {
	armCfg, err := config.LoadARMConfig(envPath)
	if err != nil {
		return err
	}

	ctx, cancel := armContext(cmd)
	defer cancel()

	svc, err := arm.NewMongoService(ctx, armCfg.Capabilities(), armCfg.Account)
	if err != nil {
		return err
	}

	entries, err := throughput.Report(ctx, svc, svc, db)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), outputFormat(), entries, func(w io.Writer) error {
		return writeThroughputTable(w, entries)
	})
}

// writeThroughputTable prints one line per entry, collections indented under
// their database.
func writeThroughputTable(w io.Writer, entries []throughput.Entry) error {
	maxLen := 0
	for _, e := range entries {
		n := len(e.Database)
		if e.Collection != "" {
			n = len(e.Collection) + 2
		}
		maxLen = max(maxLen, n)
	}
	shared := color.New(color.Faint)
	for _, e := range entries {
		name := e.Database
		if e.Collection != "" {
			name = "  " + e.Collection
		}
		if _, err := fmt.Fprintf(w, "%-*s  ", maxLen, name); err != nil {
			return err
		}
		if !e.Dedicated {
			if _, err := shared.Fprintln(w, "shared"); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, e.Setting); err != nil {
			return err
		}
	}
	return nil
}

// changeFromFlags turns --mode and --ru into a Change, prompting for the
// mode when it was not given.
func changeFromFlags(modeRaw string, ru int) (throughput.Change, error) {
	var mode throughput.Mode
	var err error
	if modeRaw != "" {
		mode, err = throughput.ParseMode(modeRaw)
	} else {
		mode, err = promptMode()
	}
	if err != nil {
		return throughput.Change{}, err
	}

	switch mode {
	case throughput.Autoscale:
		return throughput.Change{Mode: mode}, nil
	case throughput.Manual:
		if ru <= 0 {
			return throughput.Change{}, fmt.Errorf("--ru must be positive, got %d", ru)
		}
		return throughput.Change{Mode: mode, RU: ru}, nil
	}
	return throughput.Change{}, fmt.Errorf("unsupported mode %v", mode)
}

func promptMode() (throughput.Mode, error) {
	modes := []throughput.Mode{throughput.Autoscale, throughput.Manual}
	p := promptui.Select{
		Label: "Throughput mode",
		Items: modes,
	}
	idx, _, err := p.Run()
	if err != nil {
		return 0, fmt.Errorf("mode selection: %w", err)
	}
	return modes[idx], nil
}

func describeChange(c throughput.Change) string {
	if c.Mode == throughput.Manual {
		return "manual " + strconv.Itoa(c.RU) + " RU/s"
	}
	return c.Mode.String()
}
