package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/walkerscm/cosmosctl/internal/connstr"
)

var errNotEquivalent = errors.New("rebuilt connection string is not equivalent")

var checkCmd = &cobra.Command{
	Use:   "check <connection-string>",
	Short: "Parse and rebuild a connection string and compare the two",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

type checkResult struct {
	Original    string   `json:"original" yaml:"original"`
	Rebuilt     string   `json:"rebuilt,omitempty" yaml:"rebuilt,omitempty"`
	Equivalent  bool     `json:"equivalent" yaml:"equivalent"`
	Augmented   bool     `json:"augmented" yaml:"augmented"`
	Managed     bool     `json:"managed" yaml:"managed"`
	Differences []string `json:"differences,omitempty" yaml:"differences,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	original := args[0]
	opts, err := connstr.Parse(original)
	if err != nil {
		return err
	}

	res := checkResult{Original: original, Managed: connstr.IsManagedHost(opts.Server)}
	rebuilt, ok := connstr.Build(opts)
	if !ok {
		return fmt.Errorf("cannot rebuild %s connections", opts.AuthenticationType)
	}
	res.Rebuilt = rebuilt

	diffs, err := connstr.Diff(original, rebuilt)
	if err != nil {
		return err
	}
	for _, d := range diffs {
		res.Differences = append(res.Differences, d.String())
	}
	res.Equivalent = len(diffs) == 0
	res.Augmented = res.Managed && connstr.OnlyAugmented(diffs)

	err = render(cmd.OutOrStdout(), outputFormat(), res, func(w io.Writer) error {
		fmt.Fprintf(w, "Original: %s\n", res.Original)
		fmt.Fprintf(w, "Rebuilt:  %s\n", res.Rebuilt)
		if res.Equivalent {
			color.New(color.FgGreen, color.Bold).Fprintln(w, "PASS")
			return nil
		}
		for _, d := range res.Differences {
			fmt.Fprintf(w, "  - %s\n", d)
		}
		if res.Augmented {
			color.New(color.FgYellow, color.Bold).Fprintln(w, "AUGMENTED")
			fmt.Fprintln(w, "Cosmos DB accounts gain ssl, replicaSet, retrywrites, maxIdleTimeMS and appName on build.")
			return nil
		}
		color.New(color.FgRed, color.Bold).Fprintln(w, "FAIL")
		return nil
	})
	if err != nil {
		return err
	}
	if !res.Equivalent && !res.Augmented {
		return errNotEquivalent
	}
	return nil
}
