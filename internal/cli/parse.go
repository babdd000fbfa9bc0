package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/walkerscm/cosmosctl/internal/connstr"
	"github.com/walkerscm/cosmosctl/internal/logger"
)

var parseCmd = &cobra.Command{
	Use:   "parse <connection-string>",
	Short: "Show the fields of a connection string",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().Bool("show-password", false, "print the password instead of ****")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	showPassword, _ := cmd.Flags().GetBool("show-password")

	opts, err := connstr.Parse(args[0])
	if err != nil {
		return err
	}
	logger.Debug("parsed connection string", "options", opts.Redacted())

	shown := opts
	if !showPassword {
		shown = opts.Redacted()
	}

	return render(cmd.OutOrStdout(), outputFormat(), shown, func(w io.Writer) error {
		return writeOptions(w, shown)
	})
}

func writeOptions(w io.Writer, o connstr.Options) error {
	rows := [][2]string{
		{"Server", o.Server},
		{"Hosts", fmt.Sprint(len(o.Hosts()))},
		{"User", o.User},
		{"Password", o.Password},
		{"Authentication", string(o.AuthenticationType)},
		{"Pathname", o.Pathname},
		{"Database", o.Database()},
		{"Search", o.Search},
		{"SRV", fmt.Sprint(o.IsServer)},
		{"Managed", fmt.Sprint(connstr.IsManagedHost(o.Server))},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-15s %s\n", r[0]+":", r[1]); err != nil {
			return err
		}
	}
	if hosts := o.Hosts(); len(hosts) > 1 {
		fmt.Fprintf(w, "\n%s\n", "  - "+strings.Join(hosts, "\n  - "))
	}
	return nil
}
