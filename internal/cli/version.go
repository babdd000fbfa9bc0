package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type versionInfo struct {
	Version  string `json:"version" yaml:"version"`
	Commit   string `json:"commit" yaml:"commit"`
	Built    string `json:"built" yaml:"built"`
	Go       string `json:"go" yaml:"go"`
	Platform string `json:"platform" yaml:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the cosmosctl build and Go toolchain",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Version:  Version,
			Commit:   CommitSHA,
			Built:    BuildDate,
			Go:       runtime.Version(),
			Platform: runtime.GOOS + "/" + runtime.GOARCH,
		}
		return render(cmd.OutOrStdout(), outputFormat(), info, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "cosmosctl %s (commit: %s, built: %s, %s %s)\n",
				info.Version, info.Commit, info.Built, info.Go, info.Platform)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
