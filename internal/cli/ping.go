package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/walkerscm/cosmosctl/internal/config"
	"github.com/walkerscm/cosmosctl/internal/connstr"
	"github.com/walkerscm/cosmosctl/internal/database"
	"github.com/walkerscm/cosmosctl/internal/logger"
	"go.mongodb.org/mongo-driver/mongo"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Connect to the configured server and ping it",
	RunE:  runPing,
}

func init() {
	pingCmd.Flags().String("env", ".env", "path to .env file")
	rootCmd.AddCommand(pingCmd)
}

type pingResult struct {
	Server  string        `json:"server" yaml:"server"`
	Managed bool          `json:"managed" yaml:"managed"`
	Latency time.Duration `json:"latencyNs" yaml:"latencyNs"`
}

func runPing(cmd *cobra.Command, args []string) error {
	envPath, _ := cmd.Flags().GetString("env")

	client, conn, elapsed, err := connect(cmd.Context(), envPath)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background()) //nolint:errcheck

	res := pingResult{
		Server:  conn.Options.Server,
		Managed: connstr.IsManagedHost(conn.Options.Server),
		Latency: elapsed,
	}
	return render(cmd.OutOrStdout(), outputFormat(), res, func(w io.Writer) error {
		color.New(color.FgGreen).Fprint(w, "OK ")
		_, err := fmt.Fprintf(w, "%s (%s)\n", res.Server, res.Latency.Round(time.Millisecond))
		return err
	})
}

// connect loads the connection settings from envPath and opens a verified
// client. It returns how long connecting took.
func connect(ctx context.Context, envPath string) (*mongo.Client, *config.ConnectionConfig, time.Duration, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := config.LoadConnectionConfig(envPath)
	if err != nil {
		return nil, nil, 0, err
	}
	uri, err := conn.URI()
	if err != nil {
		return nil, nil, 0, err
	}

	logger.Info("connecting", "server", conn.Options.Server, "auth", string(conn.Options.AuthenticationType))
	start := time.Now()
	client, err := database.NewConnection(ctx, uri, commandTimeout())
	if err != nil {
		return nil, nil, 0, err
	}
	elapsed := time.Since(start)
	logger.Debug("connected", "server", conn.Options.Server, "elapsed", elapsed)
	return client, conn, elapsed, nil
}

func commandTimeout() time.Duration {
	if cfg == nil || cfg.Timeout <= 0 {
		return 15 * time.Second
	}
	return cfg.Timeout
}
