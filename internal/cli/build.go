package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/walkerscm/cosmosctl/internal/connstr"
	"github.com/walkerscm/cosmosctl/internal/logger"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a connection string from its fields",
	Long: `Build a connection string from --server and the other field flags, or
interactively with --interactive. Accounts under cosmos.azure.com get the
parameters Cosmos DB requires (ssl, replicaSet, retrywrites, maxIdleTimeMS, appName).`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("server", "", "comma separated host[:port] list")
	buildCmd.Flags().String("user", "", "user name")
	buildCmd.Flags().String("password", "", "password")
	buildCmd.Flags().String("auth-type", "", "Integrated, SqlLogin or AzureMFA (default: SqlLogin when --user is set)")
	buildCmd.Flags().String("path", "", "path, usually /<database>")
	buildCmd.Flags().String("search", "", "query string, e.g. ?authSource=admin")
	buildCmd.Flags().Bool("srv", false, "use the mongodb+srv scheme")
	buildCmd.Flags().BoolP("interactive", "i", false, "prompt for every field")
	rootCmd.AddCommand(buildCmd)
}

type buildResult struct {
	ConnectionString string `json:"connectionString,omitempty" yaml:"connectionString,omitempty"`
	Managed          bool   `json:"managed" yaml:"managed"`
	Note             string `json:"note,omitempty" yaml:"note,omitempty"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	interactive, _ := cmd.Flags().GetBool("interactive")

	var opts connstr.Options
	var err error
	if interactive {
		opts, err = promptOptions()
	} else {
		opts, err = optionsFromFlags(cmd)
	}
	if err != nil {
		return err
	}
	logger.Debug("building connection string", "options", opts.Redacted())

	res := buildResult{Managed: connstr.IsManagedHost(opts.Server)}
	cs, ok := connstr.Build(opts)
	if ok {
		res.ConnectionString = cs
	} else {
		res.Note = fmt.Sprintf("%s connections have no connection string; credentials are acquired as tokens", opts.AuthenticationType)
	}

	return render(cmd.OutOrStdout(), outputFormat(), res, func(w io.Writer) error {
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Note)
			return nil
		}
		_, err := fmt.Fprintln(w, cs)
		return err
	})
}

func optionsFromFlags(cmd *cobra.Command) (connstr.Options, error) {
	f := cmd.Flags()
	server, _ := f.GetString("server")
	user, _ := f.GetString("user")
	password, _ := f.GetString("password")
	authRaw, _ := f.GetString("auth-type")
	path, _ := f.GetString("path")
	search, _ := f.GetString("search")
	srv, _ := f.GetBool("srv")

	if server == "" {
		return connstr.Options{}, errors.New("--server is required (or use --interactive)")
	}

	authType := connstr.Integrated
	if user != "" {
		authType = connstr.SQLLogin
	}
	if f.Changed("auth-type") {
		var err error
		if authType, err = connstr.ParseAuthType(authRaw); err != nil {
			return connstr.Options{}, err
		}
	}

	return connstr.Options{
		Server:             server,
		User:               user,
		Password:           password,
		AuthenticationType: authType,
		Pathname:           path,
		Search:             search,
		IsServer:           srv,
	}, nil
}

func promptOptions() (connstr.Options, error) {
	var opts connstr.Options

	serverPrompt := promptui.Prompt{
		Label: "Server (host[:port],...)",
		Validate: func(s string) error {
			if s == "" {
				return errors.New("server is required")
			}
			return nil
		},
	}
	server, err := serverPrompt.Run()
	if err != nil {
		return opts, fmt.Errorf("server: %w", err)
	}
	opts.Server = server

	authTypes := []connstr.AuthType{connstr.SQLLogin, connstr.Integrated, connstr.AzureMFA}
	authPrompt := promptui.Select{
		Label: "Authentication type",
		Items: authTypes,
	}
	idx, _, err := authPrompt.Run()
	if err != nil {
		return opts, fmt.Errorf("authentication type: %w", err)
	}
	opts.AuthenticationType = authTypes[idx]

	if opts.AuthenticationType == connstr.SQLLogin {
		userPrompt := promptui.Prompt{Label: "User"}
		if opts.User, err = userPrompt.Run(); err != nil {
			return opts, fmt.Errorf("user: %w", err)
		}
		passwordPrompt := promptui.Prompt{Label: "Password", Mask: '*'}
		if opts.Password, err = passwordPrompt.Run(); err != nil {
			return opts, fmt.Errorf("password: %w", err)
		}
	}

	pathPrompt := promptui.Prompt{Label: "Database path", Default: "/"}
	if opts.Pathname, err = pathPrompt.Run(); err != nil {
		return opts, fmt.Errorf("path: %w", err)
	}

	searchPrompt := promptui.Prompt{Label: "Query string", AllowEdit: true}
	if opts.Search, err = searchPrompt.Run(); err != nil {
		return opts, fmt.Errorf("query: %w", err)
	}

	srvPrompt := promptui.Prompt{Label: "Use DNS seedlist (mongodb+srv)", IsConfirm: true}
	if _, err := srvPrompt.Run(); err == nil {
		opts.IsServer = true
	} else if !errors.Is(err, promptui.ErrAbort) {
		return opts, fmt.Errorf("srv: %w", err)
	}

	return opts, nil
}
