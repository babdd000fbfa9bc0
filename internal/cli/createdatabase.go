package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/walkerscm/cosmosctl/internal/arm"
	"github.com/walkerscm/cosmosctl/internal/config"
	"github.com/walkerscm/cosmosctl/internal/throughput"
)

var createDatabaseCmd = &cobra.Command{
	Use:   "create-database",
	Short: "Create a database, or a collection with --collection",
	Long: `Create a MongoDB database through Azure Resource Manager. With --ru the
database gets shared throughput. With --collection a collection is created
instead, with a dedicated 400 RU/s unless --ru says otherwise; --ru 0 leaves it
on the database's shared throughput. --autoscale makes --ru the autoscale
maximum.`,
	RunE: runCreateDatabase,
}

func init() {
	createDatabaseCmd.Flags().String("env", ".env", "path to .env file")
	createDatabaseCmd.Flags().String("database", "", "database name")
	createDatabaseCmd.Flags().String("collection", "", "collection to create in the database")
	createDatabaseCmd.Flags().String("shard-key", "", "hashed shard key of the new collection")
	createDatabaseCmd.Flags().Int("ru", 0, "RU/s to provision (default: none for databases, 400 for collections)")
	createDatabaseCmd.Flags().Bool("autoscale", false, "provision autoscale throughput with --ru as the maximum")
	createDatabaseCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	_ = createDatabaseCmd.MarkFlagRequired("database")
	rootCmd.AddCommand(createDatabaseCmd)
}

type createResult struct {
	Account    string `json:"account" yaml:"account"`
	ID         string `json:"id" yaml:"id"`
	Database   string `json:"database" yaml:"database"`
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
	Throughput string `json:"throughput" yaml:"throughput"`
}

func runCreateDatabase(cmd *cobra.Command, args []string) error {
	envPath, _ := cmd.Flags().GetString("env")
	db, _ := cmd.Flags().GetString("database")
	coll, _ := cmd.Flags().GetString("collection")
	shardKey, _ := cmd.Flags().GetString("shard-key")
	autoscale, _ := cmd.Flags().GetBool("autoscale")
	yes, _ := cmd.Flags().GetBool("yes")

	var ru *int
	if cmd.Flags().Changed("ru") {
		v, _ := cmd.Flags().GetInt("ru")
		ru = &v
	}
	p, err := provisioningFromFlags(coll != "", ru, autoscale)
	if err != nil {
		return err
	}
	if shardKey != "" && coll == "" {
		return errors.New("--shard-key needs --collection")
	}

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

	target := throughput.Target{Database: db, Collection: coll}
	if !yes {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Create %s on %s with %s", target, svc.Account().AccountName, p),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
			return nil
		}
	}

	var id string
	if coll == "" {
		id, err = svc.CreateDatabase(ctx, db, p)
	} else {
		id, err = svc.CreateCollection(ctx, db, coll, shardKey, p)
	}
	if err != nil {
		return err
	}

	res := createResult{
		Account:    svc.Account().String(),
		ID:         id,
		Database:   db,
		Collection: coll,
		Throughput: p.String(),
	}
	return render(cmd.OutOrStdout(), outputFormat(), res, func(w io.Writer) error {
		color.New(color.FgGreen).Fprint(w, "created: ")
		_, err := fmt.Fprintf(w, "%s with %s\n", target, res.Throughput)
		return err
	})
}

// provisioningFromFlags picks the throughput of a new database or collection.
// ru is nil when --ru was not given.
func provisioningFromFlags(collection bool, ru *int, autoscale bool) (throughput.Provisioning, error) {
	n := 0
	switch {
	case ru != nil:
		n = *ru
	case collection:
		n = throughput.DefaultCollectionRU
	}

	if n == 0 {
		if autoscale {
			return throughput.Provisioning{}, errors.New("--autoscale needs a positive --ru")
		}
		return throughput.Provisioning{}, nil
	}

	p := throughput.Provisioning{Mode: throughput.Manual, RU: n}
	if autoscale {
		p.Mode = throughput.Autoscale
	}
	return p, p.Validate()
}
