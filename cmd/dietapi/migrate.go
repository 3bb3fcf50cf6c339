package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"nutrition-hq/dietapi/pkg/cli"
	"nutrition-hq/dietapi/pkg/dataengine"
	"nutrition-hq/dietapi/pkg/dataengine/schema"
)

var migrateFlags struct {
	printOnly bool
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the diet catalog tables",
	Long: `Create the food, category, template, day, meal and meal item tables in the
configured database. Statements use IF NOT EXISTS, so running the command
again is harmless.

Examples:
  # Create the tables in a local SQLite file
  DIETAPI_DATABASE_DRIVER=sqlite DIETAPI_DATABASE_PATH=diet.db dietapi migrate

  # Show the DDL for the configured driver without connecting
  dietapi migrate --print`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&migrateFlags.printOnly, "print", false, "print the DDL instead of executing it")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := setupLogging(cfg); err != nil {
		return err
	}

	if migrateFlags.printOnly {
		dialect, err := dataengine.DialectFor(cfg.Database.Driver)
		if err != nil {
			return cli.NewConfigError("database.driver", err.Error())
		}
		fmt.Fprint(cmd.OutOrStdout(), schema.DDL(dialect))
		return nil
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	dbCfg := cfg.Database
	dbCfg.RequireConnection = true
	dbCfg.PoolSize = 1

	e := newEngine(&dbCfg, nil)
	defer e.Close()
	if err := connect(ctx, e, &dbCfg); err != nil {
		return cli.NewCommandError("migrate", err)
	}

	n, err := schema.Apply(ctx, e)
	if err != nil {
		return cli.NewCommandError("migrate", err)
	}

	slog.Info("schema applied", "driver", dbCfg.Driver, "statements", n)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Applied %d schema statements (%s)\n", n, dbCfg.Driver)
	return nil
}
