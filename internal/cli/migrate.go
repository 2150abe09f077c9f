package cli

import (
	"fmt"

	"talentsearch/internal/config"
	"talentsearch/internal/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the search cache tables",
	Long: `Create the query cache and page cache tables if they do not exist.
The candidate tables are read-only to this service and are never touched.
Use --print to write the DDL to stdout instead of applying it.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("print", false, "Print the schema instead of applying it")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
		_, err := fmt.Fprint(cmd.OutOrStdout(), store.Schema())
		return err
	}

	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	pool, err := store.NewPostgresPool(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := store.EnsureSchema(cmd.Context(), pool); err != nil {
		return err
	}
	logger.Info("Search cache schema applied", "url", config.MaskURL(cfg.Database.URL))
	return nil
}
