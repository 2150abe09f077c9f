package cli

import (
	"context"

	"talentsearch/internal/common"
	"talentsearch/internal/search"
	"talentsearch/internal/types"

	"github.com/spf13/cobra"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Work with filter expressions",
}

var filterCheckCmd = &cobra.Command{
	Use:   "check [filter-file]",
	Short: "Validate a filter expression and show the SQL it compiles to",
	Long: `Validate a filter expression document against the field allow-list and
the depth and size limits, then print the parameterised SQL predicate and its
bound arguments. Reads standard input when no file is given. Nothing is
executed and no database connection is made.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &filterCheckConfig)
	},
	RunE: runFilterCheck,
}

var filterCheckConfig common.CommandConfig

func init() {
	addOutputFlags(filterCheckCmd, &filterCheckConfig)
	filterCmd.AddCommand(filterCheckCmd)
}

func runFilterCheck(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	file := common.StdinName
	if len(args) == 1 {
		file = args[0]
	}

	validator := search.NewValidator(cfg.Search)
	readDocument := func(contents []string) ([]byte, error) { return []byte(contents[0]), nil }
	check := func(_ context.Context, document []byte) (*types.FilterCheckOutput, error) {
		return search.CheckFilter(validator, document)
	}
	logDetails := func(document []byte, cfg common.CommandConfig) {
		logger.Debug("Checking filter expression", "bytes", len(document), "output_format", cfg.OutputFormat)
	}

	return common.RunFileCommand(cmd.Context(), logger, filterCheckConfig, []string{file}, readDocument, check, logDetails)
}
