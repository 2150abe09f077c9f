package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"talentsearch/internal/common"
	"talentsearch/internal/types"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Create searches and fetch result pages",
}

var searchCreateCmd = &cobra.Command{
	Use:   "create [query...]",
	Short: "Submit a natural-language search",
	Long: `Store a recruiter's free-text search and print it with its new id.
The query is taken from the arguments, or from --file when given ("-" reads
standard input). No filter is generated until the first page is requested.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &searchCreateConfig)
	},
	RunE: runSearchCreate,
}

var searchPageCmd = &cobra.Command{
	Use:   "page [search-id] [page-index]",
	Short: "Fetch one page of candidate ids",
	Long: `Fetch a result page for a stored search. The first request generates
and caches the filter; pages already served are returned unchanged.
The page index defaults to 0.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &searchPageConfig)
	},
	RunE: runSearchPage,
}

var searchShowCmd = &cobra.Command{
	Use:   "show [search-id]",
	Short: "Show a search with its criteria and filter",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &searchShowConfig)
	},
	RunE: runSearchShow,
}

var (
	searchCreateConfig common.CommandConfig
	searchPageConfig   common.CommandConfig
	searchShowConfig   common.CommandConfig

	searchOwner     string
	searchQueryFile string
)

func init() {
	searchCreateCmd.Flags().StringVar(&searchOwner, "owner", "cli", "Owner (recruiter) id recorded with the search")
	searchCreateCmd.Flags().StringVarP(&searchQueryFile, "file", "f", "", "Read the query from a file instead of the arguments")
	addOutputFlags(searchCreateCmd, &searchCreateConfig)
	addOutputFlags(searchPageCmd, &searchPageConfig)
	addOutputFlags(searchShowCmd, &searchShowConfig)

	searchCmd.AddCommand(searchCreateCmd)
	searchCmd.AddCommand(searchPageCmd)
	searchCmd.AddCommand(searchShowCmd)
}

func runSearchCreate(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if searchQueryFile == "" && len(args) == 0 {
		return fmt.Errorf("a query is required: pass it as arguments or use --file")
	}
	if searchQueryFile != "" && len(args) > 0 {
		return fmt.Errorf("pass the query either as arguments or with --file, not both")
	}

	app, err := newApplication(cmd.Context(), cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	create := func(ctx context.Context, query string) (*types.SearchRequest, error) {
		return app.search.CreateSearch(ctx, searchOwner, query)
	}
	logDetails := func(query string, cfg common.CommandConfig) {
		logger.Info("Creating search", "owner_id", searchOwner, "query_chars", len(query), "output_format", cfg.OutputFormat)
	}

	if searchQueryFile != "" {
		readQuery := func(contents []string) (string, error) { return contents[0], nil }
		return common.RunFileCommand(cmd.Context(), logger, searchCreateConfig, []string{searchQueryFile}, readQuery, create, logDetails)
	}
	return common.RunCommand(cmd.Context(), logger, searchCreateConfig, strings.Join(args, " "), create, logDetails)
}

func runSearchPage(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	input := types.SearchPageInput{SearchID: args[0]}
	if len(args) == 2 {
		pageIndex, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid page index %q: %w", args[1], err)
		}
		input.PageIndex = pageIndex
	}

	app, err := newApplication(cmd.Context(), cfg, logger, appOptions{generator: true})
	if err != nil {
		return err
	}
	defer app.Close()

	fetch := func(ctx context.Context, in types.SearchPageInput) (*types.PageResult, error) {
		return app.search.ExecuteSearchPage(ctx, in.SearchID, in.PageIndex)
	}
	logDetails := func(in types.SearchPageInput, cfg common.CommandConfig) {
		logger.Info("Fetching result page", "search_id", in.SearchID, "page_index", in.PageIndex, "output_format", cfg.OutputFormat)
	}

	return common.RunCommand(cmd.Context(), logger, searchPageConfig, input, fetch, logDetails)
}

func runSearchShow(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	app, err := newApplication(cmd.Context(), cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	return common.RunCommand(cmd.Context(), logger, searchShowConfig, args[0], app.search.GetSearch, nil)
}
