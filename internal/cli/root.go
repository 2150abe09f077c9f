package cli

import (
	"context"

	"talentsearch/internal/common"
	"talentsearch/internal/config"
	"talentsearch/internal/errors"

	"github.com/spf13/cobra"
)

// env is what every subcommand needs from main
type env struct {
	cfg    *config.Config
	logger *errors.Logger
}

type envKey struct{}

var rootCmd = &cobra.Command{
	Use:   "talentsearch",
	Short: "Natural-language candidate search for recruiters",
	Long: `Talentsearch turns a recruiter's free-text request into a validated
candidate filter, runs it against the candidate database and serves stable,
cached result pages. Run "talentsearch serve" for the HTTP API or use the
search and filter commands directly.`,
	SilenceUsage: true,
}

// Execute runs the command line with cfg and logger available to every
// subcommand through its context
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	rootCmd.SetContext(context.WithValue(ctx, envKey{}, env{cfg: cfg, logger: logger}))
	return rootCmd.Execute()
}

func envFrom(ctx context.Context) env {
	e, ok := ctx.Value(envKey{}).(env)
	if !ok {
		panic("cli: command run without Execute")
	}
	return e
}

func getConfigFromContext(ctx context.Context) *config.Config { return envFrom(ctx).cfg }

func getLoggerFromContext(ctx context.Context) *errors.Logger { return envFrom(ctx).logger }

// addOutputFlags registers --output and --format on cmd, bound to target
func addOutputFlags(cmd *cobra.Command, target *common.CommandConfig) {
	cmd.Flags().StringVarP(&target.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&target.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.OutputFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOutputFormat applies the configured default format and validates it
func resolveOutputFormat(cmd *cobra.Command, target *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	if target.OutputFormat == "" {
		target.OutputFormat = cfg.App.DefaultFormat
	}
	return common.ValidateOutputFormat(target.OutputFormat, cfg.App.SupportedFormats)
}

func init() {
	rootCmd.AddCommand(serveCmd, searchCmd, filterCmd, migrateCmd, versionCmd)
}
