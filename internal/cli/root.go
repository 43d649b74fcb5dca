// Package cli assembles the reelscout command tree.
package cli

import (
	"errors"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/reelscout/reelscout/internal/appctx"
	"github.com/reelscout/reelscout/internal/commands"
	"github.com/reelscout/reelscout/internal/config"
	"github.com/reelscout/reelscout/internal/output"
	"github.com/reelscout/reelscout/internal/version"
)

// NewRootCmd creates the root cobra command. Zero-valued opts fields are
// filled from the command's own output streams.
func NewRootCmd(opts appctx.Options) *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:   "reelscout",
		Short: "Search movies from the terminal",
		Long: "reelscout searches The Movie Database as you type and keeps a tally of\n" +
			"the most popular searches.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          commands.RunTUI,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipSetup(cmd) {
				return nil
			}

			cfg, err := config.Load(config.FlagOverrides{
				CacheDir:  flags.CacheDir,
				Language:  flags.Language,
				Analytics: flags.Analytics,
			})
			if err != nil {
				return output.ErrUsage(err.Error())
			}

			appOpts := opts
			if appOpts.Stdout == nil {
				appOpts.Stdout = cmd.OutOrStdout()
			}
			if appOpts.Stderr == nil {
				appOpts.Stderr = cmd.ErrOrStderr()
			}

			app := appctx.NewApp(cfg, appOpts)
			app.Flags = flags
			if err := app.ApplyFlags(); err != nil {
				return err
			}

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	cmd.SetVersionTemplate(version.Full() + "\n")

	cmd.SetGlobalNormalizationFunc(flagNormalizer)

	// Allow flags anywhere in the command line
	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)

	// Output format flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	pf.BoolVarP(&flags.MD, "md", "m", false, "Output as Markdown (portable)")
	pf.BoolVar(&flags.MD, "markdown", false, "Output as Markdown (portable)")
	pf.BoolVar(&flags.Styled, "styled", false, "Force styled output (ANSI colors)")
	pf.BoolVar(&flags.IDsOnly, "ids-only", false, "Output only IDs")
	pf.BoolVar(&flags.Count, "count", false, "Output only count")
	pf.StringVar(&flags.JQ, "jq", "", "Filter the JSON envelope with a jq expression")

	// Behavior flags
	pf.CountVarP(&flags.Verbose, "verbose", "v", "Verbose output (-v for operations, -vv for requests)")
	pf.BoolVar(&flags.Stats, "stats", false, "Show session statistics")
	pf.StringVar(&flags.CacheDir, "cache-dir", "", "Cache directory")
	pf.StringVar(&flags.Language, "language", "", "TMDB language (e.g. en-US)")
	pf.StringVar(&flags.Analytics, "analytics", "", "Analytics backend: local, appwrite, off")

	_ = cmd.RegisterFlagCompletionFunc("analytics", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{config.AnalyticsLocal, config.AnalyticsAppwrite, config.AnalyticsOff}, cobra.ShellCompDirectiveNoFileComp
	})

	commands.AddTUIFlags(cmd)

	cmd.AddCommand(commands.NewTUICmd())
	cmd.AddCommand(commands.NewSearchCmd())
	cmd.AddCommand(commands.NewDiscoverCmd())
	cmd.AddCommand(commands.NewTrendingCmd())
	cmd.AddCommand(commands.NewAuthCmd())
	cmd.AddCommand(commands.NewConfigCmd())
	cmd.AddCommand(commands.NewCommandsCmd())

	return cmd
}

// flagNormalizer accepts underscores in flag names (--cache_dir).
func flagNormalizer(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func skipSetup(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "version", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	for p := cmd; p != nil; p = p.Parent() {
		if p.Name() == "completion" {
			return true
		}
	}
	return false
}

// Execute runs the root command and exits with its status.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the command tree with args and returns the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd(appctx.Options{})
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	executedCmd, err := cmd.ExecuteC()
	if err == nil {
		return output.ExitOK
	}

	err = transformCobraError(err)
	apiErr := output.AsError(err)

	// app.Err handles --stats; it is only available once setup succeeded.
	if executedCmd != nil && executedCmd.Context() != nil {
		if app := appctx.FromContext(executedCmd.Context()); app != nil {
			_ = app.Err(err)
			return apiErr.ExitCode()
		}
	}

	writer := output.New(output.Options{
		Format: fallbackFormat(cmd),
		Writer: stdout,
	})
	_ = writer.Err(err)
	return apiErr.ExitCode()
}

// fallbackFormat picks an error format from raw flags when setup failed
// before the app existed.
func fallbackFormat(cmd *cobra.Command) output.Format {
	pf := cmd.PersistentFlags()
	quiet, _ := pf.GetBool("quiet")
	idsOnly, _ := pf.GetBool("ids-only")
	count, _ := pf.GetBool("count")
	styled, _ := pf.GetBool("styled")
	md, _ := pf.GetBool("md")
	jsonFlag, _ := pf.GetBool("json")

	switch {
	case quiet:
		return output.FormatQuiet
	case idsOnly:
		return output.FormatIDs
	case count:
		return output.FormatCount
	case styled:
		return output.FormatStyled
	case md:
		return output.FormatMarkdown
	case jsonFlag:
		return output.FormatJSON
	default:
		return output.FormatAuto
	}
}

var (
	shorthandRe = regexp.MustCompile(`unknown shorthand flag: '.' in (-\w)`)
	commandRe   = regexp.MustCompile(`unknown command "([^"]*)"`)
)

// transformCobraError turns cobra's parse errors into usage errors with
// consistent wording.
func transformCobraError(err error) error {
	var structured *output.Error
	if errors.As(err, &structured) {
		return err
	}
	msg := err.Error()

	if flag, ok := strings.CutPrefix(msg, "flag needs an argument: "); ok {
		return output.ErrUsage(flag + " requires a value")
	}
	if flag, ok := strings.CutPrefix(msg, "unknown flag: "); ok {
		return output.ErrUsage("Unknown option: " + flag)
	}
	if m := shorthandRe.FindStringSubmatch(msg); len(m) > 1 {
		return output.ErrUsage("Unknown option: " + m[1])
	}
	if m := commandRe.FindStringSubmatch(msg); len(m) > 1 {
		return output.ErrUsageHint("Unknown command: "+m[1], "Run: reelscout --help")
	}
	if strings.Contains(msg, "invalid argument") {
		return output.ErrUsage(msg)
	}
	if strings.Contains(msg, "requires at least") && strings.Contains(msg, "arg(s)") {
		return output.ErrUsage("Search query required")
	}
	if strings.Contains(msg, "arg(s), received") {
		return output.ErrUsage(msg)
	}
	return err
}
