package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kalambet/shtym/internal/backend"
	"github.com/kalambet/shtym/internal/config"
	"github.com/kalambet/shtym/internal/filter"
	"github.com/kalambet/shtym/internal/history"
	"github.com/kalambet/shtym/internal/profile"
	"github.com/kalambet/shtym/internal/resolve"
	"github.com/kalambet/shtym/internal/runner"
	"github.com/kalambet/shtym/internal/transform"
)

var version = "dev"

// exitCode is what the process exits with. The wrapped command's own
// status propagates through it; management subcommands leave it at 0.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "shtym [flags] -- command [args...]",
	Short: "Run a command and rewrite its output through a transformation profile",
	Long: `shtym runs a command, captures its output, and rewrites the captured
stdout through a named transformation profile before printing it.

When the profile, its backend, or the model server is unavailable the
output passes through unchanged; the wrapped command always runs and its
exit code is always preserved.

Examples:
  shtym -- pytest -q
  shtym -p summary -- make test
  shtym --strip-ansi -p digest -- npm run build`,
	Args:          cobra.ArbitraryArgs,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runWrap(cmd, args)
	},
}

var noColor bool

func init() {
	// Flags after the wrapped command belong to the wrapped command.
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.Flags().StringP("profile", "p", "", "transformation profile name")
	rootCmd.Flags().Bool("strip-ansi", false, "strip terminal escape sequences from captured output")
	rootCmd.Flags().Bool("html-text", false, "extract readable text from HTML output")
	rootCmd.Flags().StringArray("var", nil, "extra template variable as key=value (repeatable)")
	rootCmd.Flags().Int("timeout", 0, "LLM invocation timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func runWrap(cmd *cobra.Command, command []string) error {
	cfg := loadConfigLenient()
	setupLogging(cfg.Log.Level)

	profileName, _ := cmd.Flags().GetString("profile")
	stripANSI, _ := cmd.Flags().GetBool("strip-ansi")
	htmlText, _ := cmd.Flags().GetBool("html-text")
	varFlags, _ := cmd.Flags().GetStringArray("var")
	timeout, _ := cmd.Flags().GetInt("timeout")
	if timeout > 0 {
		cfg.LLM.TimeoutSeconds = timeout
	}

	extraVars, err := parseVars(varFlags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// The wrapped command always runs, whatever happens around it.
	res, runErr := runner.Run(ctx, command)
	if runErr != nil {
		printError("%v", runErr)
		exitCode = res.ExitCode
		return nil
	}

	filtered := buildFilters(stripANSI, htmlText).Apply(res.Stdout)

	output, resolution := transformOutput(ctx, cfg, profileName, extraVars, res, filtered)

	emit(os.Stdout, output)
	fmt.Fprint(os.Stderr, res.Stderr)

	recordInvocation(cfg, res, resolution)
	exitCode = res.ExitCode
	return nil
}

// transformOutput resolves a transformer and applies it to the filtered
// stdout. Any failure past this point is reported on stderr and the
// original output is returned, so the wrapper never swallows what the
// command produced.
func transformOutput(ctx context.Context, cfg config.Config, profileName string, extraVars map[string]string, res runner.Result, filtered string) (string, resolve.Resolution) {
	resolver := newResolver(cfg, extraVars)

	resolution, err := resolver.Resolve(ctx, profileName)
	if err != nil {
		printError("resolving profile %q: %v", profileName, err)
		return filtered, resolve.Resolution{Degraded: true}
	}

	output, err := resolution.Transformer.Transform(ctx, res.Command, filtered, res.Stderr)
	if err != nil {
		printError("transform failed, showing original output: %v", err)
		resolution.Degraded = true
		return filtered, resolution
	}
	return output, resolution
}

func loadProfiles() *profile.Store {
	return profile.Load(config.ProfilesPaths()...)
}

func newResolver(cfg config.Config, extraVars map[string]string) *resolve.Resolver {
	return newResolverWith(loadProfiles(), cfg, extraVars)
}

func newResolverWith(store *profile.Store, cfg config.Config, extraVars map[string]string) *resolve.Resolver {
	factory := transform.NewFactory(
		backend.Default(),
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second,
		extraVars,
	)
	return resolve.New(store, factory, cfg)
}

// recordInvocation saves a history record. Best-effort: a history failure
// must never affect the wrapped command.
func recordInvocation(cfg config.Config, res runner.Result, resolution resolve.Resolution) {
	if !cfg.History.Enabled {
		return
	}
	store, err := history.Open(cfg.Storage.DataDir)
	if err != nil {
		slog.Debug("opening history store", "error", err)
		return
	}
	defer store.Close()

	rec := history.Record{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		Command:    strings.Join(res.Command, " "),
		Profile:    resolution.Profile,
		Degraded:   resolution.Degraded,
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
	}
	if err := store.Save(rec); err != nil {
		slog.Debug("saving history record", "error", err)
	}
}

func buildFilters(stripANSI, htmlText bool) filter.Chain {
	var chain filter.Chain
	if stripANSI {
		chain = append(chain, filter.StripANSI{})
	}
	if htmlText {
		chain = append(chain, filter.HTMLText{})
	}
	return chain
}

// parseVars turns repeated --var key=value flags into a map.
func parseVars(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(flags))
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", f)
		}
		vars[key] = value
	}
	return vars, nil
}

// emit writes s to w, ensuring a trailing newline so the shell prompt
// doesn't end up glued to the output.
func emit(w *os.File, s string) {
	if s == "" {
		return
	}
	fmt.Fprint(w, s)
	if !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(w)
	}
}

// loadConfigLenient loads config for the wrapper path. A broken config
// file degrades to defaults instead of blocking the wrapped command.
func loadConfigLenient() config.Config {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("loading config, continuing with defaults", "error", err)
		return config.Defaults()
	}
	return cfg
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}
