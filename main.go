package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/drpaneas/resonance/internal/config"
	"github.com/drpaneas/resonance/internal/dataset"
	"github.com/drpaneas/resonance/internal/evaluate"
	"github.com/drpaneas/resonance/internal/judge"
	"github.com/drpaneas/resonance/internal/llm"
	"github.com/drpaneas/resonance/internal/observability"
	"github.com/drpaneas/resonance/internal/persona"
	"github.com/drpaneas/resonance/internal/progress"
	"github.com/drpaneas/resonance/internal/report"
	"github.com/drpaneas/resonance/internal/result"
	"github.com/drpaneas/resonance/internal/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// flags holds the raw command-line values. Only flags the user set
// override the file and defaults.
type flags struct {
	configFile    string
	provider      string
	model         string
	personaSource string
	personaLimit  int
	concurrency   int
	verbose       bool
	logFormat     string

	messagesFile string
	outputFile   string
	role         string
	numPersonas  int
	addr         string
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&flags{})
}

func buildRootCmd(f *flags) *cobra.Command {
	root := &cobra.Command{
		Use:           "resonance",
		Short:         "Score marketing messages against persona cohorts with an LLM judge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "YAML config file")
	pf.StringVar(&f.provider, "provider", string(llm.ProviderOpenAI), "LLM provider: openai, anthropic, ollama, gemini, bedrock")
	pf.StringVar(&f.model, "model", "", "LLM model (default: per-provider)")
	pf.StringVar(&f.personaSource, "personas", dataset.DefaultLocation, "Persona corpus: URL or local JSONL/text file")
	pf.IntVar(&f.personaLimit, "persona-limit", config.DefaultPersonaLimit, "Number of corpus personas to classify")
	pf.IntVar(&f.concurrency, "concurrency", evaluate.DefaultConcurrency, "Judge calls in flight per message")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVar(&f.logFormat, "log-format", string(observability.LogFormatText), "Log format: text or json")

	evalCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Test messages against one role's cohort and rank them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			return runEvaluate(cmd.Context(), cfg)
		},
	}
	evalCmd.Flags().StringVar(&f.messagesFile, "messages-file", "", "JSON file with {\"messages\": [...]}")
	evalCmd.Flags().StringVar(&f.outputFile, "output-file", "", "Where to save results: local path or s3://bucket/key")
	evalCmd.Flags().StringVar(&f.role, "role", "", "Audience role: it_admin, facilities, executive, retail, multifamily")
	evalCmd.Flags().IntVar(&f.numPersonas, "num-personas", config.DefaultNumPersonas, "Number of personas per role to test against")

	cohortsCmd := &cobra.Command{
		Use:   "cohorts",
		Short: "Classify the persona corpus and print cohort sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			return runCohorts(cmd.Context(), cfg)
		},
	}
	cohortsCmd.Flags().StringVar(&f.outputFile, "output-file", "", "Optional JSON file for the cohort map")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the evaluation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&f.addr, "addr", config.DefaultServerAddr, "Listen address")
	serveCmd.Flags().IntVar(&f.numPersonas, "num-personas", config.DefaultNumPersonas, "Default personas per request")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "resonance %s\n", Version)
		},
	}

	root.AddCommand(evalCmd, cohortsCmd, serveCmd, versionCmd)
	return root
}

// resolveConfig layers defaults, the YAML file, set flags, then the
// environment for keys and hosts, which have no flags.
func resolveConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		if err := cfg.LoadFile(f.configFile); err != nil {
			return nil, err
		}
	}

	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("provider") {
		cfg.Provider = llm.ProviderName(f.provider)
	}
	if changed("model") {
		cfg.Model = f.model
	}
	if changed("personas") {
		cfg.PersonaSource = f.personaSource
	}
	if changed("persona-limit") {
		cfg.PersonaLimit = f.personaLimit
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if changed("messages-file") {
		cfg.MessagesFile = f.messagesFile
	}
	if changed("output-file") {
		cfg.OutputFile = f.outputFile
	}
	if changed("role") {
		cfg.Role = f.role
	}
	if changed("num-personas") {
		cfg.NumPersonas = f.numPersonas
	}
	if changed("addr") {
		cfg.ServerAddr = f.addr
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.LoadFromEnv()
	if cfg.Model == "" {
		cfg.Model = config.DefaultModel(cfg.Provider)
	}
	return &cfg, nil
}

// setup installs the default logger and, when an OTLP endpoint is
// configured, the tracer provider. The returned function flushes traces.
func setup(ctx context.Context, cfg *config.Config, runID string) (*slog.Logger, func(), error) {
	logger := observability.NewLogger(os.Stderr, observability.LogFormat(cfg.LogFormat), cfg.Verbose).
		With("run_id", runID)
	slog.SetDefault(logger)

	shutdown := func() {}
	if observability.TracingEnabled() {
		stop, err := observability.InitTracer(ctx, "resonance", Version)
		if err != nil {
			return nil, nil, err
		}
		shutdown = func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := stop(sctx); err != nil {
				logger.Warn("flushing traces", "error", err)
			}
		}
	}
	return logger, shutdown, nil
}

func loadCohorts(ctx context.Context, cfg *config.Config, cb progress.Callback) (*persona.Cohorts, error) {
	start := time.Now()
	cb(progress.Event{Stage: progress.StageLoad, Message: "Loading personas"})
	texts, err := dataset.Open(cfg.PersonaSource).Personas(ctx, cfg.PersonaLimit)
	if err != nil {
		return nil, fmt.Errorf("loading personas: %w", err)
	}
	cb(progress.Event{Stage: progress.StageClassify, Message: "Processing personas", Total: len(texts), Elapsed: time.Since(start)})
	cohorts := persona.BuildCohorts(texts)
	cb(progress.Event{Stage: progress.StageClassify, Message: "Processing personas", Done: len(texts), Total: len(texts), Elapsed: time.Since(start)})

	sizes := make([]any, 0, 2*len(persona.Priority))
	for _, role := range cohorts.Roles() {
		sizes = append(sizes, role.Selector(), len(cohorts.Members(role)))
	}
	slog.InfoContext(ctx, "classified personas",
		append([]any{"loaded", len(texts), "dropped", cohorts.Dropped(), "duplicates", cohorts.Duplicates()}, sizes...)...)
	return cohorts, nil
}

func runEvaluate(ctx context.Context, cfg *config.Config) error {
	role, err := cfg.ValidateEvaluate()
	if err != nil {
		return err
	}
	runID := ulid.Make().String()
	logger, shutdown, err := setup(ctx, cfg, runID)
	if err != nil {
		return err
	}
	defer shutdown()

	logger.Info("starting resonance", "role", role, "provider", cfg.Provider, "model", cfg.Model)

	messages, err := dataset.LoadMessages(cfg.MessagesFile)
	if err != nil {
		return err
	}

	bar := progress.NewBarRenderer(os.Stderr)
	defer bar.Finish()

	cohorts, err := loadCohorts(ctx, cfg, bar.Handle)
	if err != nil {
		return err
	}
	personas, err := cohorts.Select(role, cfg.NumPersonas)
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(ctx, cfg.ProviderConfig())
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}
	runner := evaluate.NewRunner(judge.NewLLM(provider, judge.DefaultOptions),
		evaluate.WithConcurrency(cfg.Concurrency),
		evaluate.WithProgress(bar.Handle),
		evaluate.WithLogger(logger),
	)
	evals, _, err := runner.Run(ctx, messages, role, personas)
	if err != nil {
		return fmt.Errorf("evaluating messages: %w", err)
	}

	sink, err := result.Open(ctx, cfg.OutputFile, runID, cfg.AWSRegion)
	if err != nil {
		return err
	}
	loc, err := sink.Write(ctx, evals)
	if err != nil {
		return err
	}
	bar.Handle(progress.Event{Stage: progress.StageComplete, Message: "Results saved to " + loc})
	bar.Finish()

	report.NewPrinter(os.Stdout).Top(evals)
	logger.Info("done", "output", loc, "messages", len(evals))
	return nil
}

func runCohorts(ctx context.Context, cfg *config.Config) error {
	if cfg.PersonaLimit < 1 {
		return errors.New("--persona-limit must be at least 1")
	}
	_, shutdown, err := setup(ctx, cfg, ulid.Make().String())
	if err != nil {
		return err
	}
	defer shutdown()

	cohorts, err := loadCohorts(ctx, cfg, progress.NopCallback)
	if err != nil {
		return err
	}
	report.NewPrinter(os.Stdout).Cohorts(cohorts)

	if cfg.OutputFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(cohorts.Map(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cohorts: %w", err)
	}
	if err := os.WriteFile(cfg.OutputFile, data, 0o644); err != nil {
		return fmt.Errorf("writing cohorts: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\nCohorts saved to %s\n", cfg.OutputFile)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, shutdown, err := setup(ctx, cfg, ulid.Make().String())
	if err != nil {
		return err
	}
	defer shutdown()

	cohorts, err := loadCohorts(ctx, cfg, progress.NopCallback)
	if err != nil {
		return err
	}
	provider, err := llm.NewProvider(ctx, cfg.ProviderConfig())
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}
	runner := evaluate.NewRunner(judge.NewLLM(provider, judge.DefaultOptions),
		evaluate.WithConcurrency(cfg.Concurrency),
		evaluate.WithLogger(logger),
	)
	return server.New(cohorts, runner, cfg.NumPersonas, logger).Run(ctx, cfg.ServerAddr)
}
