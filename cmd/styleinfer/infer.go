package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jihwankim/styleinfer/pkg/cache"
	"github.com/jihwankim/styleinfer/pkg/config"
	"github.com/jihwankim/styleinfer/pkg/diffdist"
	"github.com/jihwankim/styleinfer/pkg/dispatcher"
	"github.com/jihwankim/styleinfer/pkg/formatter"
	"github.com/jihwankim/styleinfer/pkg/reporting"
	"github.com/jihwankim/styleinfer/pkg/runner"
	"github.com/jihwankim/styleinfer/pkg/search"
	"github.com/jihwankim/styleinfer/pkg/style"
)

var inferCmd = &cobra.Command{
	Use:   "infer FILE...",
	Args:  cobra.MinimumNArgs(1),
	Short: "Infer a formatter style that reproduces a set of reference files",
	Long: `infer reformats each FILE under a sequence of candidate styles and keeps
narrowing in on the style whose output is closest to that file's reference,
per --references, or to FILE itself when no reference is given.`,
	RunE: runInfer,
}

func init() {
	flags := inferCmd.Flags()
	flags.String("formatter", "", "path to the formatter executable under test (required)")
	flags.StringArray("references", nil, "reference file, one per FILE, in the same order (default: FILE itself)")
	flags.String("mode", "", "normal, resilient, or stylediff (default: config search.mode, else normal)")
	flags.Bool("stylediff", false, "shorthand for --mode stylediff")
	flags.StringArray("ignore-options", nil, "formatter option name to never vary (repeatable)")
	flags.Int("maxrounds", 0, "cap on search rounds, <0 for unlimited (default: config search.max_rounds)")
	flags.Int("accept-from-round", -1, "round at which only strictly-improving candidates survive (default: config)")
	flags.String("metric", "", "mindiff, maxdiff, mincontent, or maxcontent (default: config search.metric)")
	flags.Float64("source-factor", 0, "weight applied to the reference distance (resilient mode)")
	flags.Float64("variants-factor", 0, "weight applied to the variant-target distance (resilient mode)")
	flags.String("difftool", "", "builtin, external-diff, or external-gitdiff (default: builtin)")
	flags.String("concurrency", "", "off, threads, or processes (default: config concurrency.mode)")
	flags.String("cache", "", "sqlite, directory, or off (default: config cache.backend)")
	flags.String("cache-path", "", "path to the cache store (default: config cache.path)")
	flags.String("startstyle", "", `starting style, e.g. "{based_on_style: llvm, column_limit: 79}"`)
	flags.String("output", "", "path to write the winning style's serialized config (default: config reporting.output_style)")
	flags.Bool("metric-save", false, "write a <output>.metric sidecar with the winning distance and formatter version")
	flags.String("output-format", "text", "progress output format: text or json")
	flags.String("reports-dir", "", "directory run reports are saved under (default: ./.styleinfer/reports)")
	flags.Int("keep-last-n", 20, "prune run reports beyond the N most recent, 0 disables pruning")
	flags.Duration("timeout", 0, "per-invocation subprocess timeout (default: 30s)")
}

func runInfer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := applyInferFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logLevel := reporting.LogLevel(cfg.Logging.Level)
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Logging.Format),
	})

	runID := uuid.New().String()
	logger = logger.WithRun(runID)
	logger.Info("starting inference run", "mode", cfg.Search.Mode)

	adapter, err := formatter.ForFile(args[0])
	if err != nil {
		return fmt.Errorf("no formatter suitable for these extensions: %w", err)
	}
	logger = logger.WithFormatter(cfg.Formatter.Executable, adapter.Language())

	references, _ := cmd.Flags().GetStringArray("references")
	inputs, err := loadInputFiles(args, references)
	if err != nil {
		return fmt.Errorf("unreadable input: %w", err)
	}

	var c *cache.Cache
	if !cfg.Cache.Disable {
		backend, err := openCacheBackend(cfg.Cache)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		c = cache.New(backend)
		defer c.Close()
	}

	disp := dispatcher.New(dispatcher.Mode(cfg.Concurrency.Mode), c)

	startStyle := style.Style{}
	if startstyleText, _ := cmd.Flags().GetString("startstyle"); startstyleText != "" {
		s, err := formatter.ParseFlowStyle(startstyleText)
		if err != nil {
			return fmt.Errorf("parsing --startstyle: %w", err)
		}
		startStyle = s
	}

	ignoreOptions := map[string]bool{}
	for _, name := range cfg.Search.IgnoreOptions {
		ignoreOptions[name] = true
	}

	searchCfg := search.Config{
		Metric:          diffdist.Metric(cfg.Search.Metric),
		Additive:        cfg.Search.Mode != "stylediff",
		MaxRounds:       cfg.Search.MaxRounds,
		AcceptFromRound: cfg.Search.AcceptFromRound,
		IgnoreOptions:   ignoreOptions,
		SourceFactor:    cfg.Search.SourceFactor,
		VariantsFactor:  cfg.Search.VariantsFactor,
	}
	if d, _ := cmd.Flags().GetDuration("timeout"); d > 0 {
		searchCfg.Timeout = d
	}
	if tool, _ := cmd.Flags().GetString("difftool"); tool != "" {
		searchCfg.DiffTool = diffdist.ToolKind(tool)
	}

	outputFormat := reporting.FormatText
	if f, _ := cmd.Flags().GetString("output-format"); f == "json" {
		outputFormat = reporting.FormatJSON
	}
	progress := reporting.NewProgressReporter(outputFormat, logger, runID, cfg.Search.Mode)
	metrics := reporting.NewMetrics()
	searchCfg.Hooks = search.MultiHooks{progress, metrics}

	reportsDir, _ := cmd.Flags().GetString("reports-dir")
	if reportsDir == "" {
		reportsDir = ".styleinfer/reports"
	}
	keepLastN, _ := cmd.Flags().GetInt("keep-last-n")
	storage, err := reporting.NewStorage(reportsDir, keepLastN, logger)
	if err != nil {
		return fmt.Errorf("opening report storage: %w", err)
	}

	ctx := context.Background()
	exe := cfg.Formatter.Executable

	if cfg.Search.Mode == "stylediff" {
		return runStyleDiffMode(ctx, cmd, adapter, disp, exe, inputs, startStyle, searchCfg, progress, storage, cfg)
	}

	var best *search.Attempt
	if cfg.Search.Mode == "resilient" {
		best, err = search.RunResilient(ctx, adapter, disp, exe, inputs, searchCfg, startStyle)
	} else {
		engine := search.NewEngine(adapter, disp, exe, inputs, searchCfg)
		best, err = engine.Run(ctx, startStyle)
	}

	inputPaths := make([]string, len(inputs))
	for i, in := range inputs {
		inputPaths[i] = in.Path
	}

	if err != nil {
		progress.Finalize(exe, adapter.Language(), inputPaths, reporting.StatusFailed, 0, 0, "", err)
		return fmt.Errorf("all formatting attempts failed: %w", err)
	}

	if err := persistBestStyle(cmd, adapter, exe, best); err != nil {
		progress.Finalize(exe, adapter.Language(), inputPaths, reporting.StatusFailed, best.Distance.Diff.Primary, best.Distance.Diff.Secondary, "", err)
		return err
	}

	report := progress.Finalize(exe, adapter.Language(), inputPaths, reporting.StatusCompleted,
		best.Distance.Diff.Primary, best.Distance.Diff.Secondary, best.Style.Signature(), nil)
	if _, err := storage.SaveReport(report); err != nil {
		logger.Warn("failed to save run report", "error", err)
	}

	return nil
}

// runStyleDiffMode implements the single-file, two-sided stylediff mode
// (SUPPLEMENTED FEATURES item 1): it has no single "best style" to persist,
// so success is reported via the two sides' style difference instead.
func runStyleDiffMode(ctx context.Context, cmd *cobra.Command, adapter formatter.Adapter, disp *dispatcher.Dispatcher, exe string, inputs []search.InputFile, startStyle style.Style, searchCfg search.Config, progress *reporting.ProgressReporter, storage *reporting.Storage, cfg *config.Config) error {
	if len(inputs) != 1 {
		err := fmt.Errorf("stylediff mode takes exactly one FILE, got %d", len(inputs))
		progress.Finalize(exe, adapter.Language(), nil, reporting.StatusFailed, 0, 0, "", err)
		return err
	}
	in := inputs[0]

	result, err := search.RunStyleDiff(ctx, adapter, disp, exe, in.Path, in.Content, in.ReferenceContent, startStyle, searchCfg)
	if err != nil {
		progress.Finalize(exe, adapter.Language(), []string{in.Path}, reporting.StatusFailed, 0, 0, "", err)
		return fmt.Errorf("all formatting attempts failed: %w", err)
	}

	sourceOnly, err1 := adapter.Serialize(result.UniqueToSource)
	refOnly, err2 := adapter.Serialize(result.UniqueToRef)
	if err1 != nil {
		return fmt.Errorf("serializing source-only style: %w", err1)
	}
	if err2 != nil {
		return fmt.Errorf("serializing reference-only style: %w", err2)
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = cfg.Reporting.OutputStyle
	}
	var b strings.Builder
	b.WriteString("# unique to source\n")
	b.Write(sourceOnly)
	b.WriteString("\n# unique to reference\n")
	b.Write(refOnly)
	if err := os.WriteFile(outputPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing stylediff output: %w", err)
	}

	report := progress.Finalize(exe, adapter.Language(), []string{in.Path}, reporting.StatusCompleted,
		0, 0, result.SourceStyle.Signature()+" | "+result.ReferenceStyle.Signature(), nil)
	if _, err := storage.SaveReport(report); err != nil {
		// a report that fails to save does not invalidate an otherwise
		// successful run
		_ = err
	}
	return nil
}

// persistBestStyle serializes best.Style via the adapter and writes it to
// --output (or the configured default), plus a metric sidecar when
// --metric-save is set.
func persistBestStyle(cmd *cobra.Command, adapter formatter.Adapter, exe string, best *search.Attempt) error {
	outputPath, _ := cmd.Flags().GetString("output")

	serialized, err := adapter.Serialize(best.Style)
	if err != nil {
		return fmt.Errorf("serializing winning style: %w", err)
	}
	if err := os.WriteFile(outputPath, serialized, 0644); err != nil {
		return fmt.Errorf("writing output style: %w", err)
	}

	metricSave, _ := cmd.Flags().GetBool("metric-save")
	if !metricSave {
		return nil
	}

	versionText := formatterVersion(exe)
	sidecar := fmt.Sprintf("%d, %d, %d, %d  # %s\n",
		best.Distance.Diff.Primary, best.Distance.Diff.Secondary,
		best.Distance.Complexity, best.Distance.Penalty, versionText)
	if err := os.WriteFile(outputPath+".metric", []byte(sidecar), 0644); err != nil {
		return fmt.Errorf("writing metric sidecar: %w", err)
	}
	return nil
}

// formatterVersion runs "exe --version" and returns its trimmed first line,
// or "unknown" if the formatter does not support the flag or cannot launch.
func formatterVersion(exe string) string {
	res := runner.Run(context.Background(), exe, []string{"--version"}, nil, runner.DefaultTimeout)
	if res.OSError != "" || res.ExitCode != 0 {
		return "unknown"
	}
	text := strings.TrimSpace(string(res.Stdout))
	if text == "" {
		return "unknown"
	}
	return strings.SplitN(text, "\n", 2)[0]
}

// applyInferFlags overlays any explicitly-set flags onto cfg, so an absent
// flag always falls back to the loaded config file (or its defaults)
// rather than to a flag package zero value.
func applyInferFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if v, _ := flags.GetString("formatter"); v != "" {
		cfg.Formatter.Executable = v
	}
	if cfg.Formatter.Executable == "" {
		return fmt.Errorf("--formatter is required")
	}

	if flags.Changed("stylediff") {
		cfg.Search.Mode = "stylediff"
	}
	if v, _ := flags.GetString("mode"); v != "" {
		cfg.Search.Mode = v
	}
	if cfg.Search.Mode == "" {
		cfg.Search.Mode = "normal"
	}
	switch cfg.Search.Mode {
	case "normal", "resilient", "stylediff":
	default:
		return fmt.Errorf("--mode must be one of normal/resilient/stylediff, got %q", cfg.Search.Mode)
	}

	if v, _ := flags.GetString("metric"); v != "" {
		cfg.Search.Metric = v
	}
	if names, _ := flags.GetStringArray("ignore-options"); len(names) > 0 {
		cfg.Search.IgnoreOptions = append(cfg.Search.IgnoreOptions, names...)
	}
	if flags.Changed("maxrounds") {
		v, _ := flags.GetInt("maxrounds")
		cfg.Search.MaxRounds = v
	}
	if flags.Changed("accept-from-round") {
		v, _ := flags.GetInt("accept-from-round")
		cfg.Search.AcceptFromRound = v
	}
	if flags.Changed("source-factor") {
		v, _ := flags.GetFloat64("source-factor")
		cfg.Search.SourceFactor = v
	}
	if flags.Changed("variants-factor") {
		v, _ := flags.GetFloat64("variants-factor")
		cfg.Search.VariantsFactor = v
	}

	if v, _ := flags.GetString("concurrency"); v != "" {
		cfg.Concurrency.Mode = v
	}

	if v, _ := flags.GetString("cache"); v == "off" {
		cfg.Cache.Disable = true
	} else if v != "" {
		cfg.Cache.Backend = v
	}
	if v, _ := flags.GetString("cache-path"); v != "" {
		cfg.Cache.Path = v
	}

	if v, _ := flags.GetString("output"); v != "" {
		cfg.Reporting.OutputStyle = v
	}
	if cfg.Reporting.OutputStyle == "" {
		cfg.Reporting.OutputStyle = "style.cfg"
	}
	if err := flags.Set("output", cfg.Reporting.OutputStyle); err != nil {
		return err
	}

	if flags.Changed("metric-save") {
		v, _ := flags.GetBool("metric-save")
		cfg.Reporting.MetricSidecar = v
	} else if err := flags.Set("metric-save", fmt.Sprintf("%t", cfg.Reporting.MetricSidecar)); err != nil {
		return err
	}

	return nil
}

// loadInputFiles reads each path in paths and, for index i, its reference:
// refs[i] if present, else the input's own content (spec §6: "paired with
// references when --references").
func loadInputFiles(paths, refs []string) ([]search.InputFile, error) {
	out := make([]search.InputFile, len(paths))
	for i, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}

		refPath := p
		refContent := content
		if i < len(refs) && refs[i] != "" {
			refPath = refs[i]
			refContent, err = os.ReadFile(refPath)
			if err != nil {
				return nil, fmt.Errorf("reading reference %s: %w", refPath, err)
			}
		}

		out[i] = search.InputFile{
			Path:             p,
			Content:          content,
			ReferencePath:    refPath,
			ReferenceContent: refContent,
		}
	}
	return out, nil
}

// openCacheBackend picks a cache.Backend from cfg.Backend/Path.
func openCacheBackend(cfg config.CacheConfig) (cache.Backend, error) {
	switch cfg.Backend {
	case "directory":
		return cache.OpenDir(cfg.Path)
	case "sqlite", "":
		return cache.OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
