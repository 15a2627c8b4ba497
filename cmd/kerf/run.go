package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kerf/internal/aggregate"
	"kerf/internal/cache"
	"kerf/internal/config"
	"kerf/internal/filter"
	"kerf/internal/interp"
	"kerf/internal/message"
	"kerf/internal/report"
	"kerf/internal/waiver"
)

func init() {
	f := rootCmd.Flags()
	f.String("plugin", "", "force a specific interpreter (bypasses auto-detection)")
	f.String("severity", "", "show only messages at or above this severity")
	f.StringArray("filter", nil, "regex pattern to include matching messages (repeatable)")
	f.String("match", "all", "how multiple --filter patterns combine (all|any)")
	f.BoolP("ignore-case", "i", false, "case-insensitive --filter matching")
	f.StringArray("suppress", nil, "regex pattern to exclude matching messages (repeatable)")
	f.StringArray("suppress-id", nil, "message ID to exclude (repeatable)")
	f.String("config", "", "path to a kerf TOML config file")
	f.Bool("ci", false, "CI mode: exit 1 when unwaived messages reach the failure threshold")
	f.Bool("strict", false, "with --ci, fail on warnings too")
	f.String("fail-on", "", "with --ci, severity id that fails the run (overrides --strict)")
	f.String("waivers", "", "path to a TOML waiver file")
	f.Bool("show-waived", false, "list waived messages in CI output")
	f.Bool("report-unused", false, "report waivers that matched nothing")
	f.String("report", "", "write a JSON CI report to this path")
	f.Bool("summary", false, "print a per-severity summary instead of messages")
	f.String("group-by", "", "group messages by a field (severity|id|file|category) instead of listing them")
	f.Bool("stats", false, "print filter match statistics")
	f.Bool("cache", false, "cache parsed messages on disk, keyed by file content")
	f.Int("jobs", 0, "max parallel workers for multiple files in CI mode (0=auto)")
}

type triageOptions struct {
	plugin       string
	severity     string
	filters      []string
	matchMode    filter.Mode
	ignoreCase   bool
	suppress     []string
	suppressIDs  []string
	ci           bool
	strict       bool
	failOn       string
	waiversPath  string
	showWaived   bool
	reportUnused bool
	reportPath   string
	summary      bool
	groupBy      string
	stats        bool
	quiet        bool
	useColor     bool
	jobs         int
}

func gatherOptions(cmd *cobra.Command, cfg config.Config) (triageOptions, error) {
	var opts triageOptions
	var err error
	flags := cmd.Flags()

	if opts.plugin, err = flags.GetString("plugin"); err != nil {
		return opts, err
	}
	if opts.plugin == "" {
		opts.plugin = cfg.General.DefaultPlugin
	}
	if opts.severity, err = flags.GetString("severity"); err != nil {
		return opts, err
	}
	if opts.filters, err = flags.GetStringArray("filter"); err != nil {
		return opts, err
	}
	match, err := flags.GetString("match")
	if err != nil {
		return opts, err
	}
	switch match {
	case "all":
		opts.matchMode = filter.ModeAll
	case "any":
		opts.matchMode = filter.ModeAny
	default:
		return opts, fmt.Errorf("unknown --match mode %q (want all or any)", match)
	}
	if opts.ignoreCase, err = flags.GetBool("ignore-case"); err != nil {
		return opts, err
	}
	if opts.suppress, err = flags.GetStringArray("suppress"); err != nil {
		return opts, err
	}
	opts.suppress = append(append([]string{}, cfg.Suppress.Patterns...), opts.suppress...)
	if opts.suppressIDs, err = flags.GetStringArray("suppress-id"); err != nil {
		return opts, err
	}
	opts.suppressIDs = append(append([]string{}, cfg.Suppress.MessageIDs...), opts.suppressIDs...)
	if opts.ci, err = flags.GetBool("ci"); err != nil {
		return opts, err
	}
	if opts.strict, err = flags.GetBool("strict"); err != nil {
		return opts, err
	}
	if opts.failOn, err = flags.GetString("fail-on"); err != nil {
		return opts, err
	}
	if opts.waiversPath, err = flags.GetString("waivers"); err != nil {
		return opts, err
	}
	if opts.showWaived, err = flags.GetBool("show-waived"); err != nil {
		return opts, err
	}
	if opts.reportUnused, err = flags.GetBool("report-unused"); err != nil {
		return opts, err
	}
	if opts.reportPath, err = flags.GetString("report"); err != nil {
		return opts, err
	}
	if opts.summary, err = flags.GetBool("summary"); err != nil {
		return opts, err
	}
	if opts.groupBy, err = flags.GetString("group-by"); err != nil {
		return opts, err
	}
	if opts.stats, err = flags.GetBool("stats"); err != nil {
		return opts, err
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, err
	}
	if opts.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return opts, err
	}
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return opts, err
	}
	opts.useColor = resolveColor(colorMode, cfg.Output.Color)
	return opts, nil
}

func runTriage(cmd *cobra.Command, args []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	opts, err := gatherOptions(cmd, cfg)
	if err != nil {
		return err
	}

	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return err
	}
	var store *cache.Cache
	if useCache {
		store, err = cache.Open("kerf")
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
	}

	registry := newRegistry()

	failed := false
	if opts.ci && len(args) > 1 {
		// Batch CI: files are independent invocations, fanned out in
		// parallel with buffered output so results print in arg order.
		outputs := make([]bytes.Buffer, len(args))
		fails := make([]bool, len(args))
		var g errgroup.Group
		jobs := opts.jobs
		if jobs <= 0 {
			jobs = runtime.NumCPU()
		}
		g.SetLimit(jobs)
		for i, path := range args {
			i, path := i, path
			g.Go(func() error {
				f, err := triageFile(&outputs[i], registry, store, opts, path)
				fails[i] = f
				return err
			})
		}
		err := g.Wait()
		for i := range outputs {
			io.Copy(os.Stdout, &outputs[i])
		}
		if err != nil {
			return err
		}
		for _, f := range fails {
			failed = failed || f
		}
	} else {
		for _, path := range args {
			f, err := triageFile(os.Stdout, registry, store, opts, path)
			if err != nil {
				return err
			}
			failed = failed || f
		}
	}

	if failed {
		// Verdict already printed; suppress cobra's error output.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

// triageFile runs the full pipeline for one log file and reports whether
// the CI verdict failed. Selection and I/O problems are returned as
// errors and abort the run with no partial verdict.
func triageFile(w io.Writer, registry *interp.Registry, store *cache.Cache, opts triageOptions, path string) (bool, error) {
	ipr, err := registry.Select(path, opts.plugin)
	if err != nil {
		return false, err
	}
	sevs := ipr.SeverityLevels()

	msgs, err := parseWithCache(store, ipr, path)
	if err != nil {
		return false, err
	}

	printer := report.NewPrinter(w, opts.useColor, sevs)

	display, err := displayPipeline(msgs, opts, sevs)
	if err != nil {
		return false, err
	}

	var eng *waiver.Engine
	if opts.waiversPath != "" {
		wf, verrs, err := waiver.Load(opts.waiversPath)
		if err != nil {
			return false, err
		}
		for _, ve := range verrs {
			fmt.Fprintf(os.Stderr, "warning: %v\n", ve)
		}
		eng = waiver.NewEngine(wf.Waivers, time.Now())
	}

	switch {
	case opts.summary:
		printer.Summary(aggregate.Summary(display, sevs), sevs)
	case opts.groupBy != "":
		printer.Groups(aggregate.GroupBy(opts.groupBy, display, sevs))
	case opts.quiet:
	default:
		printer.Messages(display)
	}
	if opts.stats {
		defs := ipr.DefaultFilters()
		printer.Stats(filter.ComputeStats(defs, display), defs)
	}

	if !opts.ci {
		if opts.reportUnused && eng != nil {
			// Match waivers even without a verdict so the stale report
			// reflects this log.
			for i := range msgs {
				eng.Match(&msgs[i])
			}
			printer.StaleWaivers(eng.Unused(), eng.Expired())
		}
		return false, nil
	}

	threshold, err := failThreshold(opts, sevs)
	if err != nil {
		return false, err
	}
	// The verdict sees every parsed message: suppressions and display
	// filters hide output but never change pass/fail.
	verdict := waiver.Evaluate(msgs, eng, sevs, threshold)
	printer.Verdict(verdict, opts.showWaived)
	if opts.reportUnused && eng != nil {
		printer.StaleWaivers(eng.Unused(), eng.Expired())
	}
	if opts.reportPath != "" {
		rep := report.BuildCIReport(path, ipr.Name(), ipr.Name(), opts.strict, msgs, verdict, eng, time.Now())
		if err := report.WriteJSON(opts.reportPath, rep); err != nil {
			return false, err
		}
	}
	return !verdict.Pass(), nil
}

func parseWithCache(store *cache.Cache, ipr interp.Interpreter, path string) ([]message.Message, error) {
	if store == nil {
		return ipr.Parse(path)
	}
	key, err := cache.Key(path, ipr.Name())
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}
	if msgs, ok := store.Get(key); ok {
		return msgs, nil
	}
	msgs, err := ipr.Parse(path)
	if err != nil {
		return nil, err
	}
	if err := store.Put(key, ipr.Name(), msgs); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cache write: %v\n", err)
	}
	return msgs, nil
}

// displayPipeline applies severity gating, include filters and
// suppressions, in that order. Bad ad-hoc patterns are reported per
// pattern and the rest still apply.
func displayPipeline(msgs []message.Message, opts triageOptions, sevs message.SeveritySet) ([]message.Message, error) {
	display := msgs

	if opts.severity != "" {
		min, ok := sevs.Lookup(opts.severity)
		if !ok {
			return nil, fmt.Errorf("unknown severity %q (available: %s)", opts.severity, severityIDs(sevs))
		}
		var kept []message.Message
		for i := range display {
			if sevs.AtOrAbove(display[i].Severity, min.Level) {
				kept = append(kept, display[i])
			}
		}
		display = kept
	}

	if len(opts.filters) > 0 {
		var defs []*filter.Definition
		for i, p := range opts.filters {
			if opts.ignoreCase {
				p = "(?i)" + p
			}
			d, err := filter.New(fmt.Sprintf("user-%d", i+1), p, p)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
				continue
			}
			d.Source = "user"
			defs = append(defs, d)
		}
		display = filter.ApplyAll(defs, display, opts.matchMode)
	}

	var errs []error
	display, errs = filter.Suppress(opts.suppress, display)
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	display = filter.SuppressIDs(opts.suppressIDs, display)
	return display, nil
}

// failThreshold resolves the CI failure severity to a numeric level
// through the interpreter's severity set. Default is "error",
// --strict moves it to "warning", --fail-on overrides both.
func failThreshold(opts triageOptions, sevs message.SeveritySet) (int, error) {
	id := opts.failOn
	if id == "" {
		if opts.strict {
			id = "warning"
		} else {
			id = "error"
		}
	}
	l, ok := sevs.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("failure severity %q is not defined by this interpreter (available: %s)", id, severityIDs(sevs))
	}
	return l.Level, nil
}

func severityIDs(sevs message.SeveritySet) string {
	ids := make([]string, 0, sevs.Len())
	for _, l := range sevs.Levels() {
		ids = append(ids, l.ID)
	}
	return strings.Join(ids, ", ")
}
