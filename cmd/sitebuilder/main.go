package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/git"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/lint"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/serve"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"sitebuilder.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output      string `short:"o" help:"Output directory (overrides config)"`
		Incremental bool   `short:"i" help:"Reuse unchanged pages from the previous build"`
		Drafts      bool   `help:"Include draft content"`
	} `cmd:"" help:"Build the site once"`

	Init struct {
		Dir   string `arg:"" optional:"" help:"Directory to scaffold into" default:"."`
		Force bool   `help:"Overwrite existing files"`
	} `cmd:"" help:"Scaffold a new site (config, layouts, sample content)"`

	List struct {
		Format string `help:"Output format" enum:"text,json" default:"text"`
		Drafts bool   `help:"Include draft content"`
	} `cmd:"" help:"List content units and their planned output paths"`

	Lint struct {
		Fix    bool   `help:"Rewrite stale content fingerprints"`
		DryRun bool   `help:"Show what --fix would rewrite without touching files"`
		Quiet  bool   `short:"q" help:"Only show errors"`
		Format string `help:"Output format" enum:"text,json" default:"text"`
	} `cmd:"" help:"Validate content files"`

	Serve struct {
		Addr string `help:"Listen address (overrides config)"`
	} `cmd:"" help:"Build, serve, and rebuild on change"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild()
	case "init", "init <dir>":
		err = runInit()
	case "list":
		err = runList()
	case "lint":
		err = runLint()
	case "serve":
		err = runServe()
	case "version":
		fmt.Printf("sitebuilder %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}

	if err != nil {
		slog.Error("Command failed", logfields.Error(err))
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(CLI.Config)
}

// newGenerator assembles a generator from config plus command-line overrides.
func newGenerator(cfg *config.Config, opts ...site.Option) *site.Generator {
	if cfg.Content.Source == config.SourceGit {
		fetcher := git.NewFetcher(git.WithToken(os.Getenv("SITEBUILDER_GIT_TOKEN")))
		opts = append(opts, site.WithFetcher(fetcher))
	}
	return site.NewGenerator(cfg, "", opts...)
}

func runBuild() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Build.Output != "" {
		cfg.Output.Dir = CLI.Build.Output
	}
	if CLI.Build.Incremental {
		cfg.Build.Incremental = true
	}
	if CLI.Build.Drafts {
		cfg.Build.Drafts = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := newGenerator(cfg).Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	if report.HasFailures() {
		for _, line := range report.FailureLines() {
			fmt.Fprintln(os.Stderr, line)
		}
		os.Exit(1)
	}
	return nil
}

func runInit() error {
	return config.Init(CLI.Init.Dir, CLI.Config, CLI.Init.Force)
}

// listEntry is the list command's view of one planned page.
type listEntry struct {
	Source    string `json:"source"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Layout    string `json:"layout,omitempty"`
	Permalink string `json:"permalink"`
	Output    string `json:"output"`
	Draft     bool   `json:"draft,omitempty"`
	Error     string `json:"error,omitempty"`
}

func runList() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := content.NewDiscovery(cfg.Content.Dir, cfg.Content.PostsDir).Discover()
	if err != nil {
		return err
	}

	var entries []listEntry
	var units []*content.Unit
	for i := range files {
		f := &files[i]
		u, err := content.ParseUnit(f)
		if err != nil {
			entries = append(entries, listEntry{
				Source: f.RelativePath,
				Kind:   string(f.Kind),
				Error:  err.Error(),
			})
			continue
		}
		if u.Meta.Draft && !CLI.List.Drafts {
			continue
		}
		units = append(units, u)
	}

	plan, collisions := site.BuildPlan(units)
	for _, e := range plan.Entries() {
		entries = append(entries, listEntry{
			Source:    e.Unit.File.RelativePath,
			Kind:      string(e.Unit.File.Kind),
			Title:     e.Unit.Meta.Title,
			Layout:    e.Unit.Meta.Layout,
			Permalink: e.Permalink,
			Output:    e.Output,
			Draft:     e.Unit.Meta.Draft,
		})
	}
	for _, c := range collisions {
		entries = append(entries, listEntry{
			Source: c.Second,
			Error:  c.Error(),
		})
	}

	if CLI.List.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		if e.Error != "" {
			fmt.Printf("%-40s ERROR %s\n", e.Source, e.Error)
			continue
		}
		fmt.Printf("%-40s %-5s %s -> %s\n", e.Source, e.Kind, e.Permalink, e.Output)
	}
	fmt.Printf("\n%d units, %d collisions\n", len(entries)-len(collisions), len(collisions))
	return nil
}

func runLint() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	linter, err := lint.NewLinter(&lint.Config{
		Quiet:  CLI.Lint.Quiet,
		Format: CLI.Lint.Format,
		Fix:    CLI.Lint.Fix,
		DryRun: CLI.Lint.DryRun,
	}, cfg.Layouts.Dir, cfg.Layouts.Default)
	if err != nil {
		return err
	}

	result, err := linter.LintDir(cfg.Content.Dir)
	if err != nil {
		return err
	}

	if CLI.Lint.Fix || CLI.Lint.DryRun {
		fixer := lint.NewFixer(cfg.Content.Dir, CLI.Lint.DryRun)
		if _, err := fixer.Fix(result); err != nil {
			return err
		}
		if CLI.Lint.Fix && !CLI.Lint.DryRun {
			// Report post-fix state.
			fixed := result.Fixed
			if result, err = linter.LintDir(cfg.Content.Dir); err != nil {
				return err
			}
			result.Fixed = fixed
		}
	}

	if err := lint.NewFormatter(CLI.Lint.Format).Format(os.Stdout, result, cfg.Content.Dir); err != nil {
		return err
	}
	if result.HasErrors() {
		os.Exit(1)
	}
	return nil
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Serve.Addr != "" {
		cfg.Serve.Addr = CLI.Serve.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var serveOpts []serve.Option
	var genOpts []site.Option

	if cfg.Serve.Metrics {
		recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		serveOpts = append(serveOpts, serve.WithPrometheus(recorder))
		genOpts = append(genOpts, site.WithRecorder(recorder))
	}

	if cfg.Serve.HistoryDB != "" {
		store, err := history.NewStore(cfg.Serve.HistoryDB)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		serveOpts = append(serveOpts, serve.WithHistory(store))
	}

	if cfg.Serve.NATS.Enabled {
		publisher, err := notify.NewPublisher(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = publisher.Close() }()
		serveOpts = append(serveOpts, serve.WithPublisher(publisher))
	}

	server := serve.NewServer(cfg, newGenerator(cfg, genOpts...), serveOpts...)
	return server.Run(ctx)
}
