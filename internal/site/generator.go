// Package site turns discovered content units into a static HTML tree.
//
// The pipeline is strictly linear: discover, parse, plan, render, assemble.
// Unit-scoped problems exclude one unit and are recorded as report issues;
// stage-scoped problems abort the build. Output is written into a staging
// directory and promoted atomically on success.
package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/layouts"
	"git.home.luguber.info/inful/sitebuilder/internal/linkcheck"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// ContentFetcher updates a local checkout of remote content before a build.
// Implemented by the git package; injected so builds from a local tree carry
// no git machinery.
type ContentFetcher interface {
	Fetch(ctx context.Context, url, branch, dir string) error
}

// Generator orchestrates the build pipeline for one site.
type Generator struct {
	cfg       *config.Config
	outputDir string
	stageDir  string
	renderer  *markdown.Renderer
	recorder  metrics.Recorder
	fetcher   ContentFetcher
}

// Option configures optional Generator collaborators.
type Option func(*Generator)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithFetcher attaches the content fetcher used when content.source is git.
func WithFetcher(f ContentFetcher) Option {
	return func(g *Generator) { g.fetcher = f }
}

// NewGenerator creates a generator writing into outputDir.
func NewGenerator(cfg *config.Config, outputDir string, opts ...Option) *Generator {
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}
	g := &Generator{
		cfg:       cfg,
		outputDir: outputDir,
		renderer:  markdown.NewRenderer(),
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OutputDir returns the promoted output location.
func (g *Generator) OutputDir() string { return g.outputDir }

// Build runs the full pipeline and returns its report. The returned error is
// non-nil only for stage-scoped failures; per-unit failures are carried in the
// report (check Report.HasFailures for exit status).
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	report := newBuildReport()
	bs := newBuildState(g, report)

	slog.Info("Starting site build", logfields.BuildID(report.BuildID), logfields.Output(g.outputDir))

	if err := g.beginStaging(); err != nil {
		se := newFatalStageError("prepare_staging", err)
		report.Errors = append(report.Errors, se)
		g.finishReport(report)
		return report, se
	}

	err := runStages(ctx, bs, []namedStage{
		{StageFetchContent, stageFetchContent},
		{StageDiscover, stageDiscoverContent},
		{StageParseUnits, stageParseUnits},
		{StageLoadLayouts, stageLoadLayouts},
		{StagePlanOutputs, stagePlanOutputs},
		{StageRenderPages, stageRenderPages},
		{StageGenerateIndex, stageGenerateIndex},
		{StageLinkCheck, stageLinkCheck},
		{StageWriteManifest, stageWriteManifest},
	})
	if err != nil {
		g.abortStaging()
		g.finishReport(report)
		return report, err
	}

	if err := g.finalizeStaging(); err != nil {
		se := newFatalStageError("promote_staging", err)
		report.Errors = append(report.Errors, se)
		g.abortStaging()
		g.finishReport(report)
		return report, se
	}

	g.finishReport(report)
	if err := report.Persist(g.outputDir); err != nil {
		slog.Warn("Failed to persist build report", logfields.Error(err))
	}

	slog.Info("Site build finished", logfields.BuildID(report.BuildID), "summary", report.Summary())
	return report, nil
}

func (g *Generator) finishReport(r *BuildReport) {
	r.finish()
	r.deriveOutcome()
	g.recorder.ObserveBuildDuration(r.End.Sub(r.Start))
	g.recorder.IncBuildOutcome(string(r.Outcome))
	g.recorder.SetUnitsDiscovered(r.Units)
	g.recorder.SetPagesRendered(r.Rendered + r.Carried)
	for _, is := range r.Issues {
		g.recorder.IncUnitIssue(string(is.Code))
	}
}

// addUnitIssue records a unit-scoped problem without failing the stage.
func (bs *BuildState) addUnitIssue(code IssueCode, stage string, severity IssueSeverity, page, msg string) {
	bs.Report.AddIssue(code, stage, severity, page, msg)
	slog.Warn("Unit issue", logfields.Stage(stage), logfields.Page(page),
		slog.String("code", string(code)), slog.String("message", msg))
}

func stageFetchContent(ctx context.Context, bs *BuildState) error {
	cfg := bs.Generator.cfg
	if cfg.Content.Source != config.SourceGit {
		return nil
	}
	if bs.Generator.fetcher == nil {
		return newFatalStageError(StageFetchContent, fmt.Errorf("content.source is git but no fetcher is configured"))
	}
	if err := bs.Generator.fetcher.Fetch(ctx, cfg.Content.Repo.URL, cfg.Content.Repo.Branch, cfg.Content.Dir); err != nil {
		bs.Report.AddIssue(IssueContentFetch, StageFetchContent, SeverityError, "", err.Error())
		return newFatalStageError(StageFetchContent, err)
	}
	return nil
}

func stageDiscoverContent(_ context.Context, bs *BuildState) error {
	cfg := bs.Generator.cfg
	discovery := content.NewDiscovery(cfg.Content.Dir, cfg.Content.PostsDir)
	files, err := discovery.Discover()
	if err != nil {
		return newFatalStageError(StageDiscover, err)
	}
	bs.Files = files
	bs.Report.Units = len(files)
	return nil
}

func stageParseUnits(ctx context.Context, bs *BuildState) error {
	cfg := bs.Generator.cfg
	units := make([]*content.Unit, 0, len(bs.Files))
	for i := range bs.Files {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageParseUnits, ctx.Err())
		default:
		}

		f := &bs.Files[i]
		u, err := content.ParseUnit(f)
		if err != nil {
			code := IssueFrontmatterInvalid
			if errors.Is(err, frontmatter.ErrMissingClosingDelimiter) {
				code = IssueFrontmatterMalformed
			}
			bs.addUnitIssue(code, StageParseUnits, SeverityError, f.RelativePath, err.Error())
			continue
		}
		if u.Meta.Draft && !cfg.Build.Drafts {
			slog.Debug("Skipping draft", logfields.Page(f.RelativePath))
			continue
		}
		units = append(units, u)
	}
	bs.Units = units
	return nil
}

func stageLoadLayouts(_ context.Context, bs *BuildState) error {
	cfg := bs.Generator.cfg
	store, err := layouts.NewStore(cfg.Layouts.Dir, cfg.Layouts.Default, layouts.SiteData{
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
		BaseURL:     cfg.Site.BaseURL,
	})
	if err != nil {
		return newFatalStageError(StageLoadLayouts, err)
	}
	bs.Layouts = store

	siteHash, err := siteInputHash(cfg)
	if err != nil {
		return newFatalStageError(StageLoadLayouts, err)
	}
	bs.Next = manifest.New(siteHash)

	if cfg.Build.Incremental {
		prev, err := manifest.Load(filepath.Join(bs.Generator.outputDir, manifest.FileName))
		if err != nil {
			// A corrupt manifest only costs a full rebuild.
			slog.Warn("Ignoring unreadable manifest", logfields.Error(err))
		} else if prev != nil && prev.SiteHash == siteHash {
			bs.Previous = prev
		} else if prev != nil {
			slog.Info("Layouts or site config changed; full rebuild")
		}
	}
	return nil
}

// siteInputHash couples the manifest to everything that affects every page:
// layout templates plus the site-level config.
func siteInputHash(cfg *config.Config) (string, error) {
	cfgBytes, err := json.Marshal(struct {
		Site    config.SiteConfig
		Layouts config.LayoutsConfig
	}{cfg.Site, cfg.Layouts})
	if err != nil {
		return "", fmt.Errorf("marshal site config for hash: %w", err)
	}
	return manifest.SiteHash(cfg.Layouts.Dir, cfgBytes)
}

func stagePlanOutputs(_ context.Context, bs *BuildState) error {
	plan, collisions := BuildPlan(bs.Units)
	for _, c := range collisions {
		bs.addUnitIssue(IssueOutputCollision, StagePlanOutputs, SeverityError, c.Second, c.Error())
	}
	bs.Plan = plan
	return nil
}

func stageRenderPages(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	for _, entry := range bs.Plan.Entries() {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageRenderPages, ctx.Err())
		default:
		}

		u := entry.Unit
		rel := u.File.RelativePath

		fingerprint, err := manifest.Fingerprint(u.Fields, u.Body)
		if err != nil {
			bs.addUnitIssue(IssueRenderFailure, StageRenderPages, SeverityError, rel, err.Error())
			continue
		}

		if prevUnit, ok := bs.Previous.Lookup(rel, fingerprint); ok && prevUnit.Output == entry.Output {
			if err := g.carryStaged(entry.Output); err == nil {
				bs.Report.Carried++
				bs.Next.Record(rel, manifest.Unit{Fingerprint: fingerprint, Output: entry.Output})
				slog.Debug("Carried unchanged page", logfields.Page(rel), logfields.Output(entry.Output))
				continue
			}
			// Previous output vanished; fall through to a fresh render.
		}

		html, err := g.composePage(bs.Layouts, u, entry.Permalink)
		if err != nil {
			var nf *layouts.NotFoundError
			if errors.As(err, &nf) {
				bs.addUnitIssue(IssueLayoutNotFound, StageRenderPages, SeverityError, rel, err.Error())
			} else {
				bs.addUnitIssue(IssueRenderFailure, StageRenderPages, SeverityError, rel, err.Error())
			}
			continue
		}

		if err := g.writeStaged(entry.Output, html); err != nil {
			bs.addUnitIssue(IssueWriteFailure, StageRenderPages, SeverityError, rel, err.Error())
			continue
		}

		bs.Report.Rendered++
		bs.Next.Record(rel, manifest.Unit{Fingerprint: fingerprint, Output: entry.Output})
		slog.Debug("Rendered page", logfields.Page(rel),
			logfields.Permalink(entry.Permalink), logfields.Output(entry.Output))
	}
	return nil
}

// composePage renders a unit's markdown body and wraps it in its layout.
func (g *Generator) composePage(store *layouts.Store, u *content.Unit, permalink string) ([]byte, error) {
	body, err := g.renderer.Render(u.Body)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = store.Execute(&buf, u.Meta.Layout, layouts.PageData{
		Title:        u.Meta.Title,
		Permalink:    permalink,
		FeatureImage: u.Meta.FeatureImage,
		Date:         u.Meta.Date,
		Content:      template.HTML(body),
		Extra:        u.Meta.Extra,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stageLinkCheck(_ context.Context, bs *BuildState) error {
	if !bs.Generator.cfg.Build.LinkCheck {
		return nil
	}
	broken, err := linkcheck.Check(bs.Generator.stageDir)
	if err != nil {
		return newWarnStageError(StageLinkCheck, err)
	}
	for _, b := range broken {
		bs.Report.AddIssue(IssueBrokenLink, StageLinkCheck, SeverityWarning, b.Source,
			fmt.Sprintf("link target %s does not resolve", b.URL))
	}
	if len(broken) > 0 {
		slog.Warn("Broken internal links found", logfields.Count(len(broken)))
	}
	return nil
}

func stageWriteManifest(_ context.Context, bs *BuildState) error {
	if bs.Next == nil {
		return nil
	}
	path := filepath.Join(bs.Generator.stageDir, manifest.FileName)
	if err := bs.Next.Save(path); err != nil {
		return newWarnStageError(StageWriteManifest, err)
	}
	return nil
}
