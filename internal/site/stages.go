package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/layouts"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Stage names, in pipeline order.
const (
	StageFetchContent  = "fetch_content"
	StageDiscover      = "discover_content"
	StageParseUnits    = "parse_units"
	StageLoadLayouts   = "load_layouts"
	StagePlanOutputs   = "plan_outputs"
	StageRenderPages   = "render_pages"
	StageGenerateIndex = "generate_index"
	StageLinkCheck     = "link_check"
	StageWriteManifest = "write_manifest"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildState carries mutable state across stages of one build.
type BuildState struct {
	Generator *Generator
	Report    *BuildReport

	Files   []content.File  // discovered source files
	Units   []*content.Unit // parsed units surviving per-unit validation
	Layouts *layouts.Store
	Plan    *Plan

	Previous *manifest.Manifest // manifest of the prior build, nil without incremental
	Next     *manifest.Manifest // manifest being assembled for this build

	start time.Time
}

func newBuildState(g *Generator, report *BuildReport) *BuildState {
	return &BuildState{Generator: g, Report: report, start: time.Now()}
}

type namedStage struct {
	name string
	fn   Stage
}

// stageResultLabel maps a stage error classification to its counter label.
func stageResultLabel(kind StageErrorKind) metrics.ResultLabel {
	switch kind {
	case StageErrorWarning:
		return metrics.ResultWarning
	case StageErrorCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFatal
	}
}

// runStages executes stages in order, recording timing and classification,
// stopping on the first fatal or canceled error.
func runStages(ctx context.Context, bs *BuildState, stages []namedStage) error {
	recorder := bs.Generator.recorder
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.StageErrorKinds[st.name] = se.Kind
			recorder.IncStageResult(st.name, metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[st.name] = dur
		recorder.ObserveStageDuration(st.name, dur)

		if err == nil {
			recorder.IncStageResult(st.name, metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Unknown errors abort the build.
			se = newFatalStageError(st.name, err)
		}
		bs.Report.StageErrorKinds[st.name] = se.Kind
		recorder.IncStageResult(st.name, stageResultLabel(se.Kind))

		switch se.Kind {
		case StageErrorWarning:
			bs.Report.Warnings = append(bs.Report.Warnings, se)
		default:
			bs.Report.Errors = append(bs.Report.Errors, se)
			return se
		}
	}
	return nil
}
