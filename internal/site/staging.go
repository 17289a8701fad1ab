package site

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// beginStaging creates an isolated staging directory for atomic build output.
func (g *Generator) beginStaging() error {
	// Sibling of the output dir, never inside it.
	stage := g.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return fmt.Errorf("clear stale staging directory: %w", err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	g.stageDir = stage
	slog.Debug("Initialized staging directory", "staging", stage, "final", g.outputDir)
	return nil
}

// finalizeStaging atomically promotes the staging directory to the final
// output location. The previous output is moved aside first and removed
// asynchronously, so readers never observe a half-written tree.
func (g *Generator) finalizeStaging() error {
	if g.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	if _, err := os.Stat(g.stageDir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	prev := g.outputDir + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove stale backup: %w", err)
	}
	if _, err := os.Stat(g.outputDir); err == nil {
		if err := os.Rename(g.outputDir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(g.stageDir, g.outputDir); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	g.stageDir = ""

	// Removing the backup is non-critical.
	go func(p string) {
		if err := os.RemoveAll(p); err != nil {
			slog.Warn("Failed to remove previous output backup", logfields.Path(p), logfields.Error(err))
		}
	}(prev)

	slog.Info("Promoted staging directory", logfields.Output(g.outputDir))
	return nil
}

// abortStaging removes the staging directory after a failed build so no
// orphaned temp trees accumulate.
func (g *Generator) abortStaging() {
	if g.stageDir == "" {
		return
	}
	dir := g.stageDir
	g.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", "staging", dir, logfields.Error(err))
	}
}

// writeStaged writes one file under the staging root, creating parents.
func (g *Generator) writeStaged(rel string, data []byte) error {
	dst := filepath.Join(g.stageDir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create output directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// carryStaged copies a previously built page from the promoted output tree
// into staging, used by incremental builds for unchanged units.
func (g *Generator) carryStaged(rel string) error {
	src := filepath.Join(g.outputDir, rel)
	dst := filepath.Join(g.stageDir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create output directory for %s: %w", rel, err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open previous output %s: %w", rel, err)
	}
	defer func() { _ = in.Close() }()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", rel, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy previous output %s: %w", rel, err)
	}
	return out.Close()
}
