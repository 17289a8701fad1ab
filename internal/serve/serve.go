package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Run builds once, then serves the output and rebuilds on change until ctx is
// canceled. The initial build may fail without aborting serve mode: the next
// successful build replaces whatever was last promoted.
func (s *Server) Run(ctx context.Context) error {
	s.runBuild(ctx, "startup")

	watcher, err := newWatcher(s.cfg.Content.Dir, s.cfg.Layouts.Dir)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	go s.rebuildWorker(ctx)
	go s.watchLoop(ctx, watcher, s.newDebouncer())

	scheduler, err := s.startScheduler()
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				slog.Warn("Scheduler shutdown error", logfields.Error(err))
			}
		}()
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.Serve.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// SSE connections are long-lived; no write timeout.
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Serving site", "addr", s.cfg.Serve.Addr, logfields.Output(s.gen.OutputDir()))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down serve mode")
	s.hub.Shutdown()
	s.shutdownHTTP()
	return nil
}

// startScheduler sets up interval full rebuilds when configured. Returns nil
// when scheduled rebuilds are disabled.
func (s *Server) startScheduler() (gocron.Scheduler, error) {
	interval, err := s.cfg.Serve.RebuildIntervalDuration()
	if err != nil {
		return nil, err
	}
	if interval == 0 {
		return nil, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Info("Scheduled rebuild triggered", logfields.ScheduleName("interval"))
			select {
			case s.rebuildReq <- struct{}{}:
			default:
			}
		}),
		gocron.WithName("interval-rebuild"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule interval rebuild: %w", err)
	}

	scheduler.Start()
	slog.Info("Scheduled rebuilds enabled", "interval", interval.String())
	return scheduler, nil
}

// runBuild executes one build and fans the outcome out to the hub, history,
// and NATS. Build failures are logged, not returned: serve mode keeps the
// last good output.
func (s *Server) runBuild(ctx context.Context, reason string) {
	slog.Info("Rebuilding site", "reason", reason)

	report, err := s.gen.Build(ctx)
	if err != nil {
		slog.Error("Build failed", logfields.Error(err))
	} else if report.HasFailures() {
		slog.Warn("Build finished with failed units", "summary", report.Summary())
	} else {
		slog.Info("Build finished", "summary", report.Summary())
	}

	// Only promoted builds change what clients see.
	if err == nil {
		s.hub.Broadcast(report.BuildID)
	}

	if s.history != nil {
		if herr := s.history.RecordBuild(ctx, report); herr != nil {
			slog.Warn("Failed to record build history", logfields.Error(herr))
		}
	}
	if s.publisher != nil {
		if perr := s.publisher.PublishBuild(ctx, report); perr != nil {
			slog.Warn("Failed to publish build event", logfields.Error(perr))
		}
	}
}
