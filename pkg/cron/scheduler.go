// Package cron scans a statement inbox on a schedule using robfig/cron.
package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// Importer imports one statement file from the inbox.
type Importer interface {
	ImportFile(ctx context.Context, path string) error
}

// Scheduler manages the inbox scan job.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	inbox    string
	importer Importer
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that imports the files found in inbox
// on the standard 5-field cron spec. Overlapping runs are skipped.
func NewScheduler(spec, inbox string, importer Importer, timeout time.Duration, logger *slog.Logger) *Scheduler {
	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:     c,
		spec:     spec,
		inbox:    inbox,
		importer: importer,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start begins scheduled scans.
func (s *Scheduler) Start() error {
	for _, dir := range []string{s.inbox, filepath.Join(s.inbox, processedDir), filepath.Join(s.inbox, failedDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create inbox directory: %w", err)
		}
	}

	if _, err := s.cron.AddFunc(s.spec, func() { s.ScanInbox(context.Background()) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("inbox scheduler started",
		slog.String("inbox", s.inbox),
		slog.String("schedule", s.spec),
	)
	return nil
}

// Stop gracefully stops the scheduler. The returned context is done once a
// running scan has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("inbox scheduler stopping")
	return s.cron.Stop()
}

// ScanInbox imports every statement waiting in the inbox, oldest name
// first. Imported files move to processed/, failures to failed/.
func (s *Scheduler) ScanInbox(ctx context.Context) (imported, failed int) {
	entries, err := os.ReadDir(s.inbox)
	if err != nil {
		s.logger.Error("failed to read inbox", slog.Any("error", err))
		return 0, 0
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	for _, name := range names {
		path := filepath.Join(s.inbox, name)
		if err := s.importOne(ctx, path); err != nil {
			s.logger.Warn("statement import failed",
				slog.String("file", name),
				slog.Any("error", err),
			)
			failed++
			s.move(path, failedDir)
			continue
		}
		imported++
		s.move(path, processedDir)
	}

	if len(names) > 0 {
		s.logger.Info("inbox scan completed",
			slog.Int("imported", imported),
			slog.Int("failed", failed),
		)
	}
	return imported, failed
}

func (s *Scheduler) importOne(ctx context.Context, path string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.importer.ImportFile(ctx, path)
}

func (s *Scheduler) move(path, dir string) {
	target := filepath.Join(s.inbox, dir, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(target)
		target = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(target, ext), time.Now().UnixNano(), ext)
	} else if !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to stat inbox target", slog.Any("error", err))
	}
	if err := os.Rename(path, target); err != nil {
		s.logger.Error("failed to move statement",
			slog.String("file", path),
			slog.Any("error", err),
		)
	}
}
