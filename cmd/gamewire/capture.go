package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/gamewire/pkg/capture"
)

// captureSession records a serve session into a temporary file and uploads
// it to a store when finished.
type captureSession struct {
	store    capture.Store
	file     *os.File
	recorder *capture.Recorder
	key      string
	started  time.Time
	logger   *slog.Logger
}

// captureKey names a session's capture: "2024/06/01/<uuid>.gwcp".
func captureKey(started time.Time, id uuid.UUID) string {
	return fmt.Sprintf("%s/%s.gwcp", started.UTC().Format("2006/01/02"), id)
}

func startCapture(store capture.Store, logger *slog.Logger) (*captureSession, error) {
	f, err := os.CreateTemp("", "gamewire-*.gwcp")
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &captureSession{
		store:    store,
		file:     f,
		recorder: capture.NewRecorder(f),
		key:      captureKey(now, uuid.New()),
		started:  now,
		logger:   logger,
	}
	logger.Info("recording", "key", s.key, "file", f.Name())
	return s, nil
}

// finish closes the capture file and uploads it. Empty captures are
// discarded.
func (s *captureSession) finish(ctx context.Context) error {
	defer os.Remove(s.file.Name())
	if err := s.file.Close(); err != nil {
		return err
	}
	n := s.recorder.Count()
	if n == 0 {
		s.logger.Info("no packets captured")
		return nil
	}
	if err := capture.Upload(ctx, s.store, s.key, s.file.Name()); err != nil {
		return err
	}
	s.logger.Info("capture uploaded", "key", s.key, "packets", n, "duration", time.Since(s.started).Round(time.Millisecond))
	return nil
}
