// Package logging provides the rotated on-disk frame log. When a log
// directory is configured, every emitted frame line is appended to a daily
// file; the previous day's file is gzip-compressed on rotation.
package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogRotator writes to a daily frame log file and compresses rotated-out
// files. It implements io.Writer so a frame writer can sit on top of it.
type LogRotator struct {
	logDir string
	useUTC bool
	logger *logrus.Logger

	mu          sync.Mutex
	currentFile *os.File
	currentDate string
}

// NewLogRotator creates the rotator and opens today's log file.
func NewLogRotator(logDir string, useUTC bool, logger *logrus.Logger) (*LogRotator, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	r := &LogRotator{
		logDir: logDir,
		useUTC: useUTC,
		logger: logger,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.rotate(); err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return r, nil
}

// Write appends to the current day's file, rotating first when the date
// has changed.
func (r *LogRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if date := r.now().Format("2006-01-02"); date != r.currentDate {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}
	return r.currentFile.Write(p)
}

// Close closes the current log file.
func (r *LogRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentFile == nil {
		return nil
	}
	err := r.currentFile.Close()
	r.currentFile = nil
	return err
}

func (r *LogRotator) now() time.Time {
	if r.useUTC {
		return time.Now().UTC()
	}
	return time.Now()
}

// rotate closes the current file, compresses it in the background and
// opens the file for the current date. Callers hold the mutex.
func (r *LogRotator) rotate() error {
	newDate := r.now().Format("2006-01-02")

	if r.currentFile != nil {
		oldPath := r.currentFile.Name()
		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old log file")
		}
		r.logger.WithFields(logrus.Fields{
			"old_date": r.currentDate,
			"new_date": newDate,
		}).Info("Rotating frame log")
		go r.compress(oldPath)
	}

	path := filepath.Join(r.logDir, fmt.Sprintf("frames-%s.log", newDate))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	r.currentFile = f
	r.currentDate = newDate
	return nil
}

// compress gzips a rotated-out log file and removes the original.
func (r *LogRotator) compress(path string) {
	src, err := os.Open(path)
	if err != nil {
		r.logger.WithError(err).Error("Failed to open rotated log for compression")
		return
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		r.logger.WithError(err).Error("Failed to create compressed log")
		return
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		r.logger.WithError(err).Error("Failed to compress rotated log")
		return
	}
	if err := gz.Close(); err != nil {
		r.logger.WithError(err).Error("Failed to finalize compressed log")
		return
	}
	if err := os.Remove(path); err != nil {
		r.logger.WithError(err).Error("Failed to remove uncompressed log")
	}
}
