// Package diag provides the diagnostic side-channel for the pipeline: an
// append-only record of failed fetches and entities with missing required
// fields. The sink is constructed once per run and injected into every
// component that reports diagnostics.
package diag

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Sink records diagnostic events. Implementations must be safe to call from
// the single pipeline goroutine; events are never read back by the pipeline.
type Sink interface {
	// FailedURL records a non-success status or transport error for a URL.
	FailedURL(url, reason string)

	// MissingFields records that an entity from the given source lacked
	// required or expected fields. No-op when fields is empty.
	MissingFields(source, url string, fields []string)

	// Close flushes and releases the underlying log files.
	Close() error
}

// FileSink writes diagnostics to two append-only log files under a base
// directory, mirroring failed_urls.log and missing_fields.log.
type FileSink struct {
	failedFile  *os.File
	missingFile *os.File
	failed      zerolog.Logger
	missing     zerolog.Logger
}

// NewFileSink opens (or creates) the diagnostic logs under dir.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	open := func(name string) (*os.File, error) {
		return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}

	failedFile, err := open("failed_urls.log")
	if err != nil {
		return nil, err
	}
	missingFile, err := open("missing_fields.log")
	if err != nil {
		failedFile.Close()
		return nil, err
	}

	return &FileSink{
		failedFile:  failedFile,
		missingFile: missingFile,
		failed:      zerolog.New(failedFile).With().Timestamp().Logger(),
		missing:     zerolog.New(missingFile).With().Timestamp().Logger(),
	}, nil
}

func (s *FileSink) FailedURL(url, reason string) {
	s.failed.Info().Str("url", url).Str("reason", reason).Msg("fetch failed")
}

func (s *FileSink) MissingFields(source, url string, fields []string) {
	if len(fields) == 0 {
		return
	}
	s.missing.Info().
		Str("source", source).
		Str("url", url).
		Str("missing", strings.Join(fields, ", ")).
		Msg("missing fields")
}

func (s *FileSink) Close() error {
	err := s.failedFile.Close()
	if cerr := s.missingFile.Close(); err == nil {
		err = cerr
	}
	return err
}

// NopSink discards all events. Used in tests and as a fallback when the
// diagnostic directory cannot be created.
type NopSink struct{}

func (NopSink) FailedURL(string, string)               {}
func (NopSink) MissingFields(string, string, []string) {}
func (NopSink) Close() error                           { return nil }
