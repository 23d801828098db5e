// Package logging configures zerolog for commit-wizard and keeps hosting
// tokens out of log output.
package logging

import (
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// RedactedValue replaces sensitive data.
const RedactedValue = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{
	// GitHub tokens (ghp_, gho_, ghu_, ghs_, ghr_)
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{20,}`),
	// Fine-grained personal access tokens
	regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{20,}`),
	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_.-]{20,}`),
	// Credentials embedded in URLs
	regexp.MustCompile(`://[^/\s:@]+:[^/\s@]+@`),
}

// Redact replaces every sensitive match in s.
func Redact(s string) string {
	for _, p := range sensitivePatterns {
		s = p.ReplaceAllStringFunc(s, func(match string) string {
			// keep the URL scheme and host separators readable
			if strings.HasPrefix(match, "://") {
				return "://" + RedactedValue + "@"
			}
			return RedactedValue
		})
	}
	return s
}

// ContainsSensitiveData reports whether s matches a sensitive pattern.
func ContainsSensitiveData(s string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// SensitiveDataHook flags events whose message carries sensitive data. The
// message itself is redacted by FilteringWriter.
type SensitiveDataHook struct{}

// Run implements zerolog.Hook.
func (SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSensitiveData(msg) {
		e.Bool("contains_filtered_data", true)
	}
}

// FilteringWriter redacts sensitive data in every write.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter wraps w.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write implements io.Writer. It reports len(p) on success so callers do not
// see the redacted length.
func (f *FilteringWriter) Write(p []byte) (int, error) {
	if _, err := f.w.Write([]byte(Redact(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
