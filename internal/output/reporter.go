// internal/output/reporter.go
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/vvprobe/internal/viewport"
)

// Reporter writes a stream of reports to one destination.
type Reporter interface {
	// Write renders a single report.
	Write(report viewport.Report) error
	// Close flushes the stream and closes the underlying destination.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// OpenDestination opens path for writing. "-" or "" is stdout, whose Close is
// a no-op. A leading ~ is expanded to the home directory.
func OpenDestination(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" || path == "stdout" {
		return &nopWriteCloser{os.Stdout}, nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand output path %s: %w", path, err)
	}
	if dir := filepath.Dir(expanded); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", expanded, err)
	}
	return f, nil
}

// New creates a reporter for format that takes ownership of w.
func New(format Format, w io.WriteCloser) (Reporter, error) {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return &yamlReporter{w: w, enc: enc}, nil
	case FormatJSON, FormatCSS, FormatText:
		return &streamReporter{w: w, format: format}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// streamReporter renders each report independently.
type streamReporter struct {
	w      io.WriteCloser
	format Format
	count  int
}

func (r *streamReporter) Write(report viewport.Report) error {
	if r.count > 0 && r.format != FormatJSON {
		if _, err := io.WriteString(r.w, "\n"); err != nil {
			return err
		}
	}
	r.count++
	return Render(r.w, report, r.format)
}

func (r *streamReporter) Close() error {
	return r.w.Close()
}

// yamlReporter emits one YAML document per report, separated by ---.
type yamlReporter struct {
	w   io.WriteCloser
	enc *yaml.Encoder
}

func (r *yamlReporter) Write(report viewport.Report) error {
	if err := r.enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode yaml report: %w", err)
	}
	return nil
}

func (r *yamlReporter) Close() error {
	if err := r.enc.Close(); err != nil {
		r.w.Close()
		return fmt.Errorf("failed to flush yaml reports: %w", err)
	}
	return r.w.Close()
}
