// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pennyworth/penny-tui/internal/model"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript bundles a thread with its message list. Threads and messages are
// stored separately, so exporters take this composite rather than reaching
// into the registry themselves.
type Transcript struct {
	Thread   model.Thread    `json:"thread"`
	Messages []model.Message `json:"messages"`
}

// NewTranscript builds a transcript from a thread and its messages. A nil
// message list becomes an empty one so the JSON form is always an array.
func NewTranscript(thread model.Thread, msgs []model.Message) *Transcript {
	if msgs == nil {
		msgs = []model.Message{}
	}
	return &Transcript{Thread: thread, Messages: msgs}
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format and returns the content.
	Export(tr *Transcript) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata includes the frontmatter and session info sections.
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		OpenAfterExport:   true,
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a transcript to a file using the specified exporter and
// returns the output file path.
//
// TIMEZONE: Per-message timestamps are formatted without timezone information.
// The frontmatter timestamps carry the local zone in RFC3339 form.
func ExportToFile(tr *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(tr)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	title := ""
	if tr != nil {
		title = tr.Thread.Title
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(title),
		timestamp,
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// Non-fatal, the file was still written.
			fmt.Printf("Warning: Could not open file: %v\n", err)
		}
	}

	return outputPath, nil
}

// ExportMarkdown exports to Markdown format.
func ExportMarkdown(tr *Transcript, opts *Options) (string, error) {
	exporter := NewMarkdownExporter(opts)
	return ExportToFile(tr, exporter, opts)
}

// ExportJSON exports to JSON format.
func ExportJSON(tr *Transcript, opts *Options) (string, error) {
	exporter := NewJSONExporter(opts)
	return ExportToFile(tr, exporter, opts)
}

// ExportAs dispatches on a format name as the CLI and palette spell it.
func ExportAs(tr *Transcript, format string, opts *Options) (string, error) {
	switch format {
	case "markdown", "md":
		return ExportMarkdown(tr, opts)
	case "json":
		return ExportJSON(tr, opts)
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	// Limit length
	maxLen := 50
	runes := []rune(s)
	if len(runes) > maxLen {
		s = string(runes[:maxLen])
	}

	// Replace problematic characters (Windows and Unix)
	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			// Replace control characters
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}

	return string(result)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// formatTimestamp formats an epoch-milliseconds timestamp for display.
func formatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats an epoch-milliseconds timestamp for inline display.
func formatShortTimestamp(ms int64) string {
	return time.UnixMilli(ms).Format("15:04:05")
}

// formatRFC3339 formats an epoch-milliseconds timestamp for frontmatter.
func formatRFC3339(ms int64) string {
	return time.UnixMilli(ms).Format(time.RFC3339)
}
