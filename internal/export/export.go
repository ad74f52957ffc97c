// Package export writes the completion history to a file a user can keep.
package export

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fakeyudi/timerdeck/internal/timer"
)

// ErrUnknownFormat is returned for a format other than json or markdown.
var ErrUnknownFormat = errors.New("unknown export format")

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "json", "markdown" or "md". Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w %q (want json or markdown)", ErrUnknownFormat, s)
}

// Ext returns the file extension, without the dot.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return "json"
}

// Renderer serializes history entries to bytes.
type Renderer interface {
	Render(history []timer.HistoryEntry) ([]byte, error)
}

// RendererFor returns the renderer for f.
func RendererFor(f Format) (Renderer, error) {
	switch f {
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatMarkdown:
		return &MarkdownRenderer{}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
}

// JSONRenderer renders history as an indented JSON array, the same shape the
// snapshot stores.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(history []timer.HistoryEntry) ([]byte, error) {
	if history == nil {
		history = []timer.HistoryEntry{}
	}
	return json.MarshalIndent(history, "", "  ")
}

const (
	versionSentinel = "<!-- timerdeck-history-version: 1 -->"
	dataPrefix      = "<!-- timerdeck-data: "
	dataSuffix      = " -->"
)

// MarkdownRenderer renders history as a table with an embedded base64 JSON
// payload so the file can be parsed back losslessly.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(history []timer.HistoryEntry) ([]byte, error) {
	if history == nil {
		history = []timer.HistoryEntry{}
	}
	jsonBytes, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, base64.StdEncoding.EncodeToString(jsonBytes), dataSuffix)

	sb.WriteString("# Timer history\n\n")
	if len(history) == 0 {
		sb.WriteString("_No completed timers._\n")
		return []byte(sb.String()), nil
	}
	sb.WriteString("| Completed | Name | Category |\n")
	sb.WriteString("|-----------|------|----------|\n")
	for _, h := range history {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n",
			h.CompletionTimestamp.Format("2006-01-02 15:04:05"),
			escapeCell(h.Name),
			escapeCell(h.Category),
		)
	}
	return []byte(sb.String()), nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// Filename returns timer-history-YYYY-MM-DD.<ext> for the local date of now.
func Filename(now time.Time, f Format) string {
	return fmt.Sprintf("timer-history-%s.%s", now.Format("2006-01-02"), f.Ext())
}

// Write renders history into dir and returns the written path. An existing
// file for the same day is replaced.
func Write(dir string, now time.Time, history []timer.HistoryEntry, f Format) (string, error) {
	r, err := RendererFor(f)
	if err != nil {
		return "", err
	}
	data, err := r.Render(history)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, Filename(now, f))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
