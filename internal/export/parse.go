package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fakeyudi/timerdeck/internal/timer"
)

// ErrNotExport is wrapped when data is neither export format.
var ErrNotExport = errors.New("not a timerdeck history export")

// Parse reads back a file written by either renderer.
func Parse(data []byte) ([]timer.HistoryEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var history []timer.HistoryEntry
		if err := json.Unmarshal(trimmed, &history); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotExport, err)
		}
		return history, nil
	}
	return parseMarkdown(string(data))
}

func parseMarkdown(content string) ([]timer.HistoryEntry, error) {
	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("%w: missing version sentinel", ErrNotExport)
	}
	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("%w: missing data payload", ErrNotExport)
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("%w: malformed data payload", ErrNotExport)
	}

	jsonBytes, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("%w: corrupted base64 payload: %v", ErrNotExport, err)
	}
	var history []timer.HistoryEntry
	if err := json.Unmarshal(jsonBytes, &history); err != nil {
		return nil, fmt.Errorf("%w: embedded JSON: %v", ErrNotExport, err)
	}
	return history, nil
}
