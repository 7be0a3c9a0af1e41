package logging

import (
	"log/slog"
	"strings"
)

// ToolWriter is an io.Writer that forwards output lines from an external tool
// (terraform, kubectl, aws) to slog, tagged with the tool name.
type ToolWriter struct {
	logger *slog.Logger
	tool   string
}

// NewToolWriter constructs a ToolWriter bound to the provided logger and tool name.
func NewToolWriter(logger *slog.Logger, tool string) *ToolWriter {
	return &ToolWriter{logger: logger, tool: tool}
}

// Write logs each non-empty line of p at info level.
func (w *ToolWriter) Write(p []byte) (int, error) {
	if w.logger != nil {
		for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
			if line != "" {
				w.logger.Info(line, "tool", w.tool)
			}
		}
	}
	return len(p), nil
}
