package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadStdinLine reads piped stdin and returns it trimmed.
// Returns an error if stdin is a terminal, empty, or cannot be read.
func ReadStdinLine() (string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat stdin: %w", err)
	}

	// If ModeCharDevice is set, stdin is connected to a terminal.
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return "", fmt.Errorf("no data provided on stdin (hint: pass the public key as an argument or pipe it in)")
	}

	data, err := io.ReadAll(io.LimitReader(os.Stdin, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}

	line := strings.TrimSpace(string(data))
	if line == "" {
		return "", fmt.Errorf("stdin is empty")
	}

	return line, nil
}
