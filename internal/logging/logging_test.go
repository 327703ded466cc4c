package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestLoggerVerbosity(t *testing.T) {
	color.NoColor = true

	t.Run("QuietByDefault", func(t *testing.T) {
		var out, errOut bytes.Buffer
		l := Logger{Out: &out, Err: &errOut}

		l.Infof("info %d", 1)
		l.Debugf("debug %d", 2)
		l.Warnf("warn %d", 3)
		l.Errorf("error %d", 4)

		if out.Len() != 0 || errOut.Len() != 0 {
			t.Fatalf("Expected no output, got stdout=%q stderr=%q", out.String(), errOut.String())
		}
	})

	t.Run("VerboseShowsInfoAndWarn", func(t *testing.T) {
		var out, errOut bytes.Buffer
		l := Logger{Verbose: true, Out: &out, Err: &errOut}

		l.Infof("scanning %s", "to-sign")
		l.Warnf("slow registry")
		l.Debugf("hidden")

		if !strings.Contains(out.String(), "[info] scanning to-sign") {
			t.Errorf("Expected info line, got %q", out.String())
		}
		if strings.Contains(out.String(), "hidden") {
			t.Errorf("Debug output leaked in verbose mode: %q", out.String())
		}
		if !strings.Contains(errOut.String(), "[warn] slow registry") {
			t.Errorf("Expected warn line, got %q", errOut.String())
		}
	})

	t.Run("AlwaysAndUserWarnings", func(t *testing.T) {
		var errOut bytes.Buffer
		l := Logger{Err: &errOut}

		l.WarnfAlways("key file is world readable")
		l.WarnfUser("restart to retry %s", "a.pdf")

		got := errOut.String()
		if !strings.Contains(got, "[warn] key file is world readable") {
			t.Errorf("Expected critical warning, got %q", got)
		}
		if !strings.Contains(got, "Warning: restart to retry a.pdf") {
			t.Errorf("Expected user warning, got %q", got)
		}
	})

	t.Run("ErrorfAndReturn", func(t *testing.T) {
		var errOut bytes.Buffer
		l := Logger{Debug: true, Err: &errOut}

		err := l.ErrorfAndReturn("failed to load %s", "config.toml")
		if err == nil || err.Error() != "failed to load config.toml" {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !strings.Contains(errOut.String(), "[error] failed to load config.toml") {
			t.Errorf("Expected error line, got %q", errOut.String())
		}
	})
}
