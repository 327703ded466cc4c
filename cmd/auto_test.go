package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAutoCommandsOnce(t *testing.T) {
	env := setupTestEnvironment(t)
	mustRun(t, "keys", "generate")
	mustRun(t, "folders", "init")

	desktop := filepath.Join(env.home, "Desktop")
	doc := filepath.Join(desktop, "to-sign", "invoice.txt")
	if err := os.WriteFile(doc, []byte("invoice 42"), 0644); err != nil {
		t.Fatal(err)
	}

	metricsFile := filepath.Join(t.TempDir(), "mainsail.prom")
	output := mustRun(t, "auto-sign", "--once", "--metrics-textfile", metricsFile)
	if !strings.Contains(output, "signed") {
		t.Errorf("Expected signed outcome, got: %s", output)
	}
	bundle := filepath.Join(desktop, "to-sign", "signed", "invoice.txt.edbnl")
	if _, err := os.Stat(bundle); err != nil {
		t.Fatalf("Bundle not written: %v", err)
	}

	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("Metrics not written: %v", err)
	}
	if !strings.Contains(string(prom), `mainsail_files_processed_total{outcome="signed",workflow="auto_sign"} 1`) {
		t.Errorf("Unexpected metrics: %s", prom)
	}

	// Hand the bundle to the verifying side.
	if err := os.Rename(bundle, filepath.Join(desktop, "to-check", "invoice.txt.edbnl")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(desktop, "to-check", "orphan.txt"), []byte("no sig"), 0644); err != nil {
		t.Fatal(err)
	}

	output = mustRun(t, "auto-verify", "--once")
	if !strings.Contains(output, "verified invoice.txt") {
		t.Errorf("Expected verified outcome, got: %s", output)
	}
	if !strings.Contains(output, "Restart") {
		t.Errorf("Expected restart hint for orphan, got: %s", output)
	}
	if _, err := os.Stat(filepath.Join(desktop, "to-check", "verified", "invoice.txt")); err != nil {
		t.Errorf("Unpacked document not in verified: %v", err)
	}
}
