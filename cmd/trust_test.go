package cmd

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newRegistry(t *testing.T, profiles map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := profiles[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func activeProfile(name string) string {
	return fmt.Sprintf(`[Name]
Value = %q

[Location]
Value = "Berlin"

[Public_key]
Active = true
Last_verification_date = 2024-03-01
`, name)
}

func TestTrustCommands(t *testing.T) {
	t.Run("AddAndList", func(t *testing.T) {
		setupTestEnvironment(t)
		mustRun(t, "keys", "generate")
		key := strings.TrimSpace(mustRun(t, "keys", "export"))

		output := mustRun(t, "trust", "list")
		if !strings.Contains(output, "no trusted keys") {
			t.Errorf("Expected empty list, got: %s", output)
		}

		mustRun(t, "trust", "add", key)
		output = mustRun(t, "trust", "list")
		if !strings.Contains(output, key) {
			t.Errorf("Expected %s in list, got: %s", key, output)
		}
	})

	t.Run("AddRejectsGarbage", func(t *testing.T) {
		setupTestEnvironment(t)
		if _, err := run(t, "trust", "add", "not-a-key"); err == nil {
			t.Errorf("Expected error for invalid key")
		}
	})

	t.Run("CheckAgainstRegistries", func(t *testing.T) {
		setupTestEnvironment(t)
		mustRun(t, "keys", "generate")
		key := strings.TrimSpace(mustRun(t, "keys", "export"))

		a := newRegistry(t, map[string]string{key: activeProfile("Ada Lovelace")})
		b := newRegistry(t, map[string]string{key: activeProfile("Ada Lovelace")})
		c := newRegistry(t, nil)

		output := mustRun(t, "trust", "check", key,
			"--registry", "a="+a.URL, "--registry", "b="+b.URL, "--registry", "c="+c.URL)
		if !strings.Contains(output, "Active profile") || !strings.Contains(output, "Ada Lovelace") {
			t.Errorf("Expected active profile, got: %s", output)
		}
		if !strings.Contains(output, "On trusted sender list: no") {
			t.Errorf("Expected not listed, got: %s", output)
		}
	})

	t.Run("AuthenticateListedSigner", func(t *testing.T) {
		env := setupTestEnvironment(t)
		mustRun(t, "keys", "generate")
		key := strings.TrimSpace(mustRun(t, "keys", "export"))
		mustRun(t, "trust", "add", key)
		mustRun(t, "folders", "init")

		verified := filepath.Join(env.home, "Desktop", "to-check", "verified")
		doc := filepath.Join(verified, "letter.txt")
		if err := os.WriteFile(doc, []byte("dear"), 0644); err != nil {
			t.Fatal(err)
		}
		mustRun(t, "sign", doc, "--format", "separate")

		empty := newRegistry(t, nil)
		output := mustRun(t, "authenticate", "--registry", "only="+empty.URL)
		if !strings.Contains(output, "checked letter.txt") {
			t.Errorf("Expected checked outcome, got: %s", output)
		}
		checked := filepath.Join(env.home, "Desktop", "to-check", "checked")
		if _, err := os.Stat(filepath.Join(checked, "letter.txt")); err != nil {
			t.Errorf("Document not in checked: %v", err)
		}
		if _, err := os.Stat(filepath.Join(checked, "sig", "letter.txt.edsig")); err != nil {
			t.Errorf("Signature not in checked/sig: %v", err)
		}
	})

	t.Run("AuthenticateUnknownSignerQuarantines", func(t *testing.T) {
		env := setupTestEnvironment(t)
		mustRun(t, "keys", "generate")
		mustRun(t, "folders", "init")

		verified := filepath.Join(env.home, "Desktop", "to-check", "verified")
		doc := filepath.Join(verified, "letter.txt")
		if err := os.WriteFile(doc, []byte("dear"), 0644); err != nil {
			t.Fatal(err)
		}
		mustRun(t, "sign", doc)

		a, b, c := newRegistry(t, nil), newRegistry(t, nil), newRegistry(t, nil)
		output := mustRun(t, "authenticate",
			"--registry", "a="+a.URL, "--registry", "b="+b.URL, "--registry", "c="+c.URL)
		if !strings.Contains(output, "quarantined") {
			t.Errorf("Expected quarantined outcome, got: %s", output)
		}
		if _, err := os.Stat(filepath.Join(env.home, "Desktop", "to-check", "quarantine", "letter.txt.edbnl")); err != nil {
			t.Errorf("Bundle not quarantined: %v", err)
		}
	})
}
