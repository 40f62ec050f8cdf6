package calpal

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return buf.String()
}

func TestRootHelp(t *testing.T) {
	out := runCLI(t, "--help")
	if out == "" {
		t.Fatalf("expected help output")
	}
}

func TestInitCommandIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calpal.db")
	for i := 0; i < 2; i++ {
		runCLI(t, "--db", path, "init")
	}
}

func TestLogAddListRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calpal.db")
	runCLI(t, "--db", path, "init")

	out := runCLI(t, "--db", path, "log", "add", "--name", "Ramen", "--cost", "12.5", "--weight", "450", "--calories", "550")
	if !strings.Contains(out, "Logged Ramen") {
		t.Fatalf("unexpected add output: %q", out)
	}

	out = runCLI(t, "--db", path, "log", "list")
	if !strings.Contains(out, "Ramen") || !strings.Contains(out, "$12.50") {
		t.Fatalf("unexpected list output: %q", out)
	}
	id := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Ramen") {
			id = strings.SplitN(line, "\t", 2)[0]
		}
	}
	if id == "" {
		t.Fatalf("could not find entry id in list output: %q", out)
	}

	runCLI(t, "--db", path, "log", "remove", id)
	out = runCLI(t, "--db", path, "log", "list")
	if strings.Contains(out, "Ramen") {
		t.Fatalf("entry should be gone after remove: %q", out)
	}
}

func TestProfileSetAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calpal.db")
	runCLI(t, "--db", path, "init")

	out := runCLI(t, "--db", path, "profile", "set", "--age", "30", "--height-cm", "175", "--weight-kg", "70")
	if !strings.Contains(out, "BMI 22.86") {
		t.Fatalf("unexpected set output: %q", out)
	}

	out = runCLI(t, "--db", path, "profile", "show")
	if !strings.Contains(out, "Age: 30") || !strings.Contains(out, "BMI: 22.86") {
		t.Fatalf("unexpected show output: %q", out)
	}

	out = runCLI(t, "--db", path, "profile", "history")
	if !strings.Contains(out, "22.86") {
		t.Fatalf("unexpected history output: %q", out)
	}
}

func TestConfigRoundTripCLI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calpal.db")
	runCLI(t, "--db", path, "init")

	runCLI(t, "--db", path, "config", "set", "lookup_provider", "usda")
	out := runCLI(t, "--db", path, "config", "get", "lookup_provider")
	if strings.TrimSpace(out) != "usda" {
		t.Fatalf("unexpected get output: %q", out)
	}
	out = runCLI(t, "--db", path, "config", "list")
	if !strings.Contains(out, "lookup_provider=usda") {
		t.Fatalf("unexpected list output: %q", out)
	}
}

func TestResetRequiresForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calpal.db")
	runCLI(t, "--db", path, "init")

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--db", path, "reset"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected reset without --force to fail")
	}
}
