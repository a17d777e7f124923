package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"labelclean/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	inputDir   string
	outputDir  string
	logDir     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "labelclean.toml"),
		inputDir:   filepath.Join(base, "input"),
		outputDir:  filepath.Join(base, "output"),
		logDir:     filepath.Join(base, "logs"),
	}
	referenceDir := filepath.Join(base, "reference")
	for _, dir := range []string{env.inputDir, env.outputDir, env.logDir, referenceDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	testsupport.WriteReferenceFixture(t, referenceDir)

	content := fmt.Sprintf(`[paths]
input_dir = %q
output_dir = %q
log_dir = %q
reference_dir = %q

[processing]
batch_size = 2
max_workers = 2
`, env.inputDir, env.outputDir, env.logDir, referenceDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
