package cmd

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInfoCommand(t *testing.T) {
	isolateEnv(t)

	t.Run("yaml summary", func(t *testing.T) {
		resetConversionFlags()
		dir := t.TempDir()
		path := writeModel(t, dir, "fitzhugh_nagumo.ode")

		output, err := executeCommand(rootCmd, "info", path, "--yaml")
		if err != nil {
			t.Fatalf("info command failed: %v", err)
		}

		var summary modelSummary
		if err := yaml.Unmarshal([]byte(output), &summary); err != nil {
			t.Fatalf("output is not valid YAML: %v\n%s", err, output)
		}
		if summary.Name != "fitzhugh_nagumo" {
			t.Errorf("expected model name fitzhugh_nagumo, got %q", summary.Name)
		}
		if len(summary.States) != 2 || summary.States[0].Name != "V" {
			t.Errorf("unexpected states: %+v", summary.States)
		}
		if len(summary.Parameters) != 7 {
			t.Errorf("expected 7 parameters, got %d", len(summary.Parameters))
		}
		if len(summary.Components) != 2 {
			t.Errorf("expected 2 components, got %v", summary.Components)
		}
	})

	t.Run("rendered summary", func(t *testing.T) {
		resetConversionFlags()
		dir := t.TempDir()
		path := writeModel(t, dir, "fitzhugh_nagumo.ode")

		output, err := executeCommand(rootCmd, "info", path)
		if err != nil {
			t.Fatalf("info command failed: %v", err)
		}
		for _, want := range []string{"fitzhugh_nagumo", "States", "Parameters", "v_rest"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("nonexistent file", func(t *testing.T) {
		resetConversionFlags()

		_, err := executeCommand(rootCmd, "info", "does-not-exist.ode")
		if err == nil {
			t.Fatal("expected an error but got nil")
		}
	})
}
