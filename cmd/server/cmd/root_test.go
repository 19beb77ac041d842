package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectError    bool
	}{
		{
			name:           "help flag",
			args:           []string{"--help"},
			expectedOutput: "Royal House CMS server",
		},
		{
			name:           "short help flag",
			args:           []string{"-h"},
			expectedOutput: "Royal House CMS server",
		},
		{
			name:           "invalid flag",
			args:           []string{"--invalid-flag"},
			expectedOutput: "unknown flag: --invalid-flag",
			expectError:    true,
		},
		{
			name:           "unknown subcommand",
			args:           []string{"scrape"},
			expectedOutput: "unknown command",
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()

			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			output := buf.String()

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			combined := output
			if err != nil {
				combined += err.Error()
			}
			if !strings.Contains(combined, tt.expectedOutput) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.expectedOutput, combined)
			}
		})
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	cmd := newRootCmd()

	for _, flag := range []string{"config", "log-level", "log-format"} {
		if f := cmd.PersistentFlags().Lookup(flag); f == nil {
			t.Errorf("expected persistent flag %q to be defined", flag)
		}
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	cmd := newRootCmd()

	expected := map[string][]string{
		"serve":       nil,
		"migrate":     {"up", "down", "version"},
		"admins":      {"list", "add", "remove"},
		"healthcheck": nil,
		"version":     nil,
	}
	for name, children := range expected {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("expected subcommand %q to be registered", name)
			continue
		}
		for _, child := range children {
			found, _, err := sub.Find([]string{child})
			if err != nil || found.Name() != child {
				t.Errorf("expected %s %s to be registered", name, child)
			}
		}
	}
}
