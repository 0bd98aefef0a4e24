package cli_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/michaeldiestelberg/local-podcast-transcription/internal/cli"
	"github.com/michaeldiestelberg/local-podcast-transcription/internal/config"
)

// configEnv isolates the config file under a temp XDG root and captures
// stdout/stderr.
func configEnv(t *testing.T, getenv func(string) string) (*cli.Env, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	env := cli.NewEnv(
		cli.WithStdout(stdout),
		cli.WithStderr(stderr),
		cli.WithGetenv(getenv),
	)
	return env, stdout, stderr
}

func execConfig(t *testing.T, env *cli.Env, args ...string) error {
	t.Helper()

	cmd := cli.ConfigCmd(env)
	cmd.SetArgs(args)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd.Execute()
}

// ---------------------------------------------------------------------------
// TestConfigCmd
// ---------------------------------------------------------------------------

func TestConfigCmd(t *testing.T) {
	t.Run("set then get", func(t *testing.T) {
		env, stdout, stderr := configEnv(t, nil)

		if err := execConfig(t, env, "set", "engine", "openai"); err != nil {
			t.Fatalf("set error = %v", err)
		}
		if !strings.Contains(stderr.String(), "Set engine = openai") {
			t.Errorf("set confirmation missing: %q", stderr.String())
		}

		if err := execConfig(t, env, "get", "engine"); err != nil {
			t.Fatalf("get error = %v", err)
		}
		if got := strings.TrimSpace(stdout.String()); got != "openai" {
			t.Errorf("get printed %q, want openai", got)
		}
	})

	t.Run("set rejects unknown key", func(t *testing.T) {
		env, _, _ := configEnv(t, nil)

		if err := execConfig(t, env, "set", "theme", "dark"); err == nil {
			t.Error("set should reject unknown key")
		}
	})

	t.Run("set rejects invalid value", func(t *testing.T) {
		env, _, _ := configEnv(t, nil)

		if err := execConfig(t, env, "set", "chunk-duration", "soon"); err == nil {
			t.Error("set should reject unparseable duration")
		}
	})

	t.Run("get falls back to environment", func(t *testing.T) {
		env, stdout, _ := configEnv(t, func(key string) string {
			if key == config.EnvModel {
				return "ggml-tiny.en.bin"
			}
			return ""
		})

		if err := execConfig(t, env, "get", "model"); err != nil {
			t.Fatalf("get error = %v", err)
		}
		if got := strings.TrimSpace(stdout.String()); got != "ggml-tiny.en.bin" {
			t.Errorf("get printed %q, want env fallback", got)
		}
	})

	t.Run("list shows values and env overrides", func(t *testing.T) {
		env, stdout, _ := configEnv(t, func(key string) string {
			if key == config.EnvOutputDir {
				return "/from/env"
			}
			return ""
		})

		if err := execConfig(t, env, "set", "engine", "whisper"); err != nil {
			t.Fatalf("set error = %v", err)
		}
		if err := execConfig(t, env, "list"); err != nil {
			t.Fatalf("list error = %v", err)
		}

		out := stdout.String()
		if !strings.Contains(out, "engine=whisper") {
			t.Errorf("list missing saved value: %q", out)
		}
		if !strings.Contains(out, "output-dir=/from/env (from env)") {
			t.Errorf("list missing env override: %q", out)
		}
	})

	t.Run("list with nothing set", func(t *testing.T) {
		env, stdout, _ := configEnv(t, nil)

		if err := execConfig(t, env, "list"); err != nil {
			t.Fatalf("list error = %v", err)
		}
		if !strings.Contains(stdout.String(), "No configuration set.") {
			t.Errorf("list output = %q", stdout.String())
		}
	})
}
