package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/semkit/ai"
	"github.com/poiesic/semkit/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const samplesDir = "../../samples/plugins"

const samplePlan = `Here is the plan:
<plan>
  <function.FunPlugin.Joke input="dinosaurs" setContextVariable="JOKE"/>
  <function.text.uppercase input="$JOKE"/>
</plan>`

// run executes the app with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"semkit"}, args...))
	return out.String(), err
}

// withService makes loadService return svc for the duration of the test.
func withService(t *testing.T, svc ai.Service) *[]*ai.Config {
	t.Helper()
	var configs []*ai.Config
	prev := newService
	newService = func(config *ai.Config) (ai.Service, error) {
		configs = append(configs, config)
		return svc, nil
	}
	t.Cleanup(func() { newService = prev })
	return &configs
}

func writeEnv(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{"debug level", "debug", false},
		{"info level", "info", false},
		{"warn level", "warn", false},
		{"error level", "error", false},
		{"case insensitive", "DEBUG", false},
		{"invalid level", "invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "log-level", Value: "info"},
				},
				Before: setupLogger,
				Action: func(c *cli.Context) error { return nil },
			}
			err := app.Run([]string{"test", "--log-level", tt.level})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGlobalFlagDefaults(t *testing.T) {
	app := newApp()
	defaults := make(map[string]any)
	for _, flag := range app.Flags {
		switch f := flag.(type) {
		case *cli.StringFlag:
			defaults[f.Name] = f.Value
		case *cli.StringSliceFlag:
			defaults[f.Name] = f.Value.Value()
		}
	}
	assert.Equal(t, "info", defaults["log-level"])
	assert.Equal(t, "openai", defaults["provider"])
	assert.Equal(t, "gpt-3.5-turbo", defaults["model"])
	assert.Equal(t, []string{".env"}, defaults["env-file"])
}

func TestListCommand(t *testing.T) {
	out, err := run(t, "list", "--plugins-dir", samplesDir, "--plugin", "FunPlugin", "--plugin", "WriterPlugin")
	require.NoError(t, err)

	assert.Contains(t, out, "FunPlugin.Joke (semantic)")
	assert.Contains(t, out, "FunPlugin.Excuses (semantic)")
	assert.Contains(t, out, "WriterPlugin.ShortPoem (semantic)")
	assert.Contains(t, out, "WriterPlugin.NovelOutline (semantic)")
	assert.Contains(t, out, `- endMarker: The marker to use to end each chapter. (default "<!--===ENDPART===-->")`)
	assert.Contains(t, out, "text.uppercase (native)")
	assert.Contains(t, out, "time.today (native)")
}

func TestListCommandUnknownPlugin(t *testing.T) {
	_, err := run(t, "list", "--plugins-dir", samplesDir, "--plugin", "NoSuchPlugin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchPlugin")
}

func TestInvokeCommand(t *testing.T) {
	svc := mock.NewMockServiceWithReply("  Why did the T-rex skip dinner? Too many tiny arms to reach the table.  ")
	configs := withService(t, svc)
	env := writeEnv(t, "OPENAI_API_KEY=sk-test")

	out, err := run(t, "--env-file", env, "--model", "gpt-4o-mini",
		"invoke", "--plugins-dir", samplesDir, "--input", "dinosaurs")
	require.NoError(t, err)
	assert.Equal(t, "Why did the T-rex skip dinner? Too many tiny arms to reach the table.\n", out)

	require.Len(t, *configs, 1)
	assert.Equal(t, "sk-test", (*configs)[0].APIKey)
	assert.Equal(t, "gpt-4o-mini", (*configs)[0].Model)

	call, ok := svc.LastCall()
	require.True(t, ok)
	assert.Contains(t, call.Prompt(), "dinosaurs")
	assert.InDelta(t, 0.9, call.Settings.Temperature, 1e-9)
}

func TestInvokeCommandMissingCredentials(t *testing.T) {
	withService(t, mock.NewMockService())
	t.Setenv("OPENAI_API_KEY", "")
	env := writeEnv(t, "OPENAI_ORG_ID=org-1")

	_, err := run(t, "--env-file", env, "invoke", "--plugins-dir", samplesDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestInvokeCommandUnknownProvider(t *testing.T) {
	_, err := run(t, "--provider", "bard", "invoke", "--plugins-dir", samplesDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrUnknownProvider)
}

func planningService() *mock.MockService {
	svc := mock.NewMockService()
	svc.CompleteChatFunc = func(ctx context.Context, messages []ai.Message, settings *ai.RequestSettings) (string, error) {
		prompt := messages[len(messages)-1].Content
		if strings.Contains(prompt, "<goal>") {
			return samplePlan, nil
		}
		return "a joke about dinosaurs", nil
	}
	return svc
}

func TestPlanCommand(t *testing.T) {
	withService(t, planningService())
	env := writeEnv(t, "OPENAI_API_KEY=sk-test")

	out, err := run(t, "--env-file", env, "plan", "--plugins-dir", samplesDir,
		"--goal", "Tell a joke about dinosaurs, shouting")
	require.NoError(t, err)
	assert.Contains(t, out, "<function.FunPlugin.Joke")
	assert.Contains(t, out, "<function.text.uppercase")
	assert.NotContains(t, out, "A JOKE ABOUT DINOSAURS")
}

func TestPlanCommandExecute(t *testing.T) {
	withService(t, planningService())
	env := writeEnv(t, "OPENAI_API_KEY=sk-test")

	out, err := run(t, "--env-file", env, "plan", "--plugins-dir", samplesDir,
		"--goal", "Tell a joke about dinosaurs, shouting", "--execute")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\nA JOKE ABOUT DINOSAURS\n"), out)
}

func TestPlanCommandRetries(t *testing.T) {
	svc := mock.NewMockService().WithError(errors.New("rate limited"))
	withService(t, svc)
	env := writeEnv(t, "OPENAI_API_KEY=sk-test")

	_, err := run(t, "--env-file", env, "plan", "--plugins-dir", samplesDir,
		"--goal", "anything", "--retries", "2", "--retry-delay", "1ms", "--max-retry-delay", "1ms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, 2, svc.CallCount())
}

func TestPlanCommandInvalidGoalIsNotRetried(t *testing.T) {
	svc := planningService()
	withService(t, svc)
	env := writeEnv(t, "OPENAI_API_KEY=sk-test")

	_, err := run(t, "--env-file", env, "plan", "--plugins-dir", samplesDir,
		"--goal", "   ", "--retry-delay", "1ms")
	require.Error(t, err)
	assert.Equal(t, 0, svc.CallCount())
}

func TestPlanCommandRelevancyNeedsEmbeddings(t *testing.T) {
	withService(t, planningService().WithEmbedder(nil))
	env := writeEnv(t, "OPENAI_API_KEY=sk-test")

	_, err := run(t, "--env-file", env, "plan", "--plugins-dir", samplesDir,
		"--goal", "joke", "--relevancy-threshold", "0.5")
	assert.ErrorIs(t, err, ai.ErrEmbeddingsUnavailable)
}

func TestPlanCommandRelevancy(t *testing.T) {
	withService(t, planningService())
	env := writeEnv(t, "OPENAI_API_KEY=sk-test")

	out, err := run(t, "--env-file", env, "plan", "--plugins-dir", samplesDir,
		"--goal", "Tell a joke about dinosaurs", "--relevancy-threshold", "0.01",
		"--memory-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "<function.FunPlugin.Joke")
}

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	os.Exit(m.Run())
}

func TestReembedCommand(t *testing.T) {
	withService(t, planningService())
	env := writeEnv(t, "OPENAI_API_KEY=sk-test")
	dir := t.TempDir()

	_, err := run(t, "--env-file", env, "plan", "--plugins-dir", samplesDir,
		"--goal", "Tell a joke", "--relevancy-threshold", "0.01", "--memory-dir", dir)
	require.NoError(t, err)

	out, err := run(t, "--env-file", env, "reembed", "--memory-dir", dir, "--batch-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "re-embedded")
	assert.NotContains(t, out, "re-embedded 0 records")
}
