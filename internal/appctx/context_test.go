package appctx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reelscout/reelscout/internal/analytics"
	"github.com/reelscout/reelscout/internal/auth"
	"github.com/reelscout/reelscout/internal/config"
	"github.com/reelscout/reelscout/internal/observability"
	"github.com/reelscout/reelscout/internal/output"
)

func testApp(t *testing.T) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("REELSCOUT_NO_KEYRING", "1")
	t.Setenv("REELSCOUT_DEBUG", "")

	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	cfg.Format = "json"

	var stdout, stderr bytes.Buffer
	app := NewApp(cfg, Options{
		Auth:   auth.NewManagerWithStore(auth.NewStore(t.TempDir())),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	return app, &stdout, &stderr
}

func TestNewApp(t *testing.T) {
	app, _, _ := testApp(t)

	if app.TMDB == nil {
		t.Error("TMDB client not initialized")
	}
	if app.Auth == nil {
		t.Error("Auth manager not initialized")
	}
	if app.Output == nil {
		t.Error("Output writer not initialized")
	}
	if app.Logger == nil {
		t.Error("Logger not initialized")
	}
	if app.Hooks.Level() != 0 {
		t.Errorf("initial hooks level = %d, want 0", app.Hooks.Level())
	}
}

func TestWithAppAndFromContext(t *testing.T) {
	app, _, _ := testApp(t)

	ctx := WithApp(context.Background(), app)
	if FromContext(ctx) != app {
		t.Error("FromContext did not retrieve the same app")
	}
	if FromContext(context.Background()) != nil {
		t.Error("expected nil from empty context")
	}
}

func TestApplyFlagsFormats(t *testing.T) {
	tests := []struct {
		name string
		set  func(*GlobalFlags)
		want output.Format
	}{
		{"json", func(f *GlobalFlags) { f.JSON = true }, output.FormatJSON},
		{"quiet", func(f *GlobalFlags) { f.Quiet = true }, output.FormatQuiet},
		{"ids", func(f *GlobalFlags) { f.IDsOnly = true }, output.FormatIDs},
		{"count", func(f *GlobalFlags) { f.Count = true }, output.FormatCount},
		{"styled", func(f *GlobalFlags) { f.Styled = true }, output.FormatStyled},
		{"md", func(f *GlobalFlags) { f.MD = true }, output.FormatMarkdown},
		{"ids beats json", func(f *GlobalFlags) { f.IDsOnly = true; f.JSON = true }, output.FormatIDs},
		{"config format", func(*GlobalFlags) {}, output.FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := testApp(t)
			tt.set(&app.Flags)
			app.ApplyFlags()
			if got := app.Output.Format(); got != tt.want {
				t.Errorf("format = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyFlagsJQ(t *testing.T) {
	app, stdout, _ := testApp(t)
	app.Flags.JQ = ".data.k"
	if err := app.ApplyFlags(); err != nil {
		t.Fatalf("ApplyFlags: %v", err)
	}
	if err := app.OK(map[string]string{"k": "v"}); err != nil {
		t.Fatalf("OK: %v", err)
	}
	if got := stdout.String(); got != "v\n" {
		t.Errorf("jq output = %q, want %q", got, "v\n")
	}

	app.Flags.JQ = ".data["
	var e *output.Error
	if err := app.ApplyFlags(); !errors.As(err, &e) || e.Code != output.CodeUsage {
		t.Errorf("invalid filter error = %v, want usage error", err)
	}
}

func TestApplyFlagsVerbose(t *testing.T) {
	app, _, stderr := testApp(t)
	app.Flags.Verbose = 2
	app.ApplyFlags()

	if app.Hooks.Level() != 2 {
		t.Errorf("hooks level = %d, want 2", app.Hooks.Level())
	}
	app.Logger.Debug("probe")
	if !strings.Contains(stderr.String(), "probe") {
		t.Errorf("debug logger not writing to stderr: %q", stderr.String())
	}
}

func TestVerboseLevelFromEnv(t *testing.T) {
	app, _, _ := testApp(t)

	t.Setenv("REELSCOUT_DEBUG", "1")
	if got := app.VerboseLevel(); got != 1 {
		t.Errorf("REELSCOUT_DEBUG=1 level = %d, want 1", got)
	}

	t.Setenv("REELSCOUT_DEBUG", "true")
	if got := app.VerboseLevel(); got != 2 {
		t.Errorf("REELSCOUT_DEBUG=true level = %d, want 2", got)
	}

	app.Flags.Verbose = 2
	t.Setenv("REELSCOUT_DEBUG", "1")
	if got := app.VerboseLevel(); got != 2 {
		t.Errorf("flag should win when higher, got %d", got)
	}
}

func TestAppOKWithStats(t *testing.T) {
	app, stdout, _ := testApp(t)
	app.Flags.Stats = true
	app.ApplyFlags()
	app.Collector.RecordRequest(observability.RequestMetrics{StatusCode: 200})

	if err := app.OK(map[string]string{"k": "v"}); err != nil {
		t.Fatalf("OK: %v", err)
	}

	var resp output.Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	stats, _ := resp.Meta["stats"].(string)
	if !strings.Contains(stats, "1 request") {
		t.Errorf("stats meta = %q, want request count", stats)
	}
}

func TestAppOKStatsSkippedForMachineOutput(t *testing.T) {
	app, stdout, _ := testApp(t)
	app.Flags.Stats = true
	app.Flags.Quiet = true
	app.ApplyFlags()

	if err := app.OK([]int{1, 2}); err != nil {
		t.Fatalf("OK: %v", err)
	}
	if strings.Contains(stdout.String(), "stats") {
		t.Errorf("quiet output should not carry stats: %s", stdout.String())
	}
}

func TestAppErrPrintsStatsToStderr(t *testing.T) {
	app, stdout, stderr := testApp(t)
	app.Flags.Stats = true
	app.ApplyFlags()

	if err := app.Err(output.ErrAuth("No TMDB API token configured")); err != nil {
		t.Fatalf("Err: %v", err)
	}

	var resp output.ErrorResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Code != output.CodeAuth {
		t.Errorf("code = %q, want %q", resp.Code, output.CodeAuth)
	}
	if !strings.Contains(stderr.String(), "Stats: ") {
		t.Errorf("stderr = %q, want stats line", stderr.String())
	}
}

func TestAnalyticsOpensConfiguredStore(t *testing.T) {
	app, _, _ := testApp(t)

	store, err := app.Analytics()
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	fs, ok := store.(*analytics.FileStore)
	if !ok {
		t.Fatalf("store = %T, want *analytics.FileStore", store)
	}
	if want := filepath.Join(app.Config.CacheDir, analytics.DirName); filepath.Dir(fs.Path()) != want {
		t.Errorf("store path = %q, want under %q", fs.Path(), want)
	}

	again, _ := app.Analytics()
	if again != store {
		t.Error("Analytics should open the store once")
	}
}

func TestAnalyticsAppwriteWithoutKey(t *testing.T) {
	app, _, _ := testApp(t)
	t.Setenv("APPWRITE_API_KEY", "")
	app.Config.Analytics = config.AnalyticsAppwrite
	app.Config.AppwriteProjectID = "p"
	app.Config.AppwriteDatabaseID = "d"
	app.Config.AppwriteCollectionID = "c"

	_, err := app.Analytics()
	var e *output.Error
	if !errors.As(err, &e) || e.Code != output.CodeAuth {
		t.Errorf("err = %v, want auth error", err)
	}
}

func TestLogToFile(t *testing.T) {
	app, _, stderr := testApp(t)
	app.Flags.Verbose = 1
	app.ApplyFlags()

	closer, err := app.LogToFile()
	if err != nil {
		t.Fatalf("LogToFile: %v", err)
	}
	stderr.Reset()
	app.Logger.Info("inside tui")
	closer.Close()

	if app.Hooks.Level() != 0 {
		t.Errorf("hooks level = %d, want 0 while full-screen", app.Hooks.Level())
	}
	data, err := os.ReadFile(filepath.Join(app.Config.CacheDir, LogFileName))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "inside tui") {
		t.Errorf("log file = %q", data)
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr should stay clean, got %q", stderr.String())
	}
}

func TestIsInteractiveFalseForBuffers(t *testing.T) {
	app, _, _ := testApp(t)
	if app.IsInteractive() {
		t.Error("buffer stdout should not be interactive")
	}
	app.Flags.JSON = true
	if app.IsInteractive() {
		t.Error("JSON mode should not be interactive")
	}
}
