package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscout/reelscout/internal/appctx"
	"github.com/reelscout/reelscout/internal/output"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("REELSCOUT_NO_KEYRING", "1")
	t.Setenv("REELSCOUT_DEBUG", "")
	t.Setenv("REELSCOUT_ANALYTICS", "")
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("APPWRITE_API_KEY", "")
}

func run(t *testing.T, args ...string) (int, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, &stdout, &stderr)
	return code, &stdout, &stderr
}

func decodeError(t *testing.T, b *bytes.Buffer) output.ErrorResponse {
	t.Helper()
	var resp output.ErrorResponse
	require.NoError(t, json.Unmarshal(b.Bytes(), &resp), b.String())
	return resp
}

func TestTransformCobraError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want string
		code string
	}{
		{"missing flag value", errors.New("flag needs an argument: --limit"), "--limit requires a value", output.CodeUsage},
		{"unknown flag", errors.New("unknown flag: --bogus"), "Unknown option: --bogus", output.CodeUsage},
		{"unknown shorthand", errors.New("unknown shorthand flag: 'z' in -z"), "Unknown option: -z", output.CodeUsage},
		{"unknown command", errors.New(`unknown command "serch" for "reelscout"`), "Unknown command: serch", output.CodeUsage},
		{"missing query", errors.New("requires at least 1 arg(s), only received 0"), "Search query required", output.CodeUsage},
		{"plain error", errors.New("boom"), "boom", output.CodeAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := output.AsError(transformCobraError(tt.in))
			assert.Equal(t, tt.want, got.Message)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}

func TestTransformCobraErrorKeepsStructuredErrors(t *testing.T) {
	in := output.ErrAuth("No TMDB API token configured")
	assert.Same(t, in, transformCobraError(in))
}

func TestRunUnknownCommand(t *testing.T) {
	isolate(t)
	code, stdout, _ := run(t, "serch", "--json")

	assert.Equal(t, output.ExitUsage, code)
	resp := decodeError(t, stdout)
	assert.Equal(t, "Unknown command: serch", resp.Error)
	assert.Equal(t, output.CodeUsage, resp.Code)
}

func TestRunSearchWithoutQuery(t *testing.T) {
	isolate(t)
	code, stdout, _ := run(t, "search", "--json")

	assert.Equal(t, output.ExitUsage, code)
	assert.Equal(t, "Search query required", decodeError(t, stdout).Error)
}

func TestRunInvalidAnalyticsFlag(t *testing.T) {
	isolate(t)
	code, stdout, _ := run(t, "config", "show", "--json", "--analytics", "cloud")

	assert.Equal(t, output.ExitUsage, code)
	assert.Contains(t, decodeError(t, stdout).Error, `invalid --analytics "cloud"`)
}

func TestRunVersion(t *testing.T) {
	isolate(t)
	code, stdout, _ := run(t, "--version")

	assert.Equal(t, output.ExitOK, code)
	assert.Contains(t, stdout.String(), "reelscout version")
}

func TestRunConfigShowAppliesFlags(t *testing.T) {
	isolate(t)
	code, stdout, _ := run(t, "config", "show", "--json", "--language", "fr-FR")
	require.Equal(t, output.ExitOK, code, stdout.String())

	var resp struct {
		OK   bool                         `json:"ok"`
		Data map[string]map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "fr-FR", resp.Data["language"]["value"])
	assert.Equal(t, "flag", resp.Data["language"]["source"])
}

func TestRunTUIWithoutToken(t *testing.T) {
	isolate(t)
	code, stdout, _ := run(t, "--json")

	assert.Equal(t, output.ExitAuth, code)
	assert.Equal(t, output.CodeAuth, decodeError(t, stdout).Code)
}

func TestRunTUINeedsTerminal(t *testing.T) {
	isolate(t)
	t.Setenv("TMDB_API_KEY", "token")
	code, stdout, _ := run(t, "tui", "--json")

	assert.Equal(t, output.ExitUsage, code)
	assert.Equal(t, "The interactive search needs a terminal", decodeError(t, stdout).Error)
}

func TestRunTUIRejectsBadDebounce(t *testing.T) {
	isolate(t)
	code, stdout, _ := run(t, "--json", "--debounce", "20000")

	assert.Equal(t, output.ExitUsage, code)
	assert.Contains(t, decodeError(t, stdout).Error, "--debounce must be between 0 and")
}

func TestRootPersistentFlags(t *testing.T) {
	cmd := NewRootCmd(appctx.Options{})
	for _, name := range []string{"json", "quiet", "md", "markdown", "styled", "ids-only", "count", "verbose", "stats", "cache-dir", "language", "analytics"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.NotNil(t, cmd.Flags().Lookup("debounce"))
}

func TestRunJQFilter(t *testing.T) {
	isolate(t)
	code, stdout, _ := run(t, "config", "show", "--language", "de-DE", "--jq", ".data.language.value")

	assert.Equal(t, output.ExitOK, code)
	assert.Equal(t, "de-DE\n", stdout.String())
}

func TestRunInvalidJQ(t *testing.T) {
	isolate(t)
	code, stdout, _ := run(t, "config", "show", "--json", "--jq", ".data[")

	assert.Equal(t, output.ExitUsage, code)
	assert.Contains(t, decodeError(t, stdout).Error, "Invalid --jq filter")
}

func TestFlagsAcceptUnderscores(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	code, stdout, _ := run(t, "config", "show", "--cache_dir", dir, "--jq", ".data.cache_dir.value")

	assert.Equal(t, output.ExitOK, code)
	assert.Equal(t, dir+"\n", stdout.String())
}
