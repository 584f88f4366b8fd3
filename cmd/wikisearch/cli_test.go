package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("WIKISEARCH_CONFIG", "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--no-color"}, args...))

	err := cmd.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSearchLines(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.md", "resolve.alias settings\n\nmodule rules\n")

	out, err := execute(t, "", "search", "alias", path, "--limit", "1")
	require.NoError(t, err)

	assert.Equal(t, path+":1: resolve.alias settings (0.080)\n", out)
}

func TestSearchLinesStdin(t *testing.T) {
	out, err := execute(t, "alpha\nbeta\n", "search", "beta", "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, "-:2: beta (0.000)\n", out)
}

func TestSearchLinesJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.md", "resolve.alias settings\nmodule rules\n")

	out, err := execute(t, "", "search", "alias", path, "--limit", "1", "--json")
	require.NoError(t, err)

	var matches []lineMatch
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, path, matches[0].Path)
	assert.Equal(t, 1, matches[0].Line)
	assert.Equal(t, "resolve.alias settings", matches[0].Text)
	assert.InDelta(t, 0.08, matches[0].Score, 1e-9)
	assert.Contains(t, matches[0].Locations, 8)
}

func TestSearchCaseSensitiveFlag(t *testing.T) {
	out, err := execute(t, "HELLO\n", "search", "hello", "--threshold", "0.1")
	require.NoError(t, err)
	assert.Contains(t, out, "HELLO")

	out, err = execute(t, "HELLO\n", "search", "hello", "--threshold", "0.1", "--case-sensitive")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSearchConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "wikisearch.toml", "[search]\nlimit = 1\n")

	out, err := execute(t, "go\ngo\ngo\n", "--config", cfgPath, "search", "go")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestSearchRejectsInvalidFlags(t *testing.T) {
	_, err := execute(t, "x\n", "search", "x", "--threshold=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.threshold")
}

func TestSearchPatternTooLong(t *testing.T) {
	_, err := execute(t, "x\n", "search", strings.Repeat("a", 33))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too long")
}

func TestQuery(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.md", "alpha one\nbeta two\n")

	out, err := execute(t, "beta\n", "query", path)
	require.NoError(t, err)
	assert.Equal(t, "> beta\n"+path+":2: beta two (0.000)\n", out)
}

func TestQueryLatestWins(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.md", "alpha one\nbeta two\n")

	out, err := execute(t, "alpha\nbeta\n", "query", path, "--threshold", "0.2")
	require.NoError(t, err)
	assert.Contains(t, out, "> alpha\n")

	// Earlier output may be cut short, but everything after the last
	// header belongs to the last query.
	idx := strings.LastIndex(out, "> beta\n")
	require.GreaterOrEqual(t, idx, 0, out)
	assert.Equal(t, path+":2: beta two (0.000)\n", out[idx+len("> beta\n"):])
}

func TestQueryBadQueryContinues(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.md", "alpha one\n")

	out, err := execute(t, strings.Repeat("q", 40)+"\nalpha\n", "query", path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "> alpha\n"+path+":1: alpha one (0.000)\n"), out)
}

func TestQueryNeedsFiles(t *testing.T) {
	_, err := execute(t, "alpha\n", "query")
	require.Error(t, err)
}

func TestSearchPages(t *testing.T) {
	dir := t.TempDir()
	config := writeFile(t, dir, "config.md", "# Configuration\n\nSet values here.\n")
	guide := writeFile(t, dir, "guide.md", "# Guide\n\nUse resolve.alias to shorten imports.\n")

	out, err := execute(t, "", "search", "--pages", "configuration", config, guide, "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, "Configuration ("+config+") 0.000\n", out)

	out, err = execute(t, "", "search", "--pages", "alias", config, guide)
	require.NoError(t, err)
	assert.Contains(t, out, "Guide ("+guide+")")
	assert.Contains(t, out, "  3: Use resolve.alias to shorten imports.")
}

func TestSearchPagesJSON(t *testing.T) {
	dir := t.TempDir()
	guide := writeFile(t, dir, "guide.md", "# Guide\n\nUse resolve.alias to shorten imports.\n")

	out, err := execute(t, "", "search", "--pages", "--json", "guide", guide)
	require.NoError(t, err)

	var matches []pageMatch
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	require.NotEmpty(t, matches)
	assert.Equal(t, "Guide", matches[0].Title)
	assert.Equal(t, "title", matches[0].Field)
	assert.Zero(t, matches[0].Score)
}

func TestSearchPagesNeedsFiles(t *testing.T) {
	_, err := execute(t, "", "search", "--pages", "x")
	require.Error(t, err)
}

func TestSearchMissingFile(t *testing.T) {
	_, err := execute(t, "", "search", "x", filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.md")
}

func TestRenderStdin(t *testing.T) {
	out, err := execute(t, "# Intro\n\ntext\n", "render")
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="contents">`)
	assert.Contains(t, out, `<h1 id="intro">`)
	assert.Contains(t, out, "<p>text</p>")
}

func TestRenderFileNoRefs(t *testing.T) {
	path := writeFile(t, t.TempDir(), "page.md", "# Intro\n\nSee [[Other Page]].\n")

	out, err := execute(t, "", "render", path, "--no-refs")
	require.NoError(t, err)

	assert.Contains(t, out, "<h1>Intro</h1>")
	assert.Contains(t, out, `<a href="other-page.html">Other Page</a>`)
	assert.NotContains(t, out, "contents")
}

func TestRenderNoRefsFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "wikisearch.yaml", "render:\n  noRefs: true\n")

	out, err := execute(t, "# Intro\n", "--config", cfgPath, "render")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Intro</h1>")
}

func TestHighlight(t *testing.T) {
	colored := color.New(color.FgRed)
	colored.EnableColor()
	plain := color.New(color.FgRed)
	plain.DisableColor()

	assert.Equal(t, "abc", highlight("abc", nil, 2, colored))
	assert.Equal(t, "abc", highlight("abc", []int{0}, 0, colored))

	out := highlight("xxabcxx", []int{2}, 3, colored)
	assert.True(t, strings.HasPrefix(out, "xx"), out)
	assert.True(t, strings.HasSuffix(out, "xx"), out)
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "\x1b[")

	assert.Equal(t, "日本語", highlight("日本語", []int{1, 2}, 5, plain))
}

func TestHighlightTrimmedPattern(t *testing.T) {
	assert.Equal(t, 3, matchWidth("  abc "))
	assert.Equal(t, 2, matchWidth("\t日本\n"))

	colored := color.New(color.FgRed)
	colored.EnableColor()

	out := highlight("xxabcxx", []int{2}, matchWidth("  abc"), colored)
	assert.Equal(t, "xx"+colored.Sprint("abc")+"xx", out)
}

func TestRenderOutputFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "page.md", "# Intro\n")
	out := filepath.Join(dir, "page.html")

	stdout, err := execute(t, "", "render", in, "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<h1 id="intro">`)
}

func TestRenderWatchNeedsFile(t *testing.T) {
	_, err := execute(t, "# x\n", "render", "--watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch")
}

func TestRenderWatch(t *testing.T) {
	t.Setenv("WIKISEARCH_CONFIG", "")
	dir := t.TempDir()
	in := writeFile(t, dir, "page.md", "# Before\n")
	out := filepath.Join(dir, "page.html")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--no-color", "render", in, "-o", out, "--watch"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		data, _ := os.ReadFile(out)
		return strings.Contains(string(data), "Before")
	}, 2*time.Second, 20*time.Millisecond)

	// The watcher is registered after the first render; rewrite the input
	// every few polls, slower than the debounce delay, until it is seen.
	polls := 0
	require.Eventually(t, func() bool {
		if polls%5 == 0 {
			_ = os.WriteFile(in, []byte("# After\n"), 0o644)
		}
		polls++
		data, _ := os.ReadFile(out)
		return strings.Contains(string(data), "After")
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("render --watch did not stop after cancel")
	}
}
