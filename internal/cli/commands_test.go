package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travisjeffery/writegood/internal/session"
)

const helloDoc = `{"object":"document","nodes":[{"object":"block","type":"paragraph","nodes":[{"object":"text","text":"hello"}]}]}`

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func TestNormalizeCommand(t *testing.T) {
	dir := t.TempDir()

	t.Run("already normalized", func(t *testing.T) {
		path := writeFile(t, dir, "hello.json", helloDoc)
		out, err := execute(t, "normalize", path)
		require.NoError(t, err)
		assert.Equal(t, `{"nodes":[{"nodes":[{"object":"text","text":"hello"}],"object":"block","type":"paragraph"}],"object":"document"}`+"\n", out)
	})

	t.Run("empty document gets a paragraph", func(t *testing.T) {
		path := writeFile(t, dir, "empty.yaml", "object: document\nnodes: []\n")
		out, err := execute(t, "--format", "json", "normalize", path)
		require.NoError(t, err)

		resp := decodeResponse(t, out)
		assert.Equal(t, "ok", resp.Status)
		data := resp.Data.(map[string]any)
		assert.Equal(t, []any{"no-empty"}, data["fired"])
		assert.Equal(t, "", data["text"])
	})

	t.Run("stdin", func(t *testing.T) {
		cmd := NewRootCommand()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader(helloDoc))
		cmd.SetArgs([]string{"normalize", "-"})
		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), `"text":"hello"`)
	})

	t.Run("unreadable", func(t *testing.T) {
		_, err := execute(t, "normalize", filepath.Join(dir, "missing.json"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("malformed", func(t *testing.T) {
		path := writeFile(t, dir, "bad.json", `{"object":"document","nodes":[{"object":"text","text":"x"}]}`)
		out, err := execute(t, "--format", "json", "normalize", path)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Equal(t, ErrCodeInvalid, decodeResponse(t, out).Error.Code)
	})
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		out, err := execute(t, "validate", writeFile(t, dir, "ok.json", helloDoc))
		require.NoError(t, err)
		assert.Contains(t, out, "Document is valid")
	})

	t.Run("violations", func(t *testing.T) {
		path := writeFile(t, dir, "empty.json", `{"object":"document","nodes":[]}`)
		out, err := execute(t, "validate", path)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "no-empty at [")
	})

	t.Run("violations json", func(t *testing.T) {
		path := writeFile(t, dir, "empty2.json", `{"object":"document","nodes":[]}`)
		out, err := execute(t, "--format", "json", "validate", path)
		require.Error(t, err)

		resp := decodeResponse(t, out)
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
		details := resp.Error.Details.([]any)
		require.Len(t, details, 1)
		assert.Equal(t, "no-empty", details[0].(map[string]any)["plugin"])
	})
}

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	docPath := writeFile(t, dir, "draft.json", helloDoc)
	opsPath := writeFile(t, dir, "ops.yaml", "- {type: insert_text, path: [0, 0], offset: 5, text: \" world\"}\n")

	t.Run("prints the edited tree", func(t *testing.T) {
		out, err := execute(t, "apply", docPath, opsPath)
		require.NoError(t, err)
		assert.Contains(t, out, `"text":"hello world"`)
	})

	t.Run("invalid path", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.yaml", "- {type: remove_node, path: [4]}\n")
		out, err := execute(t, "--format", "json", "apply", docPath, bad)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Equal(t, ErrCodeApply, decodeResponse(t, out).Error.Code)
	})

	t.Run("undecodable operations", func(t *testing.T) {
		bad := writeFile(t, dir, "junk.yaml", "- {type: insert_text, path: nope}\n")
		_, err := execute(t, "apply", docPath, bad)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestApplyExportLog_Database(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "writegood.db")
	docPath := writeFile(t, dir, "draft.json", helloDoc)
	opsPath := writeFile(t, dir, "ops.json", `[{"type":"insert_text","path":[0,0],"offset":0,"text":"oh "}]`)

	applyOnce := func() CLIResponse {
		t.Helper()
		out := &bytes.Buffer{}
		opts := &ApplyOptions{
			RootOptions: &RootOptions{Format: "json"},
			Database:    dbPath,
			Generator:   session.NewFixedGenerator("v1", "v2", "v3"),
		}
		cmd := NewApplyCommand(opts.RootOptions)
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{docPath, opsPath})
		cmd.RunE = func(c *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1], c)
		}
		require.NoError(t, cmd.Execute())
		return decodeResponse(t, out.String())
	}

	resp := applyOnce()
	data := resp.Data.(map[string]any)
	assert.Equal(t, "v3", data["version"])
	assert.Equal(t, "oh hello", data["text"])

	// Applying again to an existing id records a replace before the edit.
	applyOnce()

	out, err := execute(t, "--format", "json", "log", "--db", dbPath, "draft")
	require.NoError(t, err)
	entries := decodeResponse(t, out).Data.([]any)
	require.Len(t, entries, 4)
	sources := make([]string, len(entries))
	for i, e := range entries {
		sources[i] = e.(map[string]any)["source"].(string)
	}
	assert.Equal(t, "create", entries[0].(map[string]any)["type"])
	assert.Equal(t, []string{"replace", "dispatch"}, sources[2:])
	assert.Equal(t, "oh hello", entries[3].(map[string]any)["text"])

	out, err = execute(t, "log", "--db", dbPath, "--diffs", "draft")
	require.NoError(t, err)
	assert.Contains(t, out, "<ins")

	out, err = execute(t, "export", "--db", dbPath, "draft")
	require.NoError(t, err)
	assert.Equal(t, "<p>oh hello</p>\n", out)

	_, err = execute(t, "log", "--db", dbPath, "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	docPath := writeFile(t, dir, "draft.json", helloDoc)

	t.Run("stdout", func(t *testing.T) {
		out, err := execute(t, "export", docPath)
		require.NoError(t, err)
		assert.Equal(t, "<p>hello</p>\n", out)
	})

	t.Run("file", func(t *testing.T) {
		htmlPath := filepath.Join(dir, "draft.html")
		out, err := execute(t, "export", docPath, "-o", htmlPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Exported to")
		assert.FileExists(t, htmlPath)
	})

	t.Run("missing database", func(t *testing.T) {
		_, err := execute(t, "export", "--db", filepath.Join(dir, "none.db"), "draft")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestTestCommand(t *testing.T) {
	scenarios := filepath.Join("..", "harness", "testdata", "scenarios")

	t.Run("all pass", func(t *testing.T) {
		out, err := execute(t, "test", scenarios)
		require.NoError(t, err)
		assert.Contains(t, out, "✓ paste_link")
		assert.Contains(t, out, "3 passed, 0 failed, 3 total")
	})

	t.Run("filter json", func(t *testing.T) {
		out, err := execute(t, "--format", "json", "test", scenarios, "--filter", "no_*")
		require.NoError(t, err)
		result := decodeResponse(t, out).Data.(map[string]any)
		assert.EqualValues(t, 1, result["total"])
	})

	t.Run("golden mismatch", func(t *testing.T) {
		golden := t.TempDir()
		writeFile(t, golden, "paste_link.golden", "{}")
		out, err := execute(t, "test", scenarios, "--filter", "paste_link", "--golden", golden)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "does not match golden file")
	})

	t.Run("update", func(t *testing.T) {
		golden := t.TempDir()
		_, err := execute(t, "test", scenarios, "--update", "--golden", golden)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(golden, "lists_and_replace.golden"))
	})

	t.Run("missing dir", func(t *testing.T) {
		_, err := execute(t, "test", "/nonexistent/scenarios")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("empty dir", func(t *testing.T) {
		out, err := execute(t, "test", t.TempDir())
		require.NoError(t, err)
		assert.Contains(t, out, "No scenarios found")
	})
}
