package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemill/pagemill/internal/scan"
	"github.com/pagemill/pagemill/internal/store"
)

func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--dir", dir}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func addTestPages(t *testing.T, dir string, n int) {
	t.Helper()
	args := []string{"add"}
	for i := 0; i < n; i++ {
		src := filepath.Join(dir, "src", "page"+string(rune('a'+i))+".png")
		require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
		require.NoError(t, os.WriteFile(src, []byte("not really a png"), 0o644))
		args = append(args, src)
	}
	_, err := runCLI(t, dir, args...)
	require.NoError(t, err)
}

func listJSON(t *testing.T, dir string) []pageView {
	t.Helper()
	out, err := runCLI(t, dir, "--format", "json", "ls")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   []pageView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "--format", "xml", "ls")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAddAndList(t *testing.T) {
	dir := t.TempDir()
	addTestPages(t, dir, 2)

	pages := listJSON(t, dir)
	require.Len(t, pages, 2)
	for i, p := range pages {
		assert.Equal(t, i, p.Order)
		assert.Equal(t, "Initial", p.Status)
		assert.Equal(t, "none", p.Recognition)
	}
}

func TestAddAnchorsAreExclusive(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "add", "--after", "1", "--before", "2", "x.png")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSetRequiresAParameterFlag(t *testing.T) {
	dir := t.TempDir()
	addTestPages(t, dir, 1)

	_, err := runCLI(t, dir, "set", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSetProfile(t *testing.T) {
	dir := t.TempDir()
	addTestPages(t, dir, 1)

	_, err := runCLI(t, dir, "set", "1", "--profile", "Bitonal")
	require.NoError(t, err)

	pages := listJSON(t, dir)
	require.Len(t, pages, 1)
	assert.Equal(t, "Bitonal", pages[0].Profile)
}

func TestSetRejectsBadCutout(t *testing.T) {
	dir := t.TempDir()
	addTestPages(t, dir, 1)

	for _, cutout := range []string{"0.1,0.2,0.3", "0.5,0.5,0.4,0.9", "a,b,c,d", "0,-1,1,1"} {
		_, err := runCLI(t, dir, "set", "1", "--cutout", cutout)
		require.Error(t, err, "cutout %q", cutout)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	}
}

func TestMoveAndRemove(t *testing.T) {
	dir := t.TempDir()
	addTestPages(t, dir, 3)

	_, err := runCLI(t, dir, "move", "3", "1")
	require.NoError(t, err)
	pages := listJSON(t, dir)
	require.Len(t, pages, 3)
	assert.Equal(t, int64(3), pages[0].ID)

	_, err = runCLI(t, dir, "rm", "3")
	require.NoError(t, err)
	pages = listJSON(t, dir)
	require.Len(t, pages, 2)
	assert.Equal(t, int64(1), pages[0].ID)
	assert.Equal(t, 0, pages[0].Order, "order should be compacted")
}

func TestCheckFlow(t *testing.T) {
	dir := t.TempDir()
	addTestPages(t, dir, 3)

	_, err := runCLI(t, dir, "check", "cleanup", "1", "2")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "check", "cleanup", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "1, 2")

	// Unchecking removes from the view.
	_, err = runCLI(t, dir, "check", "cleanup", "--off", "2")
	require.NoError(t, err)
	out, err = runCLI(t, dir, "check", "cleanup", "--list")
	require.NoError(t, err)
	assert.NotContains(t, out, "2")

	_, err = runCLI(t, dir, "check", "cleanup", "--delete")
	require.NoError(t, err)
	pages := listJSON(t, dir)
	require.Len(t, pages, 2)
}

func TestRecognizeQueuesJob(t *testing.T) {
	dir := t.TempDir()
	addTestPages(t, dir, 1)

	_, err := runCLI(t, dir, "recognize", "1", "--languages", "eng,deu")
	require.NoError(t, err)

	pages := listJSON(t, dir)
	require.Len(t, pages, 1)
	assert.Equal(t, "pending", pages[0].Recognition)
}

func TestRecognizeShowWithoutText(t *testing.T) {
	dir := t.TempDir()
	addTestPages(t, dir, 1)

	_, err := runCLI(t, dir, "recognize", "1", "--show")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestShareTextQueuesRecognition(t *testing.T) {
	dir := t.TempDir()
	addTestPages(t, dir, 2)

	out, err := runCLI(t, dir, "share", "--as", "text", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "queued session")

	// Pages without text got a recognition request alongside the session.
	pages := listJSON(t, dir)
	for _, p := range pages {
		assert.Equal(t, "pending", p.Recognition)
	}

	st, err := store.Open(filepath.Join(dir, "pagemill.db"))
	require.NoError(t, err)
	defer st.Close()
	items, err := st.ShareItems(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestShareRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "share", "--as", "docx", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestShareCheckedView(t *testing.T) {
	dir := t.TempDir()
	addTestPages(t, dir, 3)

	_, err := runCLI(t, dir, "check", "export", "1", "3")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "share", "--as", "png", "--checked", "export")
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(dir, "pagemill.db"))
	require.NoError(t, err)
	defer st.Close()
	items, err := st.ShareItems(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].PageID)
	assert.Equal(t, int64(3), items[1].PageID)
}

func TestGCOnEmptyStore(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "gc")
	require.NoError(t, err)
	assert.Contains(t, out, "garbage collected")
}

func TestParsePageIDs(t *testing.T) {
	ids, err := parsePageIDs([]string{"1", "42"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 42}, ids)

	_, err = parsePageIDs([]string{"seven"})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestViewOfRecognitionStates(t *testing.T) {
	row := store.PageRow{RecCounter: scan.CounterReady}
	assert.Equal(t, "ready", viewOf(row).Recognition)
	row.RecCounter = 3
	assert.Equal(t, "pending", viewOf(row).Recognition)
	row.RecCounter = scan.CounterNothing
	assert.Equal(t, "none", viewOf(row).Recognition)
}
