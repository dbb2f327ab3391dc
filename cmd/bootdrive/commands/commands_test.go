package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bootdrive/cmd/bootdrive/commands"
	"go.trai.ch/bootdrive/internal/build"
	"go.trai.ch/bootdrive/internal/core/domain"
)

type call struct {
	method string
	entry  string
	opts   domain.Options
}

type mockApp struct {
	calls   []call
	text    string
	ignores []string
	err     error
}

func (m *mockApp) Run(_ context.Context, entry string, opts domain.Options, out io.Writer) error {
	m.calls = append(m.calls, call{"run", entry, opts})
	_, _ = io.WriteString(out, "\"ok\"\n")
	return m.err
}

func (m *mockApp) Bundle(_ context.Context, entry string, opts domain.Options, out io.Writer) error {
	m.calls = append(m.calls, call{"bundle", entry, opts})
	_, _ = io.WriteString(out, "// bootdrive bundle 0000000000000000 loader v1\n")
	return m.err
}

func (m *mockApp) Exec(_ context.Context, text string, _ io.Writer) error {
	m.calls = append(m.calls, call{method: "exec"})
	m.text = text
	return m.err
}

func (m *mockApp) Graph(_ context.Context, entry string, opts domain.Options, _ io.Writer) error {
	m.calls = append(m.calls, call{"graph", entry, opts})
	return m.err
}

func (m *mockApp) Import(_ context.Context, src string, opts domain.Options, ignores []string) (int, error) {
	m.calls = append(m.calls, call{"import", src, opts})
	m.ignores = ignores
	return 3, m.err
}

type logSettings struct {
	verbose, json bool
}

func (l *logSettings) SetVerbose(enable bool) { l.verbose = enable }
func (l *logSettings) SetJSON(enable bool)    { l.json = enable }

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a, nil)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Run(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		mock := &mockApp{}
		out, err := execute(t, mock, "run", "/src/main.js",
			"--drive", "sqlite://app.db", "--runtime", "bare", "--platform", "linux", "--arch", "arm64",
			"--add-module", "fs", "--add-module", "os", "--absolute-artifact-paths", "--cwd", "/tmp/cache")
		require.NoError(t, err)
		assert.Equal(t, "\"ok\"\n", out)

		require.Len(t, mock.calls, 1)
		assert.Equal(t, "run", mock.calls[0].method)
		assert.Equal(t, "/src/main.js", mock.calls[0].entry)
		assert.Equal(t, domain.Options{
			Drive:                 "sqlite://app.db",
			Runtime:               "bare",
			Platform:              "linux",
			Architecture:          "arm64",
			AdditionalBuiltins:    []string{"fs", "os"},
			AbsoluteArtifactPaths: true,
			Cwd:                   "/tmp/cache",
		}, mock.calls[0].opts)
	})

	t.Run("entry is optional", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, mock, "run")
		require.NoError(t, err)
		assert.Empty(t, mock.calls[0].entry)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{err: errors.New("simulated error")}
		_, err := execute(t, mock, "run", "/index.js")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})
}

func TestCommands_Bundle(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		mock := &mockApp{}
		out, err := execute(t, mock, "bundle")
		require.NoError(t, err)
		assert.Contains(t, out, "// bootdrive bundle")
	})

	t.Run("output file", func(t *testing.T) {
		mock := &mockApp{}
		file := filepath.Join(t.TempDir(), "app.bundle.js")
		out, err := execute(t, mock, "bundle", "/index.js", "-o", file)
		require.NoError(t, err)
		assert.Empty(t, out)

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(data), "// bootdrive bundle")
	})
}

func TestCommands_Exec(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.bundle.js")
	require.NoError(t, os.WriteFile(file, []byte("module text"), 0o600))

	mock := &mockApp{}
	_, err := execute(t, mock, "exec", file)
	require.NoError(t, err)
	assert.Equal(t, "module text", mock.text)

	_, err = execute(t, &mockApp{}, "exec", filepath.Join(t.TempDir(), "missing.js"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read bundle")

	_, err = execute(t, &mockApp{}, "exec")
	require.Error(t, err)
}

func TestCommands_GraphAndImport(t *testing.T) {
	mock := &mockApp{}
	_, err := execute(t, mock, "graph", "lib/index.js")
	require.NoError(t, err)
	assert.Equal(t, "lib/index.js", mock.calls[0].entry)

	out, err := execute(t, mock, "import", "./site", "--drive", "memory:", "--ignore", "*.log")
	require.NoError(t, err)
	assert.Equal(t, "imported 3 files\n", out)
	assert.Equal(t, "./site", mock.calls[1].entry)
	assert.Equal(t, "memory:", mock.calls[1].opts.Drive)
	assert.Equal(t, []string{"*.log"}, mock.ignores)
}

func TestCommands_LogFlags(t *testing.T) {
	logs := &logSettings{}
	cli := commands.New(&mockApp{}, logs)
	cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
	cli.SetArgs([]string{"graph", "-v", "--json"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, logs.verbose)
	assert.True(t, logs.json)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
	assert.Contains(t, out, build.Commit)
}
