package app_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bootdrive/internal/adapters/drive"
	"go.trai.ch/bootdrive/internal/adapters/logger"
	"go.trai.ch/bootdrive/internal/app"
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/bootdrive/internal/core/ports/mocks"
	"go.trai.ch/bootdrive/internal/engine/executor"
	"go.trai.ch/bootdrive/internal/engine/serializer"
	"go.uber.org/mock/gomock"
)

func quietLogger() *logger.Logger {
	l := logger.New()
	l.SetOutput(io.Discard)
	return l
}

func memoryDrive(t *testing.T, files map[string]string) *drive.Memory {
	t.Helper()
	d := drive.NewMemory()
	for p, content := range files {
		require.NoError(t, d.Put(context.Background(), p, []byte(content)))
	}
	return d
}

func newBoot(t *testing.T, d *drive.Memory, opts domain.Options, bootOpts ...app.BootOption) *app.Boot {
	t.Helper()
	if opts.Cwd == "" {
		opts.Cwd = t.TempDir()
	}
	boot, err := app.NewBoot(d, opts, append([]app.BootOption{app.WithLogger(quietLogger())}, bootOpts...)...)
	require.NoError(t, err)
	return boot
}

func TestBoot_StartHello(t *testing.T) {
	d := memoryDrive(t, map[string]string{"/index.js": `module.exports = "hello"`})
	boot := newBoot(t, d, domain.Options{})

	v, err := boot.Start(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "hello", app.Exports(v))
	assert.Equal(t, "/index.js", boot.Entry())
}

func TestBoot_EntrypointFromManifest(t *testing.T) {
	d := memoryDrive(t, map[string]string{
		"/package.json": `{"name": "app", "main": "lib/main.js"}`,
		"/lib/main.js":  `module.exports = { from: __filename, dir: __dirname }`,
	})
	boot := newBoot(t, d, domain.Options{})

	v, err := boot.Start(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"from": "/lib/main.js", "dir": "/lib"}, app.Exports(v))
}

func TestBoot_ConfiguredEntrypoint(t *testing.T) {
	d := memoryDrive(t, map[string]string{
		"/index.js": `module.exports = "index"`,
		"/other.js": `module.exports = "other"`,
	})
	boot := newBoot(t, d, domain.Options{Entrypoint: "other.js"})

	v, err := boot.Start(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "other", app.Exports(v))

	v, err = boot.Start(context.Background(), "/index.js")
	require.NoError(t, err)
	assert.Equal(t, "index", app.Exports(v))
}

func TestBoot_MissingEntry(t *testing.T) {
	boot := newBoot(t, memoryDrive(t, nil), domain.Options{})

	_, err := boot.Start(context.Background(), "/nope.js")
	require.ErrorIs(t, err, domain.ErrMissingSource)
	assert.Contains(t, err.Error(), "ENOENT: /nope.js")
}

func TestBoot_SourceOverwrites(t *testing.T) {
	d := memoryDrive(t, map[string]string{
		"/index.js":  `module.exports = require('./config')`,
		"/config.js": `module.exports = { env: 'prod' }`,
	})
	boot := newBoot(t, d, domain.Options{
		SourceOverwrites: map[string]string{"config.js": `module.exports = { env: 'test' }`},
	})

	v, err := boot.Start(context.Background(), "/index.js")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"env": "test"}, app.Exports(v))
}

func TestBoot_AdditionalBuiltins(t *testing.T) {
	d := memoryDrive(t, map[string]string{"/index.js": `module.exports = require('fs')`})
	boot := newBoot(t, d, domain.Options{AdditionalBuiltins: []string{"fs"}})

	bundle, err := boot.Bundle(context.Background(), "/index.js")
	require.NoError(t, err)
	assert.Equal(t, domain.Require{Target: "fs", IsBuiltin: true}, bundle.Modules["/index.js"].Requires["fs"])
	assert.Contains(t, bundle.Builtins, "fs")

	// The host has no fs module, so its own error surfaces.
	_, err = boot.Start(context.Background(), "/index.js")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnresolvedImport)
}

func TestBoot_ExternalGraphIsReused(t *testing.T) {
	files := map[string]string{
		"/index.js": `module.exports = require('./a').value * 2`,
		"/a.js":     `exports.value = 21`,
	}
	graph := domain.NewGraph()
	first := newBoot(t, memoryDrive(t, files), domain.Options{}, app.WithGraph(graph))
	_, err := first.Warmup(context.Background(), "/index.js")
	require.NoError(t, err)
	assert.Equal(t, 2, graph.Len())

	ctrl := gomock.NewController(t)
	mockDrive := mocks.NewMockDrive(ctrl)
	second, err := app.NewBoot(mockDrive, domain.Options{Cwd: t.TempDir()},
		app.WithGraph(graph), app.WithLogger(quietLogger()))
	require.NoError(t, err)

	v, err := second.Start(context.Background(), "/index.js")
	require.NoError(t, err)
	assert.Equal(t, int64(42), app.Exports(v))
}

// countingDrive counts every read that reaches the underlying drive.
type countingDrive struct {
	ports.Drive
	reads atomic.Int64
}

func (c *countingDrive) Get(ctx context.Context, p string) ([]byte, error) {
	c.reads.Add(1)
	return c.Drive.Get(ctx, p)
}

func (c *countingDrive) Readdir(ctx context.Context, p string) ([]string, error) {
	c.reads.Add(1)
	return c.Drive.Readdir(ctx, p)
}

func (c *countingDrive) Stat(ctx context.Context, p string) (*ports.Entry, error) {
	c.reads.Add(1)
	return c.Drive.Stat(ctx, p)
}

func TestBoot_RepeatWarmupReadsNothing(t *testing.T) {
	files := map[string]string{
		"/package.json": `{"name": "app", "main": "lib/main.js"}`,
		"/lib/main.js":  `module.exports = require('./dep')`,
		"/lib/dep.js":   `module.exports = 1`,
	}

	tests := []struct {
		name string
		opts []app.BootOption
	}{
		{name: "session graph"},
		{name: "external graph", opts: []app.BootOption{app.WithGraph(domain.NewGraph())}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			d := &countingDrive{Drive: memoryDrive(t, files)}
			boot, err := app.NewBoot(d, domain.Options{Cwd: t.TempDir()},
				append([]app.BootOption{app.WithLogger(quietLogger())}, tt.opts...)...)
			require.NoError(t, err)

			entry, err := boot.Warmup(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, "/lib/main.js", entry)
			before := d.reads.Load()
			assert.Positive(t, before)

			entry, err = boot.Warmup(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, "/lib/main.js", entry)
			assert.Equal(t, before, d.reads.Load())
		})
	}
}

func TestBoot_ReusedGraphRebindsCachedAddons(t *testing.T) {
	d := memoryDrive(t, map[string]string{
		"/index.js":                                       `module.exports = require('sodium')`,
		"/node_modules/sodium/package.json":               `{"name": "sodium", "version": "1.2.3"}`,
		"/node_modules/sodium/index.js":                   `module.exports = require('node-gyp-build')(__dirname)`,
		"/node_modules/sodium/prebuilds/linux-x64/s.node": "ELF",
	})
	opts := domain.Options{Cwd: t.TempDir(), Platform: "linux", Architecture: "x64", Runtime: "node"}
	graph := domain.NewGraph()

	first := newBoot(t, d, opts, app.WithGraph(graph))
	_, err := first.Start(context.Background(), "/index.js")
	require.NoError(t, err)

	// The artifact is already cached, so the second session never touches the drive.
	ctrl := gomock.NewController(t)
	second, err := app.NewBoot(mocks.NewMockDrive(ctrl), opts,
		app.WithGraph(graph), app.WithLogger(quietLogger()))
	require.NoError(t, err)

	v, err := second.Start(context.Background(), "/index.js")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"path":    "prebuilds/linux-x64/sodium@1.2.3.node",
		"dirname": "/node_modules/sodium",
		"name":    "sodium",
		"version": "1.2.3",
		"variant": "primary",
	}, app.Exports(v))
	assert.Contains(t, second.Bindings(), "/node_modules/sodium")
}

func TestBoot_SharedCache(t *testing.T) {
	d := memoryDrive(t, map[string]string{
		"/a.js":      `module.exports = require('./shared')`,
		"/b.js":      `module.exports = require('./shared')`,
		"/shared.js": `globalThis.loads = (globalThis.loads || 0) + 1; module.exports = { loads: globalThis.loads }`,
	})
	cache := executor.NewCache()
	boot := newBoot(t, d, domain.Options{}, app.WithCache(cache))

	a, err := boot.Start(context.Background(), "/a.js")
	require.NoError(t, err)
	b, err := boot.Start(context.Background(), "/b.js")
	require.NoError(t, err)

	assert.Same(t, a.ToObject(cache.Runtime()), b.ToObject(cache.Runtime()))
	assert.Equal(t, executor.StateExported, cache.State("/shared.js"))
	assert.Same(t, cache, boot.Cache())
}

func TestBoot_StringifyRoundTrip(t *testing.T) {
	d := memoryDrive(t, map[string]string{
		"/index.js": `
const b = require('./b')
exports.name = 'a'
exports.b = b
`,
		"/b.js": `exports.a = require('./index')`,
	})
	boot := newBoot(t, d, domain.Options{})

	text, err := boot.Stringify(context.Background(), "/index.js")
	require.NoError(t, err)

	live, err := boot.Start(context.Background(), "/index.js")
	require.NoError(t, err)
	frozen, err := serializer.Evaluate(text)
	require.NoError(t, err)

	assert.Equal(t, executor.Inspect(live), executor.Inspect(frozen))
	assert.Equal(t, `<ref *1> {name: "a", b: {a: [Circular *1]}}`, executor.Inspect(frozen))
}

func TestBoot_Addon(t *testing.T) {
	d := memoryDrive(t, map[string]string{
		"/index.js":                                       `module.exports = require('sodium')`,
		"/node_modules/sodium/package.json":               `{"name": "sodium", "version": "1.2.3"}`,
		"/node_modules/sodium/index.js":                   `module.exports = require('node-gyp-build')(__dirname)`,
		"/node_modules/sodium/prebuilds/linux-x64/s.node": "ELF",
	})
	cwd := t.TempDir()
	boot := newBoot(t, d, domain.Options{Cwd: cwd, Platform: "linux", Architecture: "x64", Runtime: "node"})

	v, err := boot.Start(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"path":    "prebuilds/linux-x64/sodium@1.2.3.node",
		"dirname": "/node_modules/sodium",
		"name":    "sodium",
		"version": "1.2.3",
		"variant": "primary",
	}, app.Exports(v))

	data, err := os.ReadFile(filepath.Join(cwd, "prebuilds", "linux-x64", "sodium@1.2.3.node"))
	require.NoError(t, err)
	assert.Equal(t, "ELF", string(data))
	assert.Contains(t, boot.Bindings(), "/node_modules/sodium")
}

func TestBoot_AbsoluteArtifactPaths(t *testing.T) {
	d := memoryDrive(t, map[string]string{
		"/index.js":                     `require('node-gyp-build')(__dirname)`,
		"/package.json":                 `{"name": "root", "version": "0.1.0"}`,
		"/prebuilds/linux-arm64/x.bare": "bare",
	})
	cwd := t.TempDir()
	boot := newBoot(t, d, domain.Options{
		Cwd: cwd, Platform: "linux", Architecture: "arm64", Runtime: "node", AbsoluteArtifactPaths: true,
	})

	bundle, err := boot.Bundle(context.Background(), "/index.js")
	require.NoError(t, err)
	binding := bundle.Addons["/"]
	assert.Equal(t, domain.VariantSecondary, binding.Variant)
	assert.Equal(t, filepath.Join(cwd, "prebuilds", "linux-arm64", "root@0.1.0.bare"), binding.Path)
}

func TestNewBoot_InvalidRuntime(t *testing.T) {
	_, err := app.NewBoot(drive.NewMemory(), domain.Options{Runtime: "deno"})
	require.ErrorIs(t, err, domain.ErrInvalidRuntimeFamily)
}
