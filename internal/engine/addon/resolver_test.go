package addon_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bootdrive/internal/adapters/drive"
	"go.trai.ch/bootdrive/internal/adapters/logger"
	"go.trai.ch/bootdrive/internal/adapters/telemetry"
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/bootdrive/internal/core/ports/mocks"
	"go.trai.ch/bootdrive/internal/engine/addon"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var linux = domain.Target{Platform: "linux", Arch: "x64", Family: domain.FamilyNode}

func newResolver(d ports.Drive, cwd string) *addon.Resolver {
	lg := logger.New()
	lg.SetOutput(io.Discard)
	return addon.New(d, linux, cwd, lg, telemetry.NewNoOp())
}

func addonModule(p string) *domain.Module {
	m := domain.NewModule(p, "module.exports = require('node-gyp-build')(__dirname)")
	m.Resolutions = []domain.Resolution{{Input: domain.AddonRequest}}
	m.Package = &domain.PackageInfo{Name: "sodium", Version: "1.0.0", Dir: "/node_modules/sodium"}
	return m
}

func seed(t *testing.T, files map[string]string) *drive.Memory {
	t.Helper()
	d := drive.NewMemory()
	for p, data := range files {
		require.NoError(t, d.Put(context.Background(), p, []byte(data)))
	}
	return d
}

func TestResolve_NoAddonEdge(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := newResolver(mocks.NewMockDrive(ctrl), t.TempDir())

	b, err := r.Resolve(context.Background(), domain.NewModule("/index.js", ""))
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestResolve_FallbackTwoLevelsUp(t *testing.T) {
	cwd := t.TempDir()
	d := seed(t, map[string]string{
		"/node_modules/prebuilds/linux-x64/sodium.bare": "bare-binary",
	})

	m := addonModule("/node_modules/sodium/lib/binding.js")
	b, err := newResolver(d, cwd).Resolve(context.Background(), m)
	require.NoError(t, err)
	require.NotNil(t, b)

	assert.Equal(t, domain.VariantSecondary, b.Variant)
	assert.Equal(t, "/node_modules/sodium/lib", b.Dir)
	assert.Equal(t, "prebuilds/linux-x64/sodium@1.0.0.bare", b.Path)
	assert.Equal(t, filepath.Join(cwd, "prebuilds", "linux-x64", "sodium@1.0.0.bare"), b.Local)

	data, err := os.ReadFile(b.Local)
	require.NoError(t, err)
	assert.Equal(t, "bare-binary", string(data))

	t.Run("second warm-up hits the cache without touching the drive", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		again, err := newResolver(mocks.NewMockDrive(ctrl), cwd).Resolve(context.Background(), m)
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, domain.VariantSecondary, again.Variant)
		assert.Equal(t, b.Local, again.Local)
	})
}

func TestResolve_Precedence(t *testing.T) {
	const dir = "/node_modules/sodium/lib"

	tests := []struct {
		name        string
		files       map[string]string
		wantVariant domain.Variant
		wantSource  string
	}{
		{
			name: "preferred in the module folder",
			files: map[string]string{
				dir + "/prebuilds/linux-x64/a.bare": "bare",
				dir + "/prebuilds/linux-x64/b.node": "node",
			},
			wantVariant: domain.VariantPrimary,
			wantSource:  "node",
		},
		{
			name: "preferred one level above a fallback",
			files: map[string]string{
				dir + "/prebuilds/linux-x64/a.bare":               "bare",
				"/node_modules/sodium/prebuilds/linux-x64/b.node": "node",
			},
			wantVariant: domain.VariantPrimary,
			wantSource:  "node",
		},
		{
			name: "preferred two levels above a fallback is not reached",
			files: map[string]string{
				dir + "/prebuilds/linux-x64/a.bare":        "bare",
				"/node_modules/prebuilds/linux-x64/b.node": "node",
			},
			wantVariant: domain.VariantSecondary,
			wantSource:  "bare",
		},
		{
			name: "closer preferred wins over a farther one",
			files: map[string]string{
				"/node_modules/sodium/prebuilds/linux-x64/near.node": "near",
				"/prebuilds/linux-x64/far.node":                      "far",
			},
			wantVariant: domain.VariantPrimary,
			wantSource:  "near",
		},
		{
			name: "first in sorted order within a folder",
			files: map[string]string{
				dir + "/prebuilds/linux-x64/z.node": "z",
				dir + "/prebuilds/linux-x64/a.node": "a",
			},
			wantVariant: domain.VariantPrimary,
			wantSource:  "a",
		},
		{
			name: "other targets are ignored",
			files: map[string]string{
				dir + "/prebuilds/darwin-arm64/a.node": "darwin",
				"/prebuilds/linux-x64/root.bare":       "root",
			},
			wantVariant: domain.VariantSecondary,
			wantSource:  "root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := newResolver(seed(t, tt.files), t.TempDir()).Resolve(context.Background(), addonModule(dir+"/binding.js"))
			require.NoError(t, err)
			require.NotNil(t, b)
			assert.Equal(t, tt.wantVariant, b.Variant)

			data, err := os.ReadFile(b.Local)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, string(data))
		})
	}
}

func TestResolve_NotFoundIsDeferred(t *testing.T) {
	cwd := t.TempDir()
	r := newResolver(drive.NewMemory(), cwd)

	b, err := r.Resolve(context.Background(), addonModule("/node_modules/sodium/index.js"))
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Empty(t, r.Bindings())

	_, statErr := os.Stat(filepath.Join(cwd, "prebuilds"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestResolve_ReverifiesMemoizedBinding(t *testing.T) {
	d := seed(t, map[string]string{
		"/node_modules/sodium/prebuilds/linux-x64/sodium.node": "binary",
	})
	r := newResolver(d, t.TempDir())
	m := addonModule("/node_modules/sodium/index.js")

	b, err := r.Resolve(context.Background(), m)
	require.NoError(t, err)
	require.NotNil(t, b)
	require.NoError(t, os.Remove(b.Local))

	again, err := r.Resolve(context.Background(), m)
	require.NoError(t, err)
	require.NotNil(t, again)

	data, err := os.ReadFile(again.Local)
	require.NoError(t, err)
	assert.Equal(t, "binary", string(data))

	got, ok := r.Binding("/node_modules/sodium")
	require.True(t, ok)
	assert.Equal(t, domain.VariantPrimary, got.Variant)
}

func TestResolve_ConcurrentWarmupsConverge(t *testing.T) {
	cwd := t.TempDir()
	d := seed(t, map[string]string{
		"/node_modules/sodium/prebuilds/linux-x64/sodium.node": "binary",
	})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = newResolver(d, cwd).Resolve(context.Background(), addonModule("/node_modules/sodium/index.js"))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(filepath.Join(cwd, "prebuilds", "linux-x64"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sodium@1.0.0.node", entries[0].Name())
}

func TestResolve_BareFamilyPrefersBare(t *testing.T) {
	d := seed(t, map[string]string{
		"/node_modules/sodium/prebuilds/linux-x64/a.bare": "bare",
		"/node_modules/sodium/prebuilds/linux-x64/b.node": "node",
	})
	lg := logger.New()
	lg.SetOutput(io.Discard)
	target := domain.Target{Platform: "linux", Arch: "x64", Family: domain.FamilyBare}
	r := addon.New(d, target, t.TempDir(), lg, telemetry.NewNoOp())

	b, err := r.Resolve(context.Background(), addonModule("/node_modules/sodium/index.js"))
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, domain.VariantPrimary, b.Variant)
	assert.Equal(t, "prebuilds/linux-x64/sodium@1.0.0.bare", b.Path)
}
