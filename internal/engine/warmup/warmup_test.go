package warmup_test

import (
	"context"
	"io"
	"iter"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bootdrive/internal/adapters/drive"
	"go.trai.ch/bootdrive/internal/adapters/linker"
	"go.trai.ch/bootdrive/internal/adapters/logger"
	"go.trai.ch/bootdrive/internal/adapters/telemetry"
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/bootdrive/internal/core/ports/mocks"
	"go.trai.ch/bootdrive/internal/engine/warmup"
	"go.uber.org/mock/gomock"
)

type recordingResolver struct {
	seen []string
	err  error
}

func (r *recordingResolver) Resolve(_ context.Context, m *domain.Module) (*domain.AddonBinding, error) {
	r.seen = append(r.seen, m.Path)
	if r.err != nil {
		return nil, r.err
	}
	if m.RequestsAddon() {
		return &domain.AddonBinding{Dir: m.Dirname, Path: "prebuilds/linux-x64/x@1.0.0.node"}, nil
	}
	return nil, nil
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

func quietLogger() ports.Logger {
	lg := logger.New()
	lg.SetOutput(io.Discard)
	return lg
}

func seq(mods ...*domain.Module) iter.Seq2[*domain.Module, error] {
	return iter.Seq2[*domain.Module, error](func(yield func(*domain.Module, error) bool) {
		for _, m := range mods {
			if !yield(m, nil) {
				return
			}
		}
	})
}

func failing(err error, before ...*domain.Module) iter.Seq2[*domain.Module, error] {
	return iter.Seq2[*domain.Module, error](func(yield func(*domain.Module, error) bool) {
		for _, m := range before {
			if !yield(m, nil) {
				return
			}
		}
		yield(nil, err)
	})
}

func TestEntrypoint(t *testing.T) {
	ctx := context.Background()
	d := drive.NewMemory()
	b := warmup.New(d, nil, nil, quietLogger(), telemetry.NewNoOp())

	got, err := b.Entrypoint(ctx, "lib/start.js", "/configured.js")
	require.NoError(t, err)
	assert.Equal(t, "/lib/start.js", got)

	got, err = b.Entrypoint(ctx, "", "configured.js")
	require.NoError(t, err)
	assert.Equal(t, "/configured.js", got)

	got, err = b.Entrypoint(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEntrypoint, got)

	require.NoError(t, d.Put(ctx, "/package.json", []byte(`{"name": "app", "main": "./src/main.js"}`)))
	got, err = b.Entrypoint(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "/src/main.js", got)

	require.NoError(t, d.Put(ctx, "/package.json", []byte(`{`)))
	_, err = b.Entrypoint(ctx, "", "")
	require.Error(t, err)
}

func TestWarmup_ResolvesEveryModule(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockGraphProvider(ctrl)

	a := domain.NewModule("/index.js", "")
	n := domain.NewModule("/node_modules/x/index.js", "")
	n.Resolutions = []domain.Resolution{{Input: domain.AddonRequest}}

	graph := domain.NewGraph()
	provider.EXPECT().
		Dependencies(gomock.Any(), "/index.js", gomock.Any(), gomock.Any(), graph).
		Return(seq(a, n))

	res := &recordingResolver{}
	b := warmup.New(nil, provider, res, quietLogger(), telemetry.NewNoOp())
	require.NoError(t, b.Warmup(context.Background(), "/index.js", graph, false, ports.LinkOptions{}))
	assert.Equal(t, []string{"/index.js", "/node_modules/x/index.js"}, res.seen)
}

func TestWarmup_MissingSourceIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockGraphProvider(ctrl)

	missing := &domain.MissingSourceError{Path: "/lib/a.js"}
	provider.EXPECT().
		Dependencies(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(failing(missing, domain.NewModule("/index.js", "")))

	res := &recordingResolver{}
	b := warmup.New(nil, provider, res, quietLogger(), telemetry.NewNoOp())
	err := b.Warmup(context.Background(), "/index.js", domain.NewGraph(), false, ports.LinkOptions{})
	require.ErrorIs(t, err, domain.ErrMissingSource)
	assert.Equal(t, "ENOENT: /lib/a.js", err.Error())
	assert.Equal(t, []string{"/index.js"}, res.seen)
}

func TestWarmup_ExternalGraphIsReused(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockGraphProvider(ctrl)

	graph := domain.NewGraph()
	require.NoError(t, graph.Add(domain.NewModule("/index.js", "")))

	res := &recordingResolver{}
	b := warmup.New(nil, provider, res, quietLogger(), telemetry.NewNoOp())
	require.NoError(t, b.Warmup(context.Background(), "/index.js", graph, true, ports.LinkOptions{}))
	assert.Empty(t, res.seen)
}

func TestWarmup_ExternalGraphRebindsAddons(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockGraphProvider(ctrl)

	entry := domain.NewModule("/index.js", "")
	entry.Resolutions = []domain.Resolution{
		{Input: "x", Output: "/node_modules/x/index.js"},
		{Input: "./missing"},
	}
	x := domain.NewModule("/node_modules/x/index.js", "")
	x.Resolutions = []domain.Resolution{
		{Input: domain.AddonRequest, Output: "/node_modules/node-gyp-build/index.js"},
		{Input: "../..", Output: "/index.js"},
	}
	unreached := domain.NewModule("/other.js", "")
	unreached.Resolutions = []domain.Resolution{{Input: domain.AddonRequest}}

	graph := domain.NewGraph()
	for _, m := range []*domain.Module{entry, x, unreached} {
		require.NoError(t, graph.Add(m))
	}

	res := &recordingResolver{}
	b := warmup.New(nil, provider, res, quietLogger(), telemetry.NewNoOp())
	require.NoError(t, b.Warmup(context.Background(), "/index.js", graph, true, ports.LinkOptions{}))
	assert.Equal(t, []string{"/node_modules/x/index.js"}, res.seen)
}

func TestWarmup_SecondRunPerformsNoReads(t *testing.T) {
	ctx := context.Background()
	mem := drive.NewMemory()
	require.NoError(t, mem.Put(ctx, "/index.js", []byte(`module.exports = require('./lib/a')`)))
	require.NoError(t, mem.Put(ctx, "/lib/a.js", []byte(`module.exports = 'a'`)))
	d := &countingDrive{Drive: mem}

	graph := domain.NewGraph()
	b := warmup.New(d, linker.New(d, nil), &recordingResolver{}, quietLogger(), telemetry.NewNoOp())

	require.NoError(t, b.Warmup(ctx, "/index.js", graph, true, ports.LinkOptions{}))
	assert.Positive(t, d.reads.Load())
	assert.Equal(t, 2, graph.Len())

	before := d.reads.Load()
	require.NoError(t, b.Warmup(ctx, "/index.js", graph, true, ports.LinkOptions{}))
	assert.Equal(t, before, d.reads.Load())

	// A fresh walk over the same graph reuses every module without reading sources.
	require.NoError(t, b.Warmup(ctx, "/index.js", graph, false, ports.LinkOptions{}))
	assert.Equal(t, before, d.reads.Load())
}
