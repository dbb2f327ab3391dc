// Package app implements the application layer for bootdrive.
package app

import (
	"context"
	"os"

	"github.com/dop251/goja"
	"go.trai.ch/bootdrive/internal/adapters/linker"    //nolint:depguard // default graph provider
	"go.trai.ch/bootdrive/internal/adapters/logger"    //nolint:depguard // default logger
	"go.trai.ch/bootdrive/internal/adapters/telemetry" //nolint:depguard // default telemetry
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/bootdrive/internal/engine/addon"
	"go.trai.ch/bootdrive/internal/engine/bundler"
	"go.trai.ch/bootdrive/internal/engine/executor"
	"go.trai.ch/bootdrive/internal/engine/serializer"
	"go.trai.ch/bootdrive/internal/engine/warmup"
	"go.trai.ch/zerr"
)

// Boot is one loading session over a drive. It owns the graph store, the addon
// bindings and the execution cache unless the caller supplies them.
type Boot struct {
	drive     ports.Drive
	opts      domain.Options
	graph     *domain.Graph
	external  bool
	cache     *executor.Cache
	builtins  *domain.Builtins
	provider  ports.GraphProvider
	addons    *addon.Resolver
	builder   *warmup.Builder
	loader    executor.AddonLoader
	logger    ports.Logger
	telemetry ports.Telemetry
	entry     string
	main      string
}

// BootOption configures a Boot session.
type BootOption func(*Boot)

// WithGraph warm-starts the session from a graph kept by the caller.
// A graph that already holds the entry is not walked again.
func WithGraph(g *domain.Graph) BootOption {
	return func(b *Boot) {
		b.graph = g
		b.external = true
	}
}

// WithCache evaluates into an execution cache kept by the caller.
func WithCache(c *executor.Cache) BootOption {
	return func(b *Boot) {
		b.cache = c
	}
}

// WithLogger sets the session logger.
func WithLogger(l ports.Logger) BootOption {
	return func(b *Boot) {
		b.logger = l
	}
}

// WithTelemetry sets the telemetry recorder.
func WithTelemetry(t ports.Telemetry) BootOption {
	return func(b *Boot) {
		b.telemetry = t
	}
}

// WithProvider replaces the graph provider.
func WithProvider(p ports.GraphProvider) BootOption {
	return func(b *Boot) {
		b.provider = p
	}
}

// WithAddonLoader replaces the loader that turns addon bindings into values.
func WithAddonLoader(l executor.AddonLoader) BootOption {
	return func(b *Boot) {
		b.loader = l
	}
}

// NewBoot creates a session reading from d.
func NewBoot(d ports.Drive, opts domain.Options, bootOpts ...BootOption) (*Boot, error) {
	target, err := opts.Target()
	if err != nil {
		return nil, err
	}
	if opts.Cwd == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
		opts.Cwd = cwd
	}

	b := &Boot{drive: d, opts: opts}
	for _, opt := range bootOpts {
		opt(b)
	}
	if b.graph == nil {
		b.graph = domain.NewGraph()
	}
	if b.cache == nil {
		b.cache = executor.NewCache()
	}
	if b.loader == nil {
		b.loader = executor.DescriptorLoader{}
	}
	if b.logger == nil {
		b.logger = logger.New()
	}
	if b.telemetry == nil {
		b.telemetry = telemetry.NewNoOp()
	}
	if b.provider == nil {
		b.provider = linker.New(d, nil)
	}

	b.builtins = domain.NewBuiltins(executor.HostBuiltins()...)
	b.builtins.Add(opts.AdditionalBuiltins...)
	b.addons = addon.New(d, target, opts.Cwd, b.logger, b.telemetry)
	b.builder = warmup.New(d, b.provider, b.addons, b.logger, b.telemetry)
	return b, nil
}

// Warmup discovers the graph below the entry and binds its addon artifacts.
// It returns the entry path that was used.
func (b *Boot) Warmup(ctx context.Context, entry string) (string, error) {
	resolved, err := b.entrypoint(ctx, entry)
	if err != nil {
		return "", err
	}
	linkOpts := ports.LinkOptions{
		Builtins:  b.builtins,
		Overwrite: b.opts.Overwrite,
	}
	if err := b.builder.Warmup(ctx, resolved, b.graph, b.external, linkOpts); err != nil {
		return "", err
	}
	b.entry = resolved
	return resolved, nil
}

// entrypoint picks the entry of a warm-up. The manifest is read once per
// session when neither an argument nor a configured entry is given.
func (b *Boot) entrypoint(ctx context.Context, entry string) (string, error) {
	fromManifest := entry == "" && b.opts.Entrypoint == ""
	if fromManifest && b.main != "" {
		return b.main, nil
	}
	resolved, err := b.builder.Entrypoint(ctx, entry, b.opts.Entrypoint)
	if err != nil {
		return "", err
	}
	if fromManifest {
		b.main = resolved
	}
	return resolved, nil
}

// Bundle warms up the entry and flattens the graph reachable from it.
func (b *Boot) Bundle(ctx context.Context, entry string) (*domain.Bundle, error) {
	resolved, err := b.Warmup(ctx, entry)
	if err != nil {
		return nil, err
	}
	return bundler.New(b.graph, b.builtins, b.addons, b.opts.AbsoluteArtifactPaths).Assemble(resolved)
}

// Start warms up, assembles and executes the entry, returning its export value.
func (b *Boot) Start(ctx context.Context, entry string) (goja.Value, error) {
	bundle, err := b.Bundle(ctx, entry)
	if err != nil {
		return nil, err
	}
	return executor.New(b.cache, executor.WithAddonLoader(b.loader)).Run(bundle, bundle.Entry)
}

// Stringify renders the entry and everything it reaches as standalone script text.
func (b *Boot) Stringify(ctx context.Context, entry string) (string, error) {
	bundle, err := b.Bundle(ctx, entry)
	if err != nil {
		return "", err
	}
	return serializer.Serialize(bundle, bundle.Entry)
}

// Entry returns the entry path of the last successful warm-up.
func (b *Boot) Entry() string {
	return b.entry
}

// Graph returns the graph store of the session.
func (b *Boot) Graph() *domain.Graph {
	return b.graph
}

// Cache returns the execution cache of the session.
func (b *Boot) Cache() *executor.Cache {
	return b.cache
}

// Builtins returns the names passed through to the host.
func (b *Boot) Builtins() *domain.Builtins {
	return b.builtins
}

// Bindings returns a snapshot of the addon bindings made so far.
func (b *Boot) Bindings() map[string]domain.AddonBinding {
	return b.addons.Bindings()
}

// Exports converts an export value into plain Go values.
func Exports(v goja.Value) any {
	if v == nil {
		return nil
	}
	return v.Export()
}
