// Package linker discovers the module graph of an entry file stored in a drive.
package linker

import (
	"context"
	"iter"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.GraphProvider = (*Provider)(nil)

// Provider walks require() edges over a drive.
type Provider struct {
	drive   ports.Drive
	scanner *Scanner
}

// New creates a Provider reading from drive.
func New(drive ports.Drive, scanner *Scanner) *Provider {
	if scanner == nil {
		scanner = NewScanner()
	}
	return &Provider{drive: drive, scanner: scanner}
}

// Dependencies walks the graph below entry depth first.
// Modules already present in graph are reused without touching the drive.
func (p *Provider) Dependencies(
	ctx context.Context,
	entry string,
	opts ports.LinkOptions,
	visited map[string]struct{},
	graph *domain.Graph,
) iter.Seq2[*domain.Module, error] {
	return func(yield func(*domain.Module, error) bool) {
		res := newResolver(p.drive)
		stack := []string{domain.NormalizePath(entry)}

		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := visited[current]; seen {
				continue
			}
			visited[current] = struct{}{}

			m, ok := graph.Get(current)
			if !ok {
				var err error
				m, err = p.load(ctx, res, current, opts)
				if err != nil {
					yield(nil, err)
					return
				}
				if err := graph.Add(m); err != nil {
					yield(nil, err)
					return
				}
			}

			if !yield(m, nil) {
				return
			}

			// Reverse push so the first request is visited first.
			for _, r := range slices.Backward(m.Resolutions) {
				if r.Resolved() {
					if _, seen := visited[r.Output]; !seen {
						stack = append(stack, r.Output)
					}
				}
			}
		}
	}
}

func (p *Provider) load(ctx context.Context, res *resolver, filename string, opts ports.LinkOptions) (*domain.Module, error) {
	if opts.Overwrite != nil {
		if src, ok := opts.Overwrite(filename); ok {
			return p.link(ctx, res, filename, src, opts)
		}
	}

	data, err := p.drive.Get(ctx, filename)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDriveReadFailed.Error()), "path", filename)
	}
	if data == nil {
		return nil, &domain.MissingSourceError{Path: filename}
	}
	return p.link(ctx, res, filename, string(data), opts)
}

func (p *Provider) link(ctx context.Context, res *resolver, filename, source string, opts ports.LinkOptions) (*domain.Module, error) {
	m := domain.NewModule(filename, source)
	m.Digest = xxhash.Sum64String(source)

	pkg, err := res.owningPackage(ctx, m.Dirname)
	if err != nil {
		return nil, err
	}
	m.Package = pkg

	if m.Kind != domain.KindScript {
		return m, nil
	}

	requests, err := p.scanner.Scan(ctx, filename, []byte(source))
	if err != nil {
		return nil, err
	}

	m.Resolutions = make([]domain.Resolution, 0, len(requests))
	for _, req := range requests {
		r := domain.Resolution{Input: req}
		if req != domain.AddonRequest && !opts.Builtins.Has(req) {
			r.Output, err = res.Resolve(ctx, req, m.Dirname)
			if err != nil {
				return nil, zerr.With(err, "from", filename)
			}
		}
		m.Resolutions = append(m.Resolutions, r)
	}
	return m, nil
}
