package ports

import (
	"context"
	"iter"

	"go.trai.ch/bootdrive/internal/core/domain"
)

// LinkOptions configures one dependency walk.
type LinkOptions struct {
	// Builtins are requests the provider must not try to resolve inside the drive.
	Builtins *domain.Builtins
	// Overwrite returns replacement source for a path before it is parsed.
	Overwrite func(path string) (string, bool)
}

// GraphProvider discovers the modules an entry depends on.
//
//go:generate mockgen -source=graph.go -destination=mocks/mock_graph.go -package=mocks
type GraphProvider interface {
	// Dependencies walks the graph below entry. Every module reached in this walk
	// is yielded exactly once, and newly read modules are added to graph.
	// A missing source file ends the sequence with a *domain.MissingSourceError.
	Dependencies(
		ctx context.Context,
		entry string,
		opts LinkOptions,
		visited map[string]struct{},
		graph *domain.Graph,
	) iter.Seq2[*domain.Module, error]
}
