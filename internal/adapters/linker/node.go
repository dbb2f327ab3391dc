package linker

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the require scanner Graft node.
const NodeID graft.ID = "adapter.linker"

func init() {
	graft.Register(graft.Node[*Scanner]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Scanner, error) {
			return NewScanner(), nil
		},
	})
}
