package drive

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bootdrive/internal/core/ports"
)

// NodeID is the unique identifier for the drive opener Graft node.
const NodeID graft.ID = "adapter.drive_opener"

func init() {
	graft.Register(graft.Node[ports.DriveOpener]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DriveOpener, error) {
			return NewOpener(), nil
		},
	})
}
