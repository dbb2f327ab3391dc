package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bootdrive/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/bootdrive/internal/adapters/drive"              //nolint:depguard // Wired in app layer
	"go.trai.ch/bootdrive/internal/adapters/linker"             //nolint:depguard // Wired in app layer
	"go.trai.ch/bootdrive/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/bootdrive/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/bootdrive/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles what the binary needs from the graph.
type Components struct {
	App    *App
	Logger *logger.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			drive.NodeID,
			config.NodeID,
			logger.NodeID,
			progrock.NodeID,
			linker.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[*logger.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	opener, err := graft.Dep[ports.DriveOpener](ctx)
	if err != nil {
		return nil, err
	}

	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[*logger.Logger](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	scanner, err := graft.Dep[*linker.Scanner](ctx)
	if err != nil {
		return nil, err
	}

	return New(opener, loader, log, telemetry, scanner), nil
}
