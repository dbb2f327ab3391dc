// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/bootdrive/internal/adapters/config"
	_ "go.trai.ch/bootdrive/internal/adapters/drive"
	_ "go.trai.ch/bootdrive/internal/adapters/linker"
	_ "go.trai.ch/bootdrive/internal/adapters/logger"
	_ "go.trai.ch/bootdrive/internal/adapters/telemetry/progrock"
	// Register app nodes.
	_ "go.trai.ch/bootdrive/internal/app"
)
