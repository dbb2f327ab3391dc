package ports

import "go.trai.ch/bootdrive/internal/core/domain"

// ConfigLoader loads boot options from the working directory.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration found in cwd. A missing file yields zero Options.
	Load(cwd string) (domain.Options, error)
}
