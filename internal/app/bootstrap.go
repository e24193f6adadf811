package app

import (
	"errors"

	"github.com/nwca-cart/internal/cart"
	"github.com/nwca-cart/internal/config"
	"github.com/nwca-cart/internal/provider"
	"github.com/nwca-cart/internal/router"
)

// BuildRunner wires the container and the HTTP facade service.
func BuildRunner(cfg *config.Config, pricing cart.PricingHook) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container, err := provider.NewContainer(cfg, pricing)
	if err != nil {
		return nil, err
	}

	engine := router.SetupRouter(cfg, container)
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	httpService := NewHTTPService(addr, engine)

	return NewRunner(httpService), nil
}

// Run is the application entry point.
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, nil)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr)
	return RunWithOptions(runner, opts)
}
