package provider

import (
	"github.com/nwca-cart/internal/cart"
	"github.com/nwca-cart/internal/config"
	"github.com/nwca-cart/internal/models"
	"github.com/nwca-cart/internal/proxy"
	"github.com/nwca-cart/internal/storage"
)

// Container wires the facade dependencies.
type Container struct {
	Config *config.Config
	Proxy  *proxy.Client
	Mirror *storage.Mirror
	Engine *cart.Engine
}

// NewContainer builds the proxy client, the mirror and the engine.
func NewContainer(cfg *config.Config, pricing cart.PricingHook) (*Container, error) {
	client, err := proxy.New(proxy.Config{
		BaseURL:   cfg.Proxy.BaseURL,
		Timeout:   cfg.Proxy.Timeout(),
		UserAgent: cfg.Proxy.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	mirror := storage.NewMirror(models.DB)

	engine, err := cart.New(cart.Options{
		Client:         client,
		Mirror:         mirror,
		Pricing:        pricing,
		InventoryCheck: cfg.Cart.InventoryCheck,
		UserAgent:      cfg.Proxy.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Config: cfg,
		Proxy:  client,
		Mirror: mirror,
		Engine: engine,
	}, nil
}
