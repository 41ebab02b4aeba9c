package webhook

import (
	"github.com/gofiber/fiber/v2"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/loader"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
}

var _ loader.Feature = (*Feature)(nil)

// NewFeature creates the webhook feature.
func NewFeature(handler *Handler) *Feature {
	return &Feature{handler: handler}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "webhook"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
