package report

import (
	"github.com/gofiber/fiber/v2"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/loader"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

var _ loader.Feature = (*Feature)(nil)

// NewFeature creates the run history feature over an existing service.
func NewFeature(service *Service, handler *Handler) *Feature {
	return &Feature{service: service, handler: handler}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "report"
}

// IsEnabled reports whether run history can be served from at least one
// backend. With neither a database nor object storage configured the routes
// are not registered.
func (f *Feature) IsEnabled() bool {
	return f.service.HasHistory() || f.service.HasArchive()
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
