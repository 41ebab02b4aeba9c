package loader

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature is the lifecycle contract every HTTP feature implements.
type Feature interface {
	// Name returns the unique feature name.
	Name() string
	// IsEnabled reports whether the feature should be loaded.
	IsEnabled() bool
	// Load registers the feature's routes on the router.
	Load(app fiber.Router) error
}

// Manager holds the registry of available features.
type Manager struct {
	features []Feature
	logger   *zap.Logger
}

// NewManager creates an empty feature registry.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// Register adds a feature to the registry.
func (m *Manager) Register(feature Feature) {
	m.features = append(m.features, feature)
}

// LoadAll loads every enabled feature. Disabled features are skipped with a
// debug log.
func (m *Manager) LoadAll(app fiber.Router) error {
	for _, feature := range m.features {
		if !feature.IsEnabled() {
			m.logger.Debug("feature disabled, skipping", zap.String("feature", feature.Name()))
			continue
		}
		if err := feature.Load(app); err != nil {
			return fmt.Errorf("failed to load feature %s: %w", feature.Name(), err)
		}
		m.logger.Info("feature loaded", zap.String("feature", feature.Name()))
	}
	return nil
}
