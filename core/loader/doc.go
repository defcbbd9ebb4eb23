// Package loader provides the feature loading system.
//
// Each feature implements the Feature interface and registers its routes when loaded.
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager holds the registry of features, in registration order, and loads
// the enabled ones via LoadAll. Features are constructed explicitly by the start
// command with their dependencies; nothing registers itself.
package loader
