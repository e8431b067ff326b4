// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/wsdepth/obaggregator/internal/config"
	"github.com/wsdepth/obaggregator/internal/di"
	"github.com/wsdepth/obaggregator/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	container *containerHolder
}

// containerHolder lets app satisfy both di.Container and di.ServiceRegistry
// through the same underlying registry without exposing the concrete type.
type containerHolder struct {
	c interface {
		di.Container
		di.ServiceRegistry
	}
}

// New creates a new Monolith instance.
func New(cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	container := di.NewContainer()

	container.Register("config", cfg)
	container.Register("logger", log)

	return &app{
		config:    cfg,
		logger:    log,
		container: &containerHolder{c: container},
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Services() di.ServiceRegistry {
	return a.container.c
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container.c
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container.c); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules, in the order given. Order
// matters: the aggregator must be registered and listening before any
// exchange feed starts publishing, and feeds must be running before the
// publisher accepts client streams.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases resources held by the monolith itself. Module-owned
// resources are not closed here; each module stops when the context passed
// to its Startup is cancelled.
func (a *app) Close() error {
	return nil
}
