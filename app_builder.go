package dusk

import (
	"reflect"
	"time"
)

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	app := &App{
		resources: make(map[reflect.Type]any),
		systems:   make(map[string][]systemFn),
		stages:    defaultStages(),
		fixedDt:   time.Second / 60,
	}
	for _, s := range app.stages {
		app.systems[s.Name] = make([]systemFn, 0)
	}
	return &AppBuilder{app: app}
}

// FixedStep overrides the simulation step duration (default 1/60 s).
func (b *AppBuilder) FixedStep(dt time.Duration) *AppBuilder {
	if dt > 0 {
		b.app.fixedDt = dt
	}
	return b
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

func (b *AppBuilder) Build() *App {
	app := b.app
	commands := &Commands{app: app}

	app.modules = b.modules
	for _, module := range b.modules {
		module.Install(app, commands)
	}
	return app
}
