package dusk

import (
	"fmt"
	"reflect"
	"runtime"
	"sync/atomic"
	"time"
)

type systemFn any

// Module bundles resources and systems for one concern. Install runs once at
// build time.
type Module interface {
	Install(app *App, cmd *Commands)
}

// App owns the stage schedule, the resource registry and the frame loop.
// Systems are plain functions; their parameters are resolved by type from
// the registry when the stage runs.
type App struct {
	modules   []Module
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
	fixedDt   time.Duration
	quitting  atomic.Bool
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

// Quit stops the loop after the current frame. Safe from any goroutine.
func (app *App) Quit() {
	app.quitting.Store(true)
}

const maxCatchUpSteps = 5

// Run drives the loop until Quit: dynamic stages once per real-time frame,
// fixed stages on a fixed-step accumulator.
func (app *App) Run() {
	last := time.Now()
	for !app.quitting.Load() {
		now := time.Now()
		app.Tick(now.Sub(last))
		last = now
	}
}

// Tick advances the loop by one real-time frame of the given duration and
// returns the number of fixed steps executed. Catch-up is capped at
// maxCatchUpSteps per frame and the accumulator never holds more than the
// cap's worth of simulation time; the excess is dropped, not queued, so a
// long stall cannot spiral.
func (app *App) Tick(frameDt time.Duration) int {
	t := app.timeResource()
	t.FrameDt = frameDt
	t.Now = t.Now.Add(frameDt)

	t.accumulated += frameDt
	maxAccum := time.Duration(maxCatchUpSteps) * app.fixedDt
	if t.accumulated > maxAccum {
		app.Logger().Debugf("loop: dropping %s of accumulated simulation time", t.accumulated-maxAccum)
		t.accumulated = maxAccum
	}

	steps := 0
	for t.accumulated >= app.fixedDt && steps < maxCatchUpSteps {
		app.runStages(FixedUpdate)
		t.accumulated -= app.fixedDt
		steps++
	}
	t.Alpha = float32(t.accumulated.Seconds() / app.fixedDt.Seconds())

	app.runStages(DynamicUpdate)
	return steps
}

func (app *App) runStages(kind UpdateType) {
	for _, stage := range app.stages {
		if stage.UpdateType != kind {
			continue
		}
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
	}
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}
		app.resources[resourceType.Elem()] = resource
	}
	return app
}

var typeOfCommands = reflect.TypeOf(Commands{})

// callSystem resolves each parameter of the system function from the
// resource registry and invokes it. *Commands is always available; anything
// else must have been registered by a module.
func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())
	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, ok := app.resources[underlyingType]; ok {
			resourceVal := reflect.ValueOf(resource)
			args[i] = reflect.NewAt(underlyingType, resourceVal.UnsafePointer())
		} else {
			panic(fmt.Sprintf("Unable to resolve system dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			))
		}
	}
	systemValue.Call(args)
}

// mustResource fetches a registered resource or panics, for module install
// code that depends on another module's resources.
func mustResource[T any](app *App) *T {
	var zero T
	r, ok := app.resources[reflect.TypeOf(zero)].(*T)
	if !ok {
		panic(fmt.Sprintf("required resource %T is not installed", zero))
	}
	return r
}

func (app *App) timeResource() *Time {
	t, ok := app.resources[reflect.TypeOf(Time{})].(*Time)
	if !ok {
		t = &Time{Now: time.Now(), FixedDt: app.fixedDt}
		app.addResources(t)
	}
	return t
}

// Time is the loop's clock resource, readable by any system.
type Time struct {
	Now     time.Time
	FrameDt time.Duration
	FixedDt time.Duration
	// Alpha is the unsimulated fraction of a fixed step left in the
	// accumulator, for render interpolation.
	Alpha float32

	accumulated time.Duration
}
