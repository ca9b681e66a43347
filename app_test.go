package dusk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepCounter struct {
	fixed   int
	dynamic int
}

type counterModule struct{}

func (counterModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&stepCounter{})
	app.UseSystem(System(func(c *stepCounter) { c.fixed++ }).InStage(Simulation))
	app.UseSystem(System(func(c *stepCounter) { c.dynamic++ }).InStage(Render))
}

func TestTickFixedStepAccumulation(t *testing.T) {
	app := NewAppBuilder().
		FixedStep(10 * time.Millisecond).
		UseModule(counterModule{}).
		Build()

	steps := app.Tick(35 * time.Millisecond)
	assert.Equal(t, 3, steps)
	assert.InDelta(t, 0.5, mustResource[Time](app).Alpha, 1e-6)

	// The 5ms remainder carries into the next frame.
	steps = app.Tick(5 * time.Millisecond)
	assert.Equal(t, 1, steps)

	c := mustResource[stepCounter](app)
	assert.Equal(t, 4, c.fixed)
	assert.Equal(t, 2, c.dynamic)
}

func TestTickDropsExcessAccumulatedTime(t *testing.T) {
	app := NewAppBuilder().
		FixedStep(10 * time.Millisecond).
		UseModule(counterModule{}).
		Build()

	// A one-second stall runs only the catch-up cap and discards the rest.
	steps := app.Tick(time.Second)
	assert.Equal(t, maxCatchUpSteps, steps)
	assert.Equal(t, 0, app.Tick(0))
}

func TestTickRunsDynamicStagesOncePerFrame(t *testing.T) {
	app := NewAppBuilder().
		FixedStep(10 * time.Millisecond).
		UseModule(counterModule{}).
		Build()

	app.Tick(50 * time.Millisecond)
	c := mustResource[stepCounter](app)
	assert.Equal(t, 5, c.fixed)
	assert.Equal(t, 1, c.dynamic)
}

func TestFixedStageOrderWithinStep(t *testing.T) {
	var order []string
	app := NewAppBuilder().FixedStep(10 * time.Millisecond).Build()
	app.UseSystem(System(func() { order = append(order, "simulation") }).InStage(Simulation))
	app.UseSystem(System(func() { order = append(order, "actions") }).InStage(Actions))
	app.UseSystem(System(func() { order = append(order, "commit") }).InStage(Commit))

	app.Tick(20 * time.Millisecond)
	require.Len(t, order, 6)
	assert.Equal(t, []string{"actions", "commit", "simulation"}, order[:3])
	assert.Equal(t, []string{"actions", "commit", "simulation"}, order[3:])
}

func TestUseStageInsertsRelative(t *testing.T) {
	var order []string
	cleanup := Stage{Name: "Cleanup", UpdateType: FixedUpdate}

	app := NewAppBuilder().FixedStep(10 * time.Millisecond).Build()
	app.UseStage(cleanup, AfterStage(Simulation))
	app.UseSystem(System(func() { order = append(order, "cleanup") }).InStage(cleanup))
	app.UseSystem(System(func() { order = append(order, "simulation") }).InStage(Simulation))

	app.Tick(10 * time.Millisecond)
	assert.Equal(t, []string{"simulation", "cleanup"}, order)
}

func TestUseStageUnknownTargetPanics(t *testing.T) {
	app := NewAppBuilder().Build()
	assert.Panics(t, func() {
		app.UseStage(Stage{Name: "X"}, BeforeStage(Stage{Name: "NoSuchStage"}))
	})
}

func TestUseSystemUnknownStagePanics(t *testing.T) {
	app := NewAppBuilder().Build()
	assert.Panics(t, func() {
		app.UseSystem(System(func() {}).InStage(Stage{Name: "NoSuchStage"}))
	})
}

func TestDuplicateResourcePanics(t *testing.T) {
	app := NewAppBuilder().Build()
	app.addResources(&stepCounter{})
	assert.Panics(t, func() {
		app.addResources(&stepCounter{})
	})
}

func TestSystemWithUnresolvableDependencyPanics(t *testing.T) {
	app := NewAppBuilder().FixedStep(10 * time.Millisecond).Build()
	app.UseSystem(System(func(c *stepCounter) { c.fixed++ }).InStage(Simulation))
	assert.Panics(t, func() {
		app.Tick(10 * time.Millisecond)
	})
}

func TestCommandsInjectedIntoSystems(t *testing.T) {
	app := NewAppBuilder().FixedStep(10 * time.Millisecond).Build()
	app.UseSystem(System(func(cmd *Commands) { cmd.Quit() }).InStage(Actions))

	app.Tick(10 * time.Millisecond)
	assert.True(t, app.quitting.Load())
}

func TestModuleInstallOrder(t *testing.T) {
	app := NewAppBuilder().
		UseModule(counterModule{}).
		Build()

	c := mustResource[stepCounter](app)
	require.NotNil(t, c)
	assert.Equal(t, 0, c.fixed)
}
