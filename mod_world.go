package dusk

// WorldModule installs the world state, the event queue and the writer, and
// schedules the per-step pipeline: the writer transaction in Commit, then
// movement integration in Simulation.
type WorldModule struct{}

func (WorldModule) Install(app *App, cmd *Commands) {
	world := NewWorldState()
	queue := NewEventQueue()
	writer := NewWriter(world, queue, app.Logger())

	cmd.AddResources(world, queue, writer)
	app.UseSystem(
		System(writerSystem).InStage(Commit),
	).UseSystem(
		System(movementSystem).InStage(Simulation),
	)
}

func writerSystem(writer *Writer) {
	writer.ApplyFrame()
}

func movementSystem(world *WorldState, t *Time) {
	IntegrateMovement(world, float32(t.FixedDt.Seconds()))
}

// EffectsModule installs the visual-effect simulation over the world's
// status-effect stream.
type EffectsModule struct {
	Library *EffectLibrary
}

func (m EffectsModule) Install(app *App, cmd *Commands) {
	lib := m.Library
	if lib == nil {
		lib = NewEffectLibrary()
	}
	world := mustResource[WorldState](app)
	sim := NewEffectSim(lib, world.StatusEffects, app.Logger())

	cmd.AddResources(lib, sim)
	app.UseSystem(System(effectsSystem).InStage(Simulation))
}

func effectsSystem(sim *EffectSim, world *WorldState, t *Time) {
	sim.Update(float32(t.FixedDt.Seconds()), func(e EntityId) (Position, bool) {
		world.mu.RLock()
		defer world.mu.RUnlock()
		p, ok := world.Positions[e]
		return p, ok
	})
}

// Player marks the entity steered by the local input, with its move speed in
// logic units per second.
type Player struct {
	Entity EntityId
	Speed  float32
}

// PlayerControlModule turns the committed action states into velocity events
// for the player entity.
type PlayerControlModule struct{}

func (PlayerControlModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Player{Speed: 5})
	app.UseSystem(System(playerControlSystem).InStage(Actions))
}

func playerControlSystem(cmd *Commands, world *WorldState, player *Player) {
	if player.Entity.IsNil() {
		return
	}

	want := world.Control.Actions.MoveVector().Mul(player.Speed)
	world.mu.RLock()
	have, alive := world.Velocities[player.Entity]
	world.mu.RUnlock()
	if !alive || have == want {
		return
	}
	cmd.Publish(Event{Kind: EventVelocityChanged, Entity: player.Entity, Vec: want})
}
