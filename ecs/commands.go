package ecs

// Commands provides a buffer for deferred operations that are executed at the end of a frame.
// This prevents structural changes to the world while systems iterate it.
type Commands struct {
	destroys []Entity
	defers   []func()
}

// NewCommands creates an empty command buffer.
func NewCommands() *Commands {
	return &Commands{}
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Destroy queues an entity destruction.
func (c *Commands) Destroy(e Entity) {
	c.destroys = append(c.destroys, e)
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.destroys) + len(c.defers)
}

// Flush applies all queued operations to the world, resetting the buffer state.
// Destroys run first, then deferred functions in queue order. Work queued by a
// deferred function is applied in the same Flush.
func (c *Commands) Flush(world *World) {
	for c.Len() > 0 {
		destroys, defers := c.destroys, c.defers
		c.destroys, c.defers = nil, nil

		for _, e := range destroys {
			world.DestroyEntity(e)
		}
		for _, fn := range defers {
			fn()
		}
	}
}
