package ecs

// System represents a behavior that runs once per frame.
// User-defined systems can include Query fields, which the Scheduler
// initializes on registration and executes before each Update, as well as
// custom state fields that persist between frames.
// Update reports whether the system changed anything this frame.
type System interface {
	Update(frame *UpdateFrame) bool
}
