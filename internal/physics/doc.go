// Package physics is a small rigid-body world for the cart scene.
//
// Bodies carry one or more box colliders. Each step is split into substeps:
//
//   - integrate dynamic, awake bodies (gravity, damping, quaternion update)
//   - find contacts between overlapping colliders (axis of least penetration)
//   - solve contact velocities (normal impulse, Coulomb friction)
//   - push overlapping bodies apart
//   - put bodies that stopped moving to sleep
//
// Contacts act on linear motion only; rotation changes come from angular
// velocity set by the caller. Callers hold *[Body] as a handle and may read
// or overwrite translation, rotation and velocities between steps.
//
// # Example
//
//	world := physics.NewWorld(physics.DefaultGravity)
//	floor := physics.NewBody("floor", physics.NewTransform(mgl64.Vec3{0, -0.1, 0}),
//	    physics.BodyTypeStatic, 0, physics.BoxCollider(mgl64.Vec3{50, 0.1, 50}))
//	world.AddBody(floor)
//	world.Step(1.0 / 60)
package physics
