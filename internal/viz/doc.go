// Package viz is the terminal viewer for the cart-and-box scene.
//
// The scene is drawn as a Braille wireframe through the controller's
// follow camera. A stats panel shows the phase, run telemetry, a speed graph,
// the selected body and the tunable parameters.
//
//   - [App]: preset picker that opens a live view
//   - [Model]: live view of one controller, one frame per tick
//   - [Canvas]: Braille dot canvas, also exported as SVG
//
// # Key Bindings
//
//	S     - Start
//	Space - Stop
//	R     - Reset
//	1/2/0 - Select cart, box, nothing (or click a body)
//	Tab   - Cycle parameters, Up/Down to tune
//	T     - Cycle color themes
//	E     - Save an SVG snapshot to the data directory
//	?     - Show help overlay
package viz
