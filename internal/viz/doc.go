// Package viz draws particle simulations in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one simulation
//   - [Canvas]: Braille-based dot canvas; particles are filled circles
//   - [NewPicker]: scenario menu that opens a [Model]
//
// Particles are drawn at a fixed number of dots per world unit around a
// constant origin, so the scene never re-centres while it runs.
//
// # Key Bindings
//
//	.     - Advance exactly one step
//	Space - Step once per frame until pressed again
//	R     - Reset to the initial scenario
//	+/-   - Zoom
//	C     - Toggle contact lines
//	T     - Cycle color themes
//	?     - Show help overlay
//
// Terminals report key presses but not releases, so continuous stepping is a
// toggle rather than a held key.
package viz
