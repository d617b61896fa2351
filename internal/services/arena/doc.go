// Package arena implements the multiplayer grid-snake service.
//
// The domain subpackage owns the authoritative simulation; the app subpackage
// keeps WebSocket lifecycle, the tick clock, and fan-out outside of it so the
// simulation stays the single source of truth for round state.
package arena
