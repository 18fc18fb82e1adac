// Package device manages fire-safety sensors registered to households.
//
// A device belongs to exactly one household and carries a rolling sensor
// snapshot (smoke, temperature, gas). Registration is the only way a
// device comes into existence; defaults are applied centrally so every
// caller observes the same initial state.
//
// Components:
//   - Registry: validated registration, readings, and removal
//   - Repository: persistence interface with a SQLite implementation
//   - Registration: the caller-supplied subset of a device's fields
//
// The household's device count is derived from this package's table, so
// the Registry reloads the owning household's cache entry after every
// registration or removal.
package device
