// Package workflow drives the dashboard's modal interactions: editing a
// household's contact details, registering a device, and the map view.
//
// The Controller is a state machine over four states (idle, editing,
// adding_device, viewing_map). Workflows begin only from idle, so at most
// one runs at a time. Form input is validated field by field as it
// changes and once more at submission; a form with outstanding errors is
// never persisted.
//
// Submissions are guarded: while one is persisting, further submissions,
// edits, and cancels are rejected. A persistence failure keeps the
// workflow and its form intact and raises a retryable banner, so the
// user's input survives the failure. Successful submissions post a
// transient confirmation that dismisses itself after a configurable
// delay.
//
// The Store interface is the controller's only persistence surface;
// RegistryStore adapts the household and device registries to it.
package workflow
