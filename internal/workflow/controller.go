package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emberwell/firewatch-core/internal/device"
)

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Confirmation messages shown after a successful submission.
const (
	confirmSaved      = "Changes saved"
	confirmRegistered = "Device registered"
)

// Controller runs the dashboard's modal workflows: editing a household's
// contact details and registering a device. It is a state machine over
// the State constants with two guarantees:
//
//   - Modal exclusivity: a workflow can only begin from StateIdle, so two
//     workflows never run at once.
//   - Submission integrity: while a submission is persisting, further
//     submissions, edits, and cancels are rejected. On persistence
//     failure the workflow stays where it was with the form intact and a
//     retryable banner, so no user input is lost.
//
// Successful submissions post a transient confirmation that dismisses
// itself after a configurable delay.
//
// All public methods are thread-safe.
type Controller struct {
	store  Store
	logger Logger

	mu           sync.Mutex
	state        State
	selectedID   string
	expandedID   string
	editForm     EditForm
	editErrors   map[string]string
	deviceForm   DeviceForm
	deviceErrors map[string]string
	submitting   bool
	banner       *Banner
	confirmation string

	// confirmGen invalidates pending auto-dismiss timers when a newer
	// confirmation replaces an older one.
	confirmGen     uint64
	confirmDismiss time.Duration
}

// NewController creates a workflow controller. confirmDismiss is how long
// a confirmation stays visible before dismissing itself; zero disables
// auto-dismissal.
func NewController(store Store, confirmDismiss time.Duration) *Controller {
	return &Controller{
		store:          store,
		logger:         noopLogger{},
		state:          StateIdle,
		confirmDismiss: confirmDismiss,
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// Snapshot returns a copy of the current controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:        c.state,
		SelectedID:   c.selectedID,
		ExpandedID:   c.expandedID,
		EditForm:     c.editForm,
		EditErrors:   copyErrors(c.editErrors),
		DeviceForm:   c.deviceForm,
		DeviceErrors: copyErrors(c.deviceErrors),
		Submitting:   c.submitting,
		Banner:       copyBanner(c.banner),
		Confirmation: c.confirmation,
	}
}

// ToggleExpanded expands a household card, or collapses it if it is
// already expanded. Expansion is independent of the modal workflows.
func (c *Controller) ToggleExpanded(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.expandedID == id {
		c.expandedID = ""
	} else {
		c.expandedID = id
	}
	return c.expandedID
}

// BeginEdit opens the edit workflow for a household, prefilling the form
// from the stored record. Only legal from StateIdle.
func (c *Controller) BeginEdit(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("%w: edit from %s", ErrInvalidTransition, c.state)
	}
	c.mu.Unlock()

	h, err := c.store.GetHousehold(ctx, id)
	if err != nil {
		return fmt.Errorf("loading household for edit: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return fmt.Errorf("%w: edit from %s", ErrInvalidTransition, c.state)
	}

	form := EditForm{
		OwnerName:     h.OwnerName,
		Address:       h.Address,
		ContactNumber: h.ContactNumber,
	}
	if h.EmergencyContact != nil {
		form.EmergencyContact = *h.EmergencyContact
	}

	c.state = StateEditing
	c.selectedID = id
	c.editForm = form
	c.editErrors = nil
	c.banner = nil

	c.logger.Debug("edit workflow opened", "household_id", id)
	return nil
}

// SetEditField updates one edit form field. Field errors are recomputed
// across the whole form on every change.
func (c *Controller) SetEditField(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEditing {
		return fmt.Errorf("%w: set edit field from %s", ErrInvalidTransition, c.state)
	}
	if c.submitting {
		return ErrSubmitInFlight
	}

	switch field {
	case "ownerName":
		c.editForm.OwnerName = value
	case "address":
		c.editForm.Address = value
	case "contactNumber":
		c.editForm.ContactNumber = value
	case "emergencyContact":
		c.editForm.EmergencyContact = value
	default:
		return fmt.Errorf("%w: unknown edit field %q", ErrInvalidTransition, field)
	}

	c.editErrors = c.editForm.Validate()
	return nil
}

// SubmitEdit validates the form and persists the changes. On validation
// failure nothing is persisted and the field errors are available from
// the snapshot. On persistence failure the workflow stays in
// StateEditing with the form intact and a retryable banner.
func (c *Controller) SubmitEdit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateEditing {
		c.mu.Unlock()
		return fmt.Errorf("%w: submit edit from %s", ErrInvalidTransition, c.state)
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}

	if errs := c.editForm.Validate(); len(errs) > 0 {
		c.editErrors = errs
		c.mu.Unlock()
		return ErrValidation
	}

	id := c.selectedID
	patch := c.editForm.Patch()
	c.submitting = true
	c.banner = nil
	c.mu.Unlock()

	_, err := c.store.UpdateHousehold(ctx, id, patch)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if err != nil {
		c.banner = &Banner{
			Message:   "Could not save changes. Please try again.",
			Retryable: true,
		}
		c.logger.Error("household update failed", "household_id", id, "error", err)
		return fmt.Errorf("saving household: %w", err)
	}

	c.state = StateIdle
	c.selectedID = ""
	c.editForm = EditForm{}
	c.editErrors = nil
	c.showConfirmation(confirmSaved)

	c.logger.Info("household update saved", "household_id", id)
	return nil
}

// CancelEdit abandons the edit workflow and discards the form. Rejected
// while a submission is in flight.
func (c *Controller) CancelEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEditing {
		return fmt.Errorf("%w: cancel edit from %s", ErrInvalidTransition, c.state)
	}
	if c.submitting {
		return ErrSubmitInFlight
	}

	c.state = StateIdle
	c.selectedID = ""
	c.editForm = EditForm{}
	c.editErrors = nil
	c.banner = nil
	return nil
}

// BeginAddDevice opens the device registration workflow for a household.
// Only legal from StateIdle. The form starts with a smoke detector
// selected, matching the registration default.
func (c *Controller) BeginAddDevice(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("%w: add device from %s", ErrInvalidTransition, c.state)
	}
	c.mu.Unlock()

	if _, err := c.store.GetHousehold(ctx, id); err != nil {
		return fmt.Errorf("loading household for device registration: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return fmt.Errorf("%w: add device from %s", ErrInvalidTransition, c.state)
	}

	c.state = StateAddingDevice
	c.selectedID = id
	c.deviceForm = DeviceForm{Type: string(device.TypeSmokeDetector)}
	c.deviceErrors = nil
	c.banner = nil

	c.logger.Debug("device registration opened", "household_id", id)
	return nil
}

// SetDeviceField updates one device form field. Field errors are
// recomputed across the whole form on every change.
func (c *Controller) SetDeviceField(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAddingDevice {
		return fmt.Errorf("%w: set device field from %s", ErrInvalidTransition, c.state)
	}
	if c.submitting {
		return ErrSubmitInFlight
	}

	switch field {
	case "deviceId":
		c.deviceForm.DeviceID = value
	case "deviceType":
		c.deviceForm.Type = value
	case "location":
		c.deviceForm.Location = value
	default:
		return fmt.Errorf("%w: unknown device field %q", ErrInvalidTransition, field)
	}

	c.deviceErrors = c.deviceForm.Validate()
	return nil
}

// SubmitDevice validates the form and registers the device. The failure
// semantics match SubmitEdit.
func (c *Controller) SubmitDevice(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateAddingDevice {
		c.mu.Unlock()
		return fmt.Errorf("%w: submit device from %s", ErrInvalidTransition, c.state)
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}

	if errs := c.deviceForm.Validate(); len(errs) > 0 {
		c.deviceErrors = errs
		c.mu.Unlock()
		return ErrValidation
	}

	reg := c.deviceForm.Registration(c.selectedID)
	c.submitting = true
	c.banner = nil
	c.mu.Unlock()

	_, err := c.store.RegisterDevice(ctx, reg)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if err != nil {
		c.banner = &Banner{
			Message:   "Could not register the device. Please try again.",
			Retryable: true,
		}
		c.logger.Error("device registration failed",
			"household_id", reg.HouseholdID, "device_id", reg.DeviceID, "error", err)
		return fmt.Errorf("registering device: %w", err)
	}

	c.state = StateIdle
	c.selectedID = ""
	c.deviceForm = DeviceForm{}
	c.deviceErrors = nil
	c.showConfirmation(confirmRegistered)

	c.logger.Info("device registration saved",
		"household_id", reg.HouseholdID, "device_id", reg.DeviceID)
	return nil
}

// CancelAddDevice abandons the device registration workflow. Rejected
// while a submission is in flight.
func (c *Controller) CancelAddDevice() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAddingDevice {
		return fmt.Errorf("%w: cancel add device from %s", ErrInvalidTransition, c.state)
	}
	if c.submitting {
		return ErrSubmitInFlight
	}

	c.state = StateIdle
	c.selectedID = ""
	c.deviceForm = DeviceForm{}
	c.deviceErrors = nil
	c.banner = nil
	return nil
}

// OpenMap switches to the map view for a household, so the presentation
// layer knows whose address to render. Only legal from StateIdle.
func (c *Controller) OpenMap(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("%w: open map from %s", ErrInvalidTransition, c.state)
	}
	c.mu.Unlock()

	if _, err := c.store.GetHousehold(ctx, id); err != nil {
		return fmt.Errorf("loading household for map view: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return fmt.Errorf("%w: open map from %s", ErrInvalidTransition, c.state)
	}

	c.state = StateViewingMap
	c.selectedID = id
	return nil
}

// CloseMap returns from the map view to the idle state.
func (c *Controller) CloseMap() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateViewingMap {
		return fmt.Errorf("%w: close map from %s", ErrInvalidTransition, c.state)
	}
	c.state = StateIdle
	c.selectedID = ""
	return nil
}

// DismissConfirmation clears the confirmation immediately, ahead of the
// auto-dismiss timer.
func (c *Controller) DismissConfirmation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmation = ""
	c.confirmGen++
}

// DismissBanner clears the failure banner without leaving the workflow.
func (c *Controller) DismissBanner() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.banner = nil
}

// showConfirmation posts a confirmation and schedules its dismissal.
// Caller must hold c.mu.
func (c *Controller) showConfirmation(msg string) {
	c.confirmation = msg
	c.confirmGen++
	gen := c.confirmGen

	if c.confirmDismiss <= 0 {
		return
	}
	time.AfterFunc(c.confirmDismiss, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// A newer confirmation or a manual dismissal owns the slot now.
		if c.confirmGen == gen {
			c.confirmation = ""
		}
	})
}

func copyErrors(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}

func copyBanner(b *Banner) *Banner {
	if b == nil {
		return nil
	}
	copy := *b
	return &copy
}
